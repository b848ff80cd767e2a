package entities

// Settings is the single persisted preferences record.
type Settings struct {
	OfflineMode   bool `json:"offlineMode"`
	AutoAnalyze   bool `json:"autoAnalyze"`
	HighContrast  bool `json:"highContrast"`
	VoiceGuidance bool `json:"voiceGuidance"`
}

// DefaultSettings returns the values used when nothing has been persisted yet.
func DefaultSettings() Settings {
	return Settings{
		OfflineMode:   false,
		AutoAnalyze:   true,
		HighContrast:  false,
		VoiceGuidance: false,
	}
}

// SettingsPatch is a merge-patch: nil fields leave the current value alone.
type SettingsPatch struct {
	OfflineMode   *bool `json:"offlineMode,omitempty"`
	AutoAnalyze   *bool `json:"autoAnalyze,omitempty"`
	HighContrast  *bool `json:"highContrast,omitempty"`
	VoiceGuidance *bool `json:"voiceGuidance,omitempty"`
}

// Apply returns s with every non-nil field of p written over it.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.OfflineMode != nil {
		s.OfflineMode = *p.OfflineMode
	}
	if p.AutoAnalyze != nil {
		s.AutoAnalyze = *p.AutoAnalyze
	}
	if p.HighContrast != nil {
		s.HighContrast = *p.HighContrast
	}
	if p.VoiceGuidance != nil {
		s.VoiceGuidance = *p.VoiceGuidance
	}
	return s
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.OfflineMode == nil && p.AutoAnalyze == nil && p.HighContrast == nil && p.VoiceGuidance == nil
}
