package entities

import "time"

type AnalysisVariant string

const (
	AnalysisVariantBaseline   AnalysisVariant = "baseline"
	AnalysisVariantJump       AnalysisVariant = "jump"
	AnalysisVariantRepetition AnalysisVariant = "repetition"
	AnalysisVariantTimed      AnalysisVariant = "timed"
)

const (
	TechniqueGood             = "good"
	TechniqueNeedsImprovement = "needs_improvement"
)

// AnalysisResult is a mock performance score. Only the fields belonging to
// Variant are set.
type AnalysisResult struct {
	Variant    AnalysisVariant `json:"variant"`
	Confidence float64         `json:"confidence"`
	FaceMatch  bool            `json:"faceMatch"`

	JumpHeightCM *int   `json:"jumpHeight_cm,omitempty"`
	Technique    string `json:"technique,omitempty"`

	Reps      *int `json:"reps,omitempty"`
	FormScore *int `json:"form_score,omitempty"`

	TimeSeconds  *float64 `json:"time_seconds,omitempty"`
	AgilityScore *int     `json:"agility_score,omitempty"`
}

// AnalysisRecord is a persisted analysis result for a captured recording.
type AnalysisRecord struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ItemID     string          `gorm:"uniqueIndex;size:200" json:"item_id"`
	AthleteID  string          `gorm:"index;size:50" json:"athlete_id"`
	TestID     string          `gorm:"index;size:50" json:"test_id"`
	TestName   string          `gorm:"size:200" json:"test_name"`
	Variant    AnalysisVariant `gorm:"size:20" json:"variant"`
	Confidence float64         `json:"confidence"`
	FaceMatch  bool            `json:"face_match"`
	Result     string          `gorm:"type:text" json:"result"` // JSON encoded AnalysisResult
	CreatedAt  time.Time       `json:"created_at"`
}

func (AnalysisRecord) TableName() string {
	return "analysis_results"
}
