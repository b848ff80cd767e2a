package settingsstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/mrlokans/khelo/internal/entities"
	"github.com/mrlokans/khelo/internal/storage"
)

// StorageError is returned when the settings record cannot be read or written.
type StorageError = storage.Error

// SettingsStore owns the single persisted settings record.
// Priority: persisted value > default
type SettingsStore struct {
	backend storage.Backend
	key     string

	mu sync.Mutex
}

func New(backend storage.Backend) *SettingsStore {
	return &SettingsStore{backend: backend, key: entities.RecordKeySettings}
}

// Get returns the current settings. On first access the defaults are
// written so the record exists from then on.
func (s *SettingsStore) Get(ctx context.Context) (entities.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockRecord(ctx)
	if err != nil {
		return entities.Settings{}, err
	}
	defer unlock()

	settings, found, err := s.load(ctx)
	if err != nil {
		return entities.Settings{}, err
	}
	if !found {
		if err := s.save(ctx, settings); err != nil {
			return entities.Settings{}, err
		}
	}
	return settings, nil
}

// Update merges patch into the current settings and persists the result.
// Fields the patch leaves nil keep their current value.
func (s *SettingsStore) Update(ctx context.Context, patch entities.SettingsPatch) (entities.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockRecord(ctx)
	if err != nil {
		return entities.Settings{}, err
	}
	defer unlock()

	current, _, err := s.load(ctx)
	if err != nil {
		return entities.Settings{}, err
	}

	updated := patch.Apply(current)
	if err := s.save(ctx, updated); err != nil {
		return entities.Settings{}, err
	}
	return updated, nil
}

func (s *SettingsStore) lockRecord(ctx context.Context) (func(), error) {
	unlock, err := storage.LockRecord(ctx, s.backend, s.key)
	if err != nil {
		return nil, &StorageError{Store: "settings", Op: "lock", Key: s.key, Err: err}
	}
	return unlock, nil
}

// load decodes the stored record on top of the defaults, so fields missing
// from an older record keep their documented default and unknown fields
// are ignored. Caller must hold s.mu.
func (s *SettingsStore) load(ctx context.Context) (entities.Settings, bool, error) {
	settings := entities.DefaultSettings()

	data, err := s.backend.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return settings, false, nil
	}
	if err != nil {
		return entities.Settings{}, false, &StorageError{Store: "settings", Op: "read", Key: s.key, Err: err}
	}
	if len(data) == 0 {
		return settings, false, nil
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return entities.Settings{}, false, &StorageError{Store: "settings", Op: "parse", Key: s.key, Err: err}
	}
	return settings, true, nil
}

func (s *SettingsStore) save(ctx context.Context, settings entities.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return &StorageError{Store: "settings", Op: "encode", Key: s.key, Err: err}
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		return &StorageError{Store: "settings", Op: "write", Key: s.key, Err: err}
	}
	return nil
}
