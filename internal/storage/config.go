package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/atinyakov/fit/internal/models"
)

const (
	configPerm       = 0o644
	activeTrackerKey = "active_tracker"
)

// FileConfigStore keeps the active tracker selection in a JSON object
// with a single "active_tracker" key. Other keys found in the file are
// preserved on save.
type FileConfigStore struct {
	path string
	mu   sync.Mutex
}

// NewFileConfigStore returns a store backed by dataDir/config.json.
func NewFileConfigStore(dataDir string) *FileConfigStore {
	return &FileConfigStore{path: filepath.Join(dataDir, ConfigFile)}
}

// Path returns the backing file path.
func (s *FileConfigStore) Path() string {
	return s.path
}

// Load returns the stored config, or an empty selection if the file is missing.
func (s *FileConfigStore) Load() (models.ActiveTrackerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.loadRaw()
	if err != nil {
		return models.ActiveTrackerConfig{}, err
	}
	var cfg models.ActiveTrackerConfig
	if v, ok := raw[activeTrackerKey]; ok {
		if err := json.Unmarshal(v, &cfg.ActiveTracker); err != nil {
			return models.ActiveTrackerConfig{}, fmt.Errorf("%w: decode %s: %w", ErrIO, s.path, err)
		}
	}
	return cfg, nil
}

// Save sets the active tracker. A nil value clears the selection.
func (s *FileConfigStore) Save(active *models.TrackerType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.loadRaw()
	if err != nil {
		return err
	}
	value, err := json.Marshal(active)
	if err != nil {
		return fmt.Errorf("marshal active tracker: %w", err)
	}
	raw[activeTrackerKey] = value

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := writeFileAtomic(s.path, data, configPerm); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

func (s *FileConfigStore) loadRaw() (map[string]json.RawMessage, error) {
	data, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]json.RawMessage)
	if data == nil {
		return raw, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrIO, s.path, err)
	}
	if raw == nil {
		raw = make(map[string]json.RawMessage)
	}
	return raw, nil
}

// MemoryConfigStore is an in-process config store.
type MemoryConfigStore struct {
	mu     sync.Mutex
	active *models.TrackerType
}

// NewMemoryConfigStore returns a store with no active tracker.
func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{}
}

// Load returns the current selection.
func (s *MemoryConfigStore) Load() (models.ActiveTrackerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.ActiveTrackerConfig{}, nil
	}
	t := *s.active
	return models.ActiveTrackerConfig{ActiveTracker: &t}, nil
}

// Save replaces the selection.
func (s *MemoryConfigStore) Save(active *models.TrackerType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active == nil {
		s.active = nil
		return nil
	}
	t := *active
	s.active = &t
	return nil
}
