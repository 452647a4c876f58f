package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/atinyakov/fit/internal/models"
)

// secretsPerm restricts the credentials file to owner read/write.
const secretsPerm = 0o600

// FileCredentialStore keeps tracker credentials in a JSON object keyed by
// tracker type:
//
//	{"whoop": {"username": "...", "password": "..."}}
type FileCredentialStore struct {
	path string
	mu   sync.Mutex
}

// NewFileCredentialStore returns a store backed by dataDir/secrets.json.
// The file is created on first Save.
func NewFileCredentialStore(dataDir string) *FileCredentialStore {
	return &FileCredentialStore{path: filepath.Join(dataDir, SecretsFile)}
}

// Path returns the backing file path.
func (s *FileCredentialStore) Path() string {
	return s.path
}

// Load returns all stored credentials. A missing file yields an empty map.
func (s *FileCredentialStore) Load() (map[models.TrackerType]models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileCredentialStore) load() (map[models.TrackerType]models.Credentials, error) {
	data, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	secrets := make(map[models.TrackerType]models.Credentials)
	if data == nil {
		return secrets, nil
	}
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrIO, s.path, err)
	}
	if secrets == nil {
		secrets = make(map[models.TrackerType]models.Credentials)
	}
	return secrets, nil
}

// Save merges the credentials for trackerType into the file, replacing
// any previous entry for that type.
func (s *FileCredentialStore) Save(trackerType models.TrackerType, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	secrets, err := s.load()
	if err != nil {
		return err
	}
	secrets[trackerType] = models.Credentials{Username: username, Password: password}
	return s.write(secrets)
}

// Delete removes the entry for trackerType. It returns ErrNotFound when
// there is no such entry.
func (s *FileCredentialStore) Delete(trackerType models.TrackerType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	secrets, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := secrets[trackerType]; !ok {
		return fmt.Errorf("credentials for %q: %w", trackerType, ErrNotFound)
	}
	delete(secrets, trackerType)
	return s.write(secrets)
}

func (s *FileCredentialStore) write(secrets map[models.TrackerType]models.Credentials) error {
	data, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := writeFileAtomic(s.path, data, secretsPerm); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// MemoryCredentialStore is an in-process credential store.
type MemoryCredentialStore struct {
	mu      sync.Mutex
	secrets map[models.TrackerType]models.Credentials
}

// NewMemoryCredentialStore returns an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{secrets: make(map[models.TrackerType]models.Credentials)}
}

// Load returns a copy of the stored credentials.
func (s *MemoryCredentialStore) Load() (map[models.TrackerType]models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[models.TrackerType]models.Credentials, len(s.secrets))
	for k, v := range s.secrets {
		out[k] = v
	}
	return out, nil
}

// Save stores credentials for trackerType, replacing any previous entry.
func (s *MemoryCredentialStore) Save(trackerType models.TrackerType, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[trackerType] = models.Credentials{Username: username, Password: password}
	return nil
}

// Delete removes the entry for trackerType.
func (s *MemoryCredentialStore) Delete(trackerType models.TrackerType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secrets[trackerType]; !ok {
		return fmt.Errorf("credentials for %q: %w", trackerType, ErrNotFound)
	}
	delete(s.secrets, trackerType)
	return nil
}
