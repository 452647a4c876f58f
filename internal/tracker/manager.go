package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/atinyakov/fit/internal/models"
	"github.com/atinyakov/fit/internal/storage"
)

// CredentialStore persists account credentials keyed by tracker type.
type CredentialStore interface {
	// Load returns every stored entry; an empty map when nothing is stored.
	Load() (map[models.TrackerType]models.Credentials, error)
	// Save creates or replaces the entry for trackerType.
	Save(trackerType models.TrackerType, username, password string) error
	// Delete removes the entry for trackerType.
	Delete(trackerType models.TrackerType) error
}

// ConfigStore persists the active tracker selection.
type ConfigStore interface {
	Load() (models.ActiveTrackerConfig, error)
	// Save sets the active tracker; nil clears it.
	Save(active *models.TrackerType) error
}

// Manager resolves trackers from stored credentials and the active
// tracker selection.
type Manager struct {
	registry *Registry
	creds    CredentialStore
	config   ConfigStore
	log      *zap.Logger
}

// NewManager constructs a Manager. A nil logger is replaced by a no-op one.
func NewManager(registry *Registry, creds CredentialStore, config ConfigStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{registry: registry, creds: creds, config: config, log: log}
}

// Types returns the tracker types credentials can be stored for.
func (m *Manager) Types() []models.TrackerType {
	return m.registry.Types()
}

// SaveCredentials stores credentials for a supported tracker type.
func (m *Manager) SaveCredentials(trackerType models.TrackerType, username, password string) error {
	if !m.registry.Supports(trackerType) {
		return fmt.Errorf("%w: invalid tracker type: %s", ErrInvalidArgument, trackerType)
	}
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalidArgument)
	}
	return m.creds.Save(trackerType, username, password)
}

// ActiveType returns the active tracker type, if one is selected.
func (m *Manager) ActiveType() (models.TrackerType, bool, error) {
	cfg, err := m.config.Load()
	if err != nil {
		return "", false, fmt.Errorf("load config: %w", err)
	}
	t, ok := cfg.Active()
	return t, ok, nil
}

// GetActive returns the active tracker, or nil when none is configured.
// Every failure (unreadable files, missing credentials, authentication)
// is logged and reported as nil.
func (m *Manager) GetActive(ctx context.Context) Tracker {
	t, ok, err := m.ActiveType()
	if err != nil {
		m.log.Error("failed to load active tracker", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	secrets, err := m.creds.Load()
	if err != nil {
		m.log.Error("failed to load active tracker",
			zap.String("tracker", string(t)), zap.Error(err))
		return nil
	}
	creds, ok := secrets[t]
	if !ok {
		m.log.Error("failed to load active tracker: no credentials",
			zap.String("tracker", string(t)))
		return nil
	}

	tr, err := m.registry.Create(ctx, t, creds.Username, creds.Password)
	if err != nil {
		m.log.Error("failed to load active tracker",
			zap.String("tracker", string(t)), zap.Error(err))
		return nil
	}
	return tr
}

// SetActive selects trackerType as the active tracker and returns a
// freshly constructed client for it. It fails with ErrInvalidArgument
// when no credentials are stored for trackerType. The selection is
// persisted only once the client has been constructed, so a failed
// authentication leaves the previous selection untouched.
func (m *Manager) SetActive(ctx context.Context, trackerType models.TrackerType) (Tracker, error) {
	secrets, err := m.creds.Load()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	creds, ok := secrets[trackerType]
	if !ok {
		return nil, fmt.Errorf("%w: no credentials found for tracker type: %s", ErrInvalidArgument, trackerType)
	}
	if !m.registry.Supports(trackerType) {
		return nil, fmt.Errorf("%w: invalid tracker type: %s", ErrInvalidArgument, trackerType)
	}

	tr, err := m.registry.Create(ctx, trackerType, creds.Username, creds.Password)
	if err != nil {
		return nil, err
	}

	if err := m.config.Save(&trackerType); err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}
	m.log.Info("active tracker changed", zap.String("tracker", string(trackerType)))
	return tr, nil
}

// Remove deletes the credentials of trackerType. When it is the active
// tracker, the selection is cleared as well.
func (m *Manager) Remove(trackerType models.TrackerType) error {
	// The selection is read first so a config failure leaves the
	// credentials in place.
	active, ok, err := m.ActiveType()
	if err != nil {
		return err
	}

	if err := m.creds.Delete(trackerType); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: no credentials found for tracker type: %s", ErrInvalidArgument, trackerType)
		}
		return fmt.Errorf("delete credentials: %w", err)
	}

	if ok && active == trackerType {
		if err := m.config.Save(nil); err != nil {
			return fmt.Errorf("clear active tracker: %w", err)
		}
		m.log.Info("active tracker cleared", zap.String("tracker", string(trackerType)))
	}
	return nil
}

// List returns the configured trackers sorted by type.
func (m *Manager) List() ([]models.TrackerInfo, error) {
	secrets, err := m.creds.Load()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	active, ok, err := m.ActiveType()
	if err != nil {
		return nil, err
	}

	infos := make([]models.TrackerInfo, 0, len(secrets))
	for t, c := range secrets {
		infos = append(infos, models.TrackerInfo{
			Type:     t,
			Username: c.Username,
			Active:   ok && t == active,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Type < infos[j].Type })
	return infos, nil
}
