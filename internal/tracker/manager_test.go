package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/fit/internal/models"
	"github.com/atinyakov/fit/internal/storage"
)

// fakeTracker is a Tracker returning fixed values.
type fakeTracker struct {
	username string
	rhr      float64
	kcal     float64
	err      error
}

func (f *fakeTracker) Authenticate(context.Context) error { return nil }
func (f *fakeTracker) RestingHeartRate(context.Context) (float64, error) {
	return f.rhr, f.err
}
func (f *fakeTracker) CaloriesBurned(context.Context) (float64, error) {
	return f.kcal, f.err
}

func fakeRegistry(constructErr error) *Registry {
	r := NewRegistry()
	r.Register(models.Whoop, func(_ context.Context, username, _ string) (Tracker, error) {
		if constructErr != nil {
			return nil, constructErr
		}
		return &fakeTracker{username: username}, nil
	})
	return r
}

// brokenCredentialStore fails every operation.
type brokenCredentialStore struct{}

func (brokenCredentialStore) Load() (map[models.TrackerType]models.Credentials, error) {
	return nil, storage.ErrIO
}
func (brokenCredentialStore) Save(models.TrackerType, string, string) error { return storage.ErrIO }
func (brokenCredentialStore) Delete(models.TrackerType) error               { return storage.ErrIO }

type brokenConfigStore struct{}

func (brokenConfigStore) Load() (models.ActiveTrackerConfig, error) {
	return models.ActiveTrackerConfig{}, storage.ErrIO
}
func (brokenConfigStore) Save(*models.TrackerType) error { return storage.ErrIO }

func newTestManager(t *testing.T, constructErr error) (*Manager, *storage.MemoryCredentialStore, *storage.MemoryConfigStore, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	creds := storage.NewMemoryCredentialStore()
	cfg := storage.NewMemoryConfigStore()
	return NewManager(fakeRegistry(constructErr), creds, cfg, zap.New(core)), creds, cfg, logs
}

func whoopPtr() *models.TrackerType {
	t := models.Whoop
	return &t
}

func TestRegistry_Create(t *testing.T) {
	r := fakeRegistry(nil)

	tr, err := r.Create(context.Background(), models.Whoop, "u", "p")
	require.NoError(t, err)
	assert.Equal(t, "u", tr.(*fakeTracker).username)

	_, err = r.Create(context.Background(), "garmin", "u", "p")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	assert.True(t, r.Supports(models.Whoop))
	assert.False(t, r.Supports("garmin"))

	r.Register("garmin", func(context.Context, string, string) (Tracker, error) { return &fakeTracker{}, nil })
	assert.Equal(t, []models.TrackerType{"garmin", "whoop"}, r.Types())
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, []models.TrackerType{models.Whoop}, DefaultRegistry().Types())
}

func TestManager_GetActive_NoneConfigured(t *testing.T) {
	m, _, _, logs := newTestManager(t, nil)

	assert.Nil(t, m.GetActive(context.Background()))
	assert.Zero(t, logs.Len())
}

func TestManager_GetActive_MissingCredentials(t *testing.T) {
	m, _, cfg, logs := newTestManager(t, nil)
	require.NoError(t, cfg.Save(whoopPtr()))

	assert.Nil(t, m.GetActive(context.Background()))
	assert.Equal(t, 1, logs.FilterMessageSnippet("failed to load active tracker").Len())
}

func TestManager_GetActive_Success(t *testing.T) {
	m, creds, cfg, _ := newTestManager(t, nil)
	require.NoError(t, creds.Save(models.Whoop, "u", "p"))
	require.NoError(t, cfg.Save(whoopPtr()))

	tr := m.GetActive(context.Background())
	require.NotNil(t, tr)
	assert.Equal(t, "u", tr.(*fakeTracker).username)
}

func TestManager_GetActive_FailuresAreSwallowed(t *testing.T) {
	authErr := &AuthenticationError{Tracker: models.Whoop, Err: errors.New("bad password")}

	tests := []struct {
		name    string
		manager func(t *testing.T) *Manager
	}{
		{
			name: "authentication failure",
			manager: func(t *testing.T) *Manager {
				m, creds, cfg, _ := newTestManager(t, authErr)
				require.NoError(t, creds.Save(models.Whoop, "u", "p"))
				require.NoError(t, cfg.Save(whoopPtr()))
				return m
			},
		},
		{
			name: "unreadable config",
			manager: func(t *testing.T) *Manager {
				return NewManager(fakeRegistry(nil), storage.NewMemoryCredentialStore(), brokenConfigStore{}, nil)
			},
		},
		{
			name: "unreadable credentials",
			manager: func(t *testing.T) *Manager {
				cfg := storage.NewMemoryConfigStore()
				require.NoError(t, cfg.Save(whoopPtr()))
				return NewManager(fakeRegistry(nil), brokenCredentialStore{}, cfg, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, tt.manager(t).GetActive(context.Background()))
		})
	}
}

func TestManager_SetActive(t *testing.T) {
	m, creds, _, _ := newTestManager(t, nil)

	_, err := m.SetActive(context.Background(), models.Whoop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, ok, err := m.ActiveType()
	require.NoError(t, err)
	assert.False(t, ok, "failed SetActive must not change the selection")

	require.NoError(t, creds.Save(models.Whoop, "u", "p"))
	tr, err := m.SetActive(context.Background(), models.Whoop)
	require.NoError(t, err)
	assert.NotNil(t, tr)

	active, ok, err := m.ActiveType()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.Whoop, active)
}

func TestManager_SetActive_UnsupportedType(t *testing.T) {
	m, creds, _, _ := newTestManager(t, nil)
	require.NoError(t, creds.Save("fitbit", "u", "p"))

	_, err := m.SetActive(context.Background(), "fitbit")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestManager_SetActive_AuthenticationFailureLeavesSelection(t *testing.T) {
	authErr := &AuthenticationError{Tracker: models.Whoop, Err: errors.New("bad password")}
	m, creds, cfg, _ := newTestManager(t, authErr)
	m.registry.Register("garmin", func(_ context.Context, username, _ string) (Tracker, error) {
		return &fakeTracker{username: username}, nil
	})
	require.NoError(t, creds.Save(models.Whoop, "u", "bad"))

	_, err := m.SetActive(context.Background(), models.Whoop)
	var target *AuthenticationError
	require.True(t, errors.As(err, &target))

	_, ok, err := m.ActiveType()
	require.NoError(t, err)
	assert.False(t, ok, "a tracker that failed to authenticate must not become active")

	require.NoError(t, creds.Save("garmin", "g", "gp"))
	garmin := models.TrackerType("garmin")
	require.NoError(t, cfg.Save(&garmin))

	_, err = m.SetActive(context.Background(), models.Whoop)
	require.Error(t, err)
	active, ok, _ := m.ActiveType()
	assert.True(t, ok)
	assert.Equal(t, garmin, active, "previous selection is kept")
}

func TestManager_SaveCredentials(t *testing.T) {
	m, creds, _, _ := newTestManager(t, nil)

	assert.True(t, errors.Is(m.SaveCredentials("garmin", "u", "p"), ErrInvalidArgument))
	assert.True(t, errors.Is(m.SaveCredentials(models.Whoop, "", "p"), ErrInvalidArgument))
	require.NoError(t, m.SaveCredentials(models.Whoop, "u", "p"))

	secrets, _ := creds.Load()
	assert.Equal(t, models.Credentials{Username: "u", Password: "p"}, secrets[models.Whoop])
}

func TestManager_Types(t *testing.T) {
	m, _, _, _ := newTestManager(t, nil)
	m.registry.Register("garmin", func(context.Context, string, string) (Tracker, error) {
		return &fakeTracker{}, nil
	})
	assert.Equal(t, []models.TrackerType{"garmin", models.Whoop}, m.Types())
}

func TestManager_RemoveClearsActiveSelection(t *testing.T) {
	m, creds, cfg, _ := newTestManager(t, nil)
	require.NoError(t, creds.Save(models.Whoop, "u", "p"))
	require.NoError(t, creds.Save("garmin", "g", "gp"))
	require.NoError(t, cfg.Save(whoopPtr()))

	require.NoError(t, m.Remove("garmin"))
	_, ok, _ := m.ActiveType()
	assert.True(t, ok, "removing another tracker keeps the selection")

	require.NoError(t, m.Remove(models.Whoop))
	_, ok, _ = m.ActiveType()
	assert.False(t, ok)

	err := m.Remove(models.Whoop)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestManager_Remove_ConfigFailureKeepsCredentials(t *testing.T) {
	creds := storage.NewMemoryCredentialStore()
	require.NoError(t, creds.Save(models.Whoop, "u", "p"))
	m := NewManager(fakeRegistry(nil), creds, brokenConfigStore{}, nil)

	err := m.Remove(models.Whoop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrIO))

	secrets, err := creds.Load()
	require.NoError(t, err)
	assert.Contains(t, secrets, models.Whoop, "credentials survive a failed remove")
}

func TestManager_List(t *testing.T) {
	m, creds, cfg, _ := newTestManager(t, nil)
	require.NoError(t, creds.Save(models.Whoop, "u", "p"))
	require.NoError(t, creds.Save("garmin", "g", "gp"))
	require.NoError(t, cfg.Save(whoopPtr()))

	infos, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []models.TrackerInfo{
		{Type: "garmin", Username: "g", Active: false},
		{Type: "whoop", Username: "u", Active: true},
	}, infos)
}

func TestManager_WithFileStores(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(fakeRegistry(nil), storage.NewFileCredentialStore(dir), storage.NewFileConfigStore(dir), nil)

	require.NoError(t, m.SaveCredentials(models.Whoop, "u", "p"))
	_, err := m.SetActive(context.Background(), models.Whoop)
	require.NoError(t, err)

	reopened := NewManager(fakeRegistry(nil), storage.NewFileCredentialStore(dir), storage.NewFileConfigStore(dir), nil)
	assert.NotNil(t, reopened.GetActive(context.Background()))
}
