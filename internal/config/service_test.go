package config

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
)

type memConfigStorage struct {
	blobs map[string][]byte
}

func newMemConfigStorage() *memConfigStorage {
	return &memConfigStorage{blobs: make(map[string][]byte)}
}

func (m *memConfigStorage) GetConfigBlob(ctx context.Context, key string) ([]byte, error) {
	b, ok := m.blobs[key]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return b, nil
}

func (m *memConfigStorage) SetConfigBlob(ctx context.Context, key string, value []byte) error {
	m.blobs[key] = value
	return nil
}

func (m *memConfigStorage) ListConfigKeys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	return keys, nil
}

func validWorkerSettings() models.WorkerSettings {
	return models.WorkerSettings{
		MaxSpawnDepth:            5,
		MaxRetries:               3,
		ProcessingTimeoutSeconds: 60,
		NFailDisable:             3,
		MaxCompanyWaitRetries:    5,
		RetryBackoff:             models.BackoffPolicy{BaseSeconds: 1, MaxSeconds: 1},
		CompanyWaitBackoff:       models.BackoffPolicy{BaseSeconds: 1, MaxSeconds: 1},
	}
}

func TestService_WorkerSettings_LoadsAndCaches(t *testing.T) {
	storage := newMemConfigStorage()
	body, _ := json.Marshal(validWorkerSettings())
	storage.blobs[models.WorkerSettingsKey] = body

	svc, err := NewService(storage, nil, arbor.NewLogger())
	require.NoError(t, err)

	got, err := svc.WorkerSettings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, got.MaxSpawnDepth)

	// Mutating the returned copy must not affect the cache.
	got.MaxSpawnDepth = 99
	again, err := svc.WorkerSettings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, again.MaxSpawnDepth, "cache was corrupted by caller mutation")
}

func TestService_MissingRequiredField_FailsValidation(t *testing.T) {
	storage := newMemConfigStorage()
	bad := validWorkerSettings()
	bad.ProcessingTimeoutSeconds = 0 // required,min=1
	body, _ := json.Marshal(bad)
	storage.blobs[models.WorkerSettingsKey] = body

	svc, err := NewService(storage, nil, arbor.NewLogger())
	require.NoError(t, err)

	_, err = svc.WorkerSettings(context.Background())
	require.Error(t, err, "expected validation error for zero processing_timeout_seconds")
}

func TestService_MissingKey_FailsFast(t *testing.T) {
	storage := newMemConfigStorage()
	svc, err := NewService(storage, nil, arbor.NewLogger())
	require.NoError(t, err)

	_, err = svc.PrefilterPolicy(context.Background())
	require.Error(t, err, "expected error for missing prefilter-policy key")
}

func TestService_InvalidateCache_ForcesReload(t *testing.T) {
	storage := newMemConfigStorage()
	body, _ := json.Marshal(validWorkerSettings())
	storage.blobs[models.WorkerSettingsKey] = body

	svc, err := NewService(storage, nil, arbor.NewLogger())
	require.NoError(t, err)
	_, err = svc.WorkerSettings(context.Background())
	require.NoError(t, err)

	updated := validWorkerSettings()
	updated.MaxSpawnDepth = 9
	body, _ = json.Marshal(updated)
	storage.blobs[models.WorkerSettingsKey] = body
	svc.InvalidateCache()

	got, err := svc.WorkerSettings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, got.MaxSpawnDepth, "expected reloaded max_spawn_depth")
}

var _ interfaces.ConfigStorage = (*memConfigStorage)(nil)
