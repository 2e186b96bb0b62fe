package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// configBlob is the persisted envelope for one named policy blob
// (models.PrefilterPolicyKey etc.): raw JSON plus bookkeeping, following
// the teacher's KVStorage preserve-CreatedAt-on-update idiom.
type configBlob struct {
	Key       string `badgerhold:"key"`
	Value     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConfigStorage implements interfaces.ConfigStorage for Badger.
type ConfigStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewConfigStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ConfigStorage {
	return &ConfigStorage{db: db, logger: logger}
}

func (s *ConfigStorage) GetConfigBlob(ctx context.Context, key string) ([]byte, error) {
	var blob configBlob
	if err := s.db.Store().Get(key, &blob); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get config blob %s: %w", key, err)
	}
	return blob.Value, nil
}

func (s *ConfigStorage) SetConfigBlob(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	blob := configBlob{Key: key, Value: value, CreatedAt: now, UpdatedAt: now}

	var existing configBlob
	if err := s.db.Store().Get(key, &existing); err == nil {
		blob.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Store().Upsert(key, &blob); err != nil {
		return fmt.Errorf("failed to set config blob %s: %w", key, err)
	}
	return nil
}

func (s *ConfigStorage) ListConfigKeys(ctx context.Context) ([]string, error) {
	var blobs []configBlob
	if err := s.db.Store().Find(&blobs, badgerhold.Where("Key").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list config keys: %w", err)
	}
	keys := make([]string, len(blobs))
	for i, b := range blobs {
		keys[i] = b.Key
	}
	return keys, nil
}
