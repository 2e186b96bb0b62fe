package badger

import (
	"context"
	"fmt"
	"sync"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// counterRecord is one (name, dayBucket) budget counter, e.g.
// ("search_daily", "2026-07-31") -> 14.
type counterRecord struct {
	Key   string `badgerhold:"key"`
	Value int
}

// CounterStorage implements interfaces.CounterStorage directly on Badger,
// used when no Redis address is configured (common.RedisConfig.Addr ==
// ""). Per-key mutex sharding gives the same single-process CAS
// guarantee as TaskStorage.UpdateTask, since badgerhold has no atomic
// increment primitive.
type CounterStorage struct {
	db     *BadgerDB
	logger arbor.ILogger

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewCounterStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CounterStorage {
	return &CounterStorage{db: db, logger: logger, locks: make(map[string]*sync.Mutex)}
}

func (s *CounterStorage) lockFor(key string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func counterKey(name, dayBucket string) string {
	return name + "|" + dayBucket
}

func (s *CounterStorage) IncrementDaily(ctx context.Context, name, dayBucket string) (int, error) {
	key := counterKey(name, dayBucket)
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	var rec counterRecord
	if err := s.db.Store().Get(key, &rec); err != nil && err != badgerhold.ErrNotFound {
		return 0, fmt.Errorf("failed to load counter %s: %w", key, err)
	}
	rec.Key = key
	rec.Value++

	if err := s.db.Store().Upsert(key, &rec); err != nil {
		return 0, fmt.Errorf("failed to persist counter %s: %w", key, err)
	}
	return rec.Value, nil
}

func (s *CounterStorage) GetDaily(ctx context.Context, name, dayBucket string) (int, error) {
	key := counterKey(name, dayBucket)
	var rec counterRecord
	if err := s.db.Store().Get(key, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load counter %s: %w", key, err)
	}
	return rec.Value, nil
}
