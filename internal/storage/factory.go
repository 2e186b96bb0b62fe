package storage

import (
	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/storage/badger"
	"github.com/jdubz/job-finder-worker/internal/storage/rediscounter"
	"github.com/ternarybob/arbor"
)

// NewStorageManager opens the Badger entity store backing all six
// logical tables (tasks, companies, job_sources, job_listings,
// job_matches, config). When config.Redis.Addr is set, the manager's
// CounterStorage is swapped for the Redis-backed one so multiple
// worker processes share one daily/per-task budget counter; otherwise
// the Badger-backed counter returned by badger.NewManager is kept.
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	mgr, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, err
	}

	if redisCounters := rediscounter.New(config.Redis.Addr, config.Redis.Password, config.Redis.DB, logger); redisCounters != nil {
		return withCounterOverride{StorageManager: mgr, counters: redisCounters}, nil
	}
	return mgr, nil
}

// withCounterOverride swaps the CounterStorage of an otherwise-complete
// StorageManager, letting the Redis/Badger choice stay a pure
// composition decision at wiring time instead of a branch inside
// badger.Manager.
type withCounterOverride struct {
	interfaces.StorageManager
	counters interfaces.CounterStorage
}

func (w withCounterOverride) CounterStorage() interfaces.CounterStorage { return w.counters }
