package badger

import (
	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// Manager wires the six logical tables onto a single Badger database,
// mirroring the teacher's StorageManager composite-interface pattern.
type Manager struct {
	db *BadgerDB

	taskStorage       interfaces.TaskStorage
	companyStorage    interfaces.CompanyStorage
	jobSourceStorage  interfaces.JobSourceStorage
	jobListingStorage interfaces.JobListingStorage
	jobMatchStorage   interfaces.JobMatchStorage
	configStorage     interfaces.ConfigStorage
	counterStorage    interfaces.CounterStorage
}

// NewManager opens the Badger database and constructs every table's
// storage implementation on top of it. The returned CounterStorage is
// the Badger-backed fallback; callers that have a Redis address
// configured should prefer rediscounter.New and only fall back to
// Manager.CounterStorage() when it returns nil.
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:                db,
		taskStorage:       NewTaskStorage(db, logger),
		companyStorage:    NewCompanyStorage(db, logger),
		jobSourceStorage:  NewJobSourceStorage(db, logger),
		jobListingStorage: NewJobListingStorage(db, logger),
		jobMatchStorage:   NewJobMatchStorage(db, logger),
		configStorage:     NewConfigStorage(db, logger),
		counterStorage:    NewCounterStorage(db, logger),
	}, nil
}

func (m *Manager) TaskStorage() interfaces.TaskStorage             { return m.taskStorage }
func (m *Manager) CompanyStorage() interfaces.CompanyStorage       { return m.companyStorage }
func (m *Manager) JobSourceStorage() interfaces.JobSourceStorage   { return m.jobSourceStorage }
func (m *Manager) JobListingStorage() interfaces.JobListingStorage { return m.jobListingStorage }
func (m *Manager) JobMatchStorage() interfaces.JobMatchStorage     { return m.jobMatchStorage }
func (m *Manager) ConfigStorage() interfaces.ConfigStorage         { return m.configStorage }
func (m *Manager) CounterStorage() interfaces.CounterStorage       { return m.counterStorage }

func (m *Manager) DB() interface{} { return m.db.Store() }

func (m *Manager) Close() error {
	return m.db.Close()
}
