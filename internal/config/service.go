// Package config implements the Config Loader (spec §6): it reads the
// five named policy blobs from interfaces.ConfigStorage, validates each
// with go-playground/validator, and caches the decoded result until an
// EventConfigUpdated (or an explicit InvalidateCache) tells it to rebuild -
// the same cache/invalidate shape the teacher's config.Service uses for
// its KV-injected common.Config, generalized from one big struct to five
// independently-keyed policy blobs.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
)

// Service is the interfaces.ConfigService implementation.
type Service struct {
	storage  interfaces.ConfigStorage
	events   interfaces.EventService
	logger   arbor.ILogger
	validate *validator.Validate

	mu    sync.RWMutex
	cache map[string]interface{}
}

func NewService(storage interfaces.ConfigStorage, events interfaces.EventService, logger arbor.ILogger) (*Service, error) {
	if storage == nil {
		return nil, fmt.Errorf("config storage cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	s := &Service{
		storage:  storage,
		events:   events,
		logger:   logger,
		validate: validator.New(),
		cache:    make(map[string]interface{}),
	}

	if events != nil {
		if err := events.Subscribe(interfaces.EventConfigUpdated, s.handleConfigUpdated); err != nil {
			logger.Warn().Err(err).Msg("Failed to subscribe ConfigService to config update events")
		}
	}

	return s, nil
}

func (s *Service) handleConfigUpdated(ctx context.Context, event interfaces.Event) error {
	s.InvalidateCache()
	return nil
}

// InvalidateCache drops every cached policy blob, forcing the next access
// to re-read and re-validate from storage.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]interface{})
	s.logger.Debug().Msg("Config cache invalidated")
}

func (s *Service) Close() error {
	if s.events != nil {
		_ = s.events.Unsubscribe(interfaces.EventConfigUpdated, s.handleConfigUpdated)
	}
	return nil
}

func (s *Service) PrefilterPolicy(ctx context.Context) (*models.PrefilterPolicy, error) {
	var out models.PrefilterPolicy
	if err := s.load(ctx, models.PrefilterPolicyKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) MatchPolicy(ctx context.Context) (*models.MatchPolicy, error) {
	var out models.MatchPolicy
	if err := s.load(ctx, models.MatchPolicyKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) WorkerSettings(ctx context.Context) (*models.WorkerSettings, error) {
	var out models.WorkerSettings
	if err := s.load(ctx, models.WorkerSettingsKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) AISettings(ctx context.Context) (*models.AISettings, error) {
	var out models.AISettings
	if err := s.load(ctx, models.AISettingsKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) PersonalInfo(ctx context.Context) (*models.PersonalInfo, error) {
	var out models.PersonalInfo
	if err := s.load(ctx, models.PersonalInfoKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// load checks the cache first; on a miss it reads the blob from storage,
// decodes it into dest, validates it, and caches a private copy of the
// validated JSON blob keyed by the config key. dest must be a pointer to one of the five policy
// structs in internal/models/policy.go.
func (s *Service) load(ctx context.Context, key string, dest interface{}) error {
	s.mu.RLock()
	if cached, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return copyInto(cached, dest)
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[key]; ok {
		return copyInto(cached, dest)
	}

	blob, err := s.storage.GetConfigBlob(ctx, key)
	if err != nil {
		return fmt.Errorf("config key %q: %w", key, err)
	}
	if err := json.Unmarshal(blob, dest); err != nil {
		return fmt.Errorf("config key %q: failed to decode: %w", key, err)
	}
	if err := s.validate.Struct(dest); err != nil {
		return fmt.Errorf("config key %q: failed validation: %w", key, err)
	}

	s.cache[key] = append(json.RawMessage(nil), blob...)
	return nil
}

// copyInto round-trips through JSON to give the caller an independent copy
// of a cached policy struct, so mutation by one caller (e.g. a test) can't
// corrupt the shared cache entry.
func copyInto(src interface{}, dest interface{}) error {
	body, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to clone cached config: %w", err)
	}
	return json.Unmarshal(body, dest)
}

var _ interfaces.ConfigService = (*Service)(nil)
