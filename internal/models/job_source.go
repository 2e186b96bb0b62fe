package models

import (
	"fmt"
	"time"
)

// SourceKind is the scrape mechanism a JobSource drives.
type SourceKind string

const (
	SourceKindAPI  SourceKind = "api"
	SourceKindRSS  SourceKind = "rss"
	SourceKindHTML SourceKind = "html"
)

func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindAPI, SourceKindRSS, SourceKindHTML:
		return true
	}
	return false
}

// SourceStatus tracks a JobSource's health.
type SourceStatus string

const (
	SourceStatusPendingValidation SourceStatus = "pending_validation"
	SourceStatusActive            SourceStatus = "active"
	SourceStatusDisabled          SourceStatus = "disabled"
	SourceStatusFailed            SourceStatus = "failed"
)

// DiscoveryConfidence is how sure the Source Processor is that an
// auto-discovered JobSource config is correct.
type DiscoveryConfidence string

const (
	ConfidenceHigh   DiscoveryConfidence = "high"
	ConfidenceMedium DiscoveryConfidence = "medium"
	ConfidenceLow    DiscoveryConfidence = "low"
)

// AuthType is how credentials are attached to a scrape request.
type AuthType string

const (
	AuthTypeHeader AuthType = "header"
	AuthTypeQuery  AuthType = "query"
	AuthTypeBearer AuthType = "bearer"
)

// SourceConfig is the declarative record driving the Generic Scraper
// (spec §6 Source Config Schema). It is persisted as JobSource.Config.
type SourceConfig struct {
	Type         SourceKind        `json:"type" validate:"required,oneof=api rss html"`
	URL          string            `json:"url" validate:"required,url"`
	ResponsePath string            `json:"response_path,omitempty"`
	JobSelector  string            `json:"job_selector,omitempty"`
	Fields       map[string]string `json:"fields" validate:"required"`
	Headers      map[string]string `json:"headers,omitempty"`
	CompanyName  string            `json:"company_name,omitempty"`

	AuthType  AuthType `json:"auth_type,omitempty"`
	AuthParam string   `json:"auth_param,omitempty"`
	APIKey    string   `json:"api_key,omitempty"`

	SalaryMinField string `json:"salary_min_field,omitempty"`
	SalaryMaxField string `json:"salary_max_field,omitempty"`
}

// Validate checks the structural requirements the Generic Scraper
// depends on beyond the validator struct tags (e.g. html sources must
// carry a job_selector).
func (c *SourceConfig) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type: %s", c.Type)
	}
	if c.URL == "" {
		return fmt.Errorf("source config url is required")
	}
	if c.Type == SourceKindHTML && c.JobSelector == "" {
		return fmt.Errorf("job_selector is required for html sources")
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("fields mapping is required")
	}
	if c.AuthType != "" {
		switch c.AuthType {
		case AuthTypeHeader, AuthTypeQuery, AuthTypeBearer:
		default:
			return fmt.Errorf("invalid auth_type: %s", c.AuthType)
		}
		if c.AuthType != AuthTypeBearer && c.AuthParam == "" {
			return fmt.Errorf("auth_param is required for auth_type %s", c.AuthType)
		}
	}
	return nil
}

// JobSource is a configured scrape target.
type JobSource struct {
	ID                  string              `json:"id"`
	CompanyID           string              `json:"company_id,omitempty"`
	SourceType          SourceKind          `json:"source_type"`
	Config              SourceConfig        `json:"config"`
	Status              SourceStatus        `json:"status"`
	DiscoveryConfidence DiscoveryConfidence `json:"discovery_confidence,omitempty"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	LastSuccessAt       *time.Time          `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time          `json:"last_failure_at,omitempty"`
	ValidationRequired  bool                `json:"validation_required"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// RecordSuccess resets the consecutive-failure counter on a non-empty
// successful scrape.
func (s *JobSource) RecordSuccess(now time.Time) {
	s.ConsecutiveFailures = 0
	s.LastSuccessAt = &now
	s.UpdatedAt = now
}

// RecordFailure increments the consecutive-failure counter and
// auto-disables the source once nFailDisable is reached (spec §4.8,
// §8 property 6).
func (s *JobSource) RecordFailure(now time.Time, nFailDisable int) {
	s.ConsecutiveFailures++
	s.LastFailureAt = &now
	s.UpdatedAt = now
	if s.ConsecutiveFailures >= nFailDisable {
		s.Status = SourceStatusDisabled
	}
}

// Leasable reports whether a ScrapeSource task for this source should
// be allowed to run.
func (s *JobSource) Leasable() bool {
	return s.Status == SourceStatusActive
}
