package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Unix(1700000000, 0)
}

func TestSourceConfig_Validate(t *testing.T) {
	valid := SourceConfig{
		Type:   SourceKindAPI,
		URL:    "https://boards-api.greenhouse.io/v1/boards/stripe/jobs?content=true",
		Fields: map[string]string{"title": "title", "url": "absolute_url"},
	}
	require.NoError(t, valid.Validate(), "expected valid config to pass")

	missingFields := valid
	missingFields.Fields = nil
	assert.Error(t, missingFields.Validate(), "expected error for missing fields mapping")

	htmlMissingSelector := SourceConfig{
		Type:   SourceKindHTML,
		URL:    "https://example.com/jobs",
		Fields: map[string]string{"title": ".job-title"},
	}
	assert.Error(t, htmlMissingSelector.Validate(), "expected error for html source missing job_selector")

	badAuth := valid
	badAuth.AuthType = AuthTypeHeader
	assert.Error(t, badAuth.Validate(), "expected error for header auth missing auth_param")
}

func TestJobSource_RecordFailure_AutoDisables(t *testing.T) {
	s := &JobSource{Status: SourceStatusActive}

	for i := 0; i < 4; i++ {
		s.RecordFailure(fixedNow(), 5)
		require.NotEqual(t, SourceStatusDisabled, s.Status, "expected source to remain active before reaching n_fail_disable, failure %d", i+1)
	}
	s.RecordFailure(fixedNow(), 5)
	assert.Equal(t, SourceStatusDisabled, s.Status, "expected source to be disabled after 5th consecutive failure")
}

func TestJobSource_RecordSuccess_ResetsFailures(t *testing.T) {
	s := &JobSource{Status: SourceStatusActive, ConsecutiveFailures: 3}
	s.RecordSuccess(fixedNow())
	assert.Equal(t, 0, s.ConsecutiveFailures, "expected consecutive failures reset to 0")
}
