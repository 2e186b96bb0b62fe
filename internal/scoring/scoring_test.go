package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdubz/job-finder-worker/internal/models"
)

func basicMatchPolicy() *models.MatchPolicy {
	return &models.MatchPolicy{
		MinScore:      10,
		MinMatchScore: 10,
		UserTimezone:  "UTC",
		SeniorityBuckets: []models.SeniorityBucket{
			{Seniority: "senior", Score: 20},
			{Seniority: "junior", Rejected: true},
		},
		RemoteAllowed: true,
		SkillWeights: []models.SkillWeight{
			{Skill: "go", BaseScore: 10, Required: true, YearsMultiplier: 1},
		},
		MaxYearsBonus:          10,
		MissingRequiredPenalty: 15,
	}
}

func TestScore_RejectedSeniority_NegativeInfinity(t *testing.T) {
	policy := basicMatchPolicy()
	b := Score(Input{Seniority: "junior"}, &models.PersonalInfo{}, policy)
	require.False(t, b.Passed, "expected rejected seniority to fail, got %+v", b)
	assert.Equal(t, "seniority", b.RejectionReason)
}

func TestScore_PassingCandidate(t *testing.T) {
	policy := basicMatchPolicy()
	personal := &models.PersonalInfo{
		YearsExperience: map[string]float64{"go": 5},
	}
	b := Score(Input{
		Seniority:       "senior",
		WorkArrangement: "remote",
		Technologies:    []string{"go"},
		PostingAgeDays:  0,
	}, personal, policy)

	require.True(t, b.Passed, "expected candidate to pass, got %+v", b)
	assert.Equal(t, 20, b.SeniorityMatch)
	assert.Greater(t, b.SkillMatch, 0, "expected positive skill match for matched required skill")
}

func TestScore_MissingRequiredSkill_Penalized(t *testing.T) {
	policy := basicMatchPolicy()
	b := Score(Input{Seniority: "senior", Technologies: []string{"python"}}, &models.PersonalInfo{}, policy)
	assert.Less(t, b.SkillMatch, 0, "expected negative skill match for missing required skill")
}

func TestScore_IsPureAndDeterministic(t *testing.T) {
	policy := basicMatchPolicy()
	personal := &models.PersonalInfo{YearsExperience: map[string]float64{"go": 3}}
	job := Input{Seniority: "senior", Technologies: []string{"go"}, WorkArrangement: "remote"}

	first := Score(job, personal, policy)
	second := Score(job, personal, policy)
	assert.Equal(t, first, second, "score must be pure")
}

func TestScore_TimezonePenalty(t *testing.T) {
	policy := basicMatchPolicy()
	policy.MaxTimezoneDiffHours = 3
	policy.TimezonePenaltyPerHour = 2

	b := Score(Input{
		Seniority:             "senior",
		HasTimezoneInfo:       true,
		CompanyTimezoneOffset: 8,
	}, &models.PersonalInfo{}, policy)

	assert.Less(t, b.LocationScore, 0, "expected negative location score for large timezone diff")
}
