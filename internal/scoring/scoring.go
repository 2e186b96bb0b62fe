// Package scoring implements the Scoring Engine (spec §4.3): a pure,
// deterministic score from job + company + personal info. Same shape as
// internal/filter - no I/O, table-driven tests, grounded on the
// teacher's small stateless-evaluator packages.
package scoring

import (
	"math"
	"strings"

	"github.com/jdubz/job-finder-worker/internal/models"
)

// Input is everything score() needs, assembled by the Job Listing
// Processor from the listing's extraction result, the company record,
// and the personal-info policy blob.
type Input struct {
	Seniority             string
	WorkArrangement       string // "remote", "hybrid", "onsite", ""
	CompanyTimezoneOffset float64
	HasTimezoneInfo       bool

	Technologies    []string
	YearsExperience map[string]float64 // skill -> years the listing implies/requires

	SalaryKnown  bool
	SalaryAmount int

	PostingAgeDays int // -1 if unknown

	CompanyAIMLFocus     bool
	CompanyIsRemoteFirst bool
	CompanySizeCategory  models.CompanySizeCategory
}

// Breakdown is score()'s return value (spec §4.3 ScoreBreakdown).
type Breakdown struct {
	FinalScore      int
	SkillMatch      int
	SeniorityMatch  int
	LocationScore   int
	CompanyScore    int
	FreshnessScore  int
	Passed          bool
	RejectionReason string
}

const negativeInfinity = math.MinInt32

// Score runs the Scoring Engine (spec §4.3 contract: score(job, company,
// personal_info, policy) -> ScoreBreakdown). Pure and deterministic: the
// same Input+MatchPolicy always yields the same Breakdown.
func Score(job Input, personal *models.PersonalInfo, policy *models.MatchPolicy) Breakdown {
	seniorityScore, rejected := seniorityFit(job.Seniority, policy)
	if rejected {
		return Breakdown{
			FinalScore:      negativeInfinity,
			SeniorityMatch:  negativeInfinity,
			Passed:          false,
			RejectionReason: "seniority",
		}
	}

	locationScore := locationFit(job, policy)
	skillScore := skillMatch(job, personal, policy) + roleFitBonus(job, personal, policy)
	freshnessScore := freshness(job.PostingAgeDays, policy)
	companyScore := companyBonus(job, policy) + salaryBonus(job, personal, policy)

	final := seniorityScore + locationScore + skillScore + freshnessScore + companyScore

	b := Breakdown{
		FinalScore:     final,
		SkillMatch:     skillScore,
		SeniorityMatch: seniorityScore,
		LocationScore:  locationScore,
		CompanyScore:   companyScore,
		FreshnessScore: freshnessScore,
	}

	minScore := policy.MinScore
	if policy.MinMatchScore > minScore {
		minScore = policy.MinMatchScore
	}
	b.Passed = final >= minScore
	if !b.Passed {
		b.RejectionReason = "below_min_score"
	}
	return b
}

func seniorityFit(seniority string, policy *models.MatchPolicy) (score int, rejected bool) {
	if seniority == "" {
		return 0, false
	}
	for _, bucket := range policy.SeniorityBuckets {
		if strings.EqualFold(bucket.Seniority, seniority) {
			if bucket.Rejected {
				return 0, true
			}
			return bucket.Score, false
		}
	}
	return 0, false
}

func locationFit(job Input, policy *models.MatchPolicy) int {
	if job.WorkArrangement == "remote" && policy.RemoteAllowed {
		return 0
	}
	if job.WorkArrangement == "hybrid" && !policy.HybridAllowed {
		return -1 * policy.MissingRequiredPenalty // treat disallowed hybrid like a missing-required skill penalty
	}
	if !job.HasTimezoneInfo || policy.MaxTimezoneDiffHours <= 0 {
		return 0
	}
	diff := math.Abs(job.CompanyTimezoneOffset)
	if diff <= policy.MaxTimezoneDiffHours {
		return 0
	}
	overage := diff - policy.MaxTimezoneDiffHours
	penalty := int(overage) * policy.TimezonePenaltyPerHour
	return -penalty
}

func skillMatch(job Input, personal *models.PersonalInfo, policy *models.MatchPolicy) int {
	if len(policy.SkillWeights) == 0 {
		return 0
	}

	have := make(map[string]bool, len(job.Technologies))
	for _, t := range job.Technologies {
		have[strings.ToLower(t)] = true
	}

	total := 0
	for _, weight := range policy.SkillWeights {
		skillKey := strings.ToLower(weight.Skill)
		matched := have[skillKey]

		if !matched && weight.AnalogGroup != "" {
			for _, t := range job.Technologies {
				if strings.EqualFold(sameAnalogGroup(t, weight.AnalogGroup), weight.AnalogGroup) {
					total += weight.BaseScore / 2 // partial credit for analog match
					matched = true
					break
				}
			}
		}

		if !matched {
			if weight.Required {
				total -= policy.MissingRequiredPenalty
			}
			continue
		}

		score := weight.BaseScore
		if personal != nil {
			years := personal.YearsExperience[weight.Skill]
			bonus := int(years * weight.YearsMultiplier)
			if bonus > policy.MaxYearsBonus && policy.MaxYearsBonus > 0 {
				bonus = policy.MaxYearsBonus
			}
			score += bonus
		}
		total += score
	}

	if policy.MaxBonus > 0 && total > policy.MaxBonus {
		total = policy.MaxBonus
	}
	if policy.MaxPenalty > 0 && total < -policy.MaxPenalty {
		total = -policy.MaxPenalty
	}
	return total
}

// sameAnalogGroup is a placeholder hook: in this deployment, analog
// groups are resolved by an external skill-taxonomy table the Scoring
// Engine doesn't own, so an exact-name match against the group's label
// is treated as membership. Swap for a real taxonomy lookup if one is
// introduced.
func sameAnalogGroup(tech string, group string) string {
	if strings.EqualFold(tech, group) {
		return group
	}
	return ""
}

func freshness(postingAgeDays int, policy *models.MatchPolicy) int {
	if postingAgeDays < 0 || policy.FreshnessWeight == 0 {
		return 0
	}
	switch {
	case postingAgeDays <= 1:
		return policy.FreshnessWeight
	case postingAgeDays <= 3:
		return policy.FreshnessWeight / 2
	default:
		return 0
	}
}

// salaryBonus rewards a listing whose disclosed salary clears the user's
// floor; unknown or below-floor salaries contribute nothing (the hard
// floor check itself lives in the Filter Engine, not here).
func salaryBonus(job Input, personal *models.PersonalInfo, policy *models.MatchPolicy) int {
	if policy.SalaryWeight == 0 || !job.SalaryKnown || personal == nil || personal.MinSalary <= 0 {
		return 0
	}
	if job.SalaryAmount >= personal.MinSalary {
		return policy.SalaryWeight
	}
	return 0
}

// roleFitBonus rewards a listing whose technologies overlap with the
// user's preferred-seniority-independent skill list beyond what
// skillMatch's weighted per-skill scoring already covers - a coarse
// "does this role look like what I do" signal.
func roleFitBonus(job Input, personal *models.PersonalInfo, policy *models.MatchPolicy) int {
	if policy.RoleFitWeight == 0 || personal == nil || len(personal.Skills) == 0 {
		return 0
	}
	have := make(map[string]bool, len(job.Technologies))
	for _, t := range job.Technologies {
		have[strings.ToLower(t)] = true
	}
	matches := 0
	for _, skill := range personal.Skills {
		if have[strings.ToLower(skill)] {
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	if matches > len(personal.Skills) {
		matches = len(personal.Skills)
	}
	return (policy.RoleFitWeight * matches) / len(personal.Skills)
}

func companyBonus(job Input, policy *models.MatchPolicy) int {
	if policy.CompanyBonusWeight == 0 {
		return 0
	}
	bonus := 0
	if job.CompanyAIMLFocus {
		bonus += policy.CompanyBonusWeight
	}
	if job.CompanyIsRemoteFirst {
		bonus += policy.CompanyBonusWeight / 2
	}
	return bonus
}
