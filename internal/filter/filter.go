// Package filter implements the Filter Engine (spec §4.2): a stateless
// evaluator combining hard prefilter rejections and a strike-based soft
// filter. evaluate_job is pure - no I/O, no storage handle - grounded on
// the teacher's pattern of small, dependency-free, table-driven
// evaluator packages (see internal/services/validation for the same
// shape applied to TOML config).
package filter

import (
	"net/url"
	"strings"

	"github.com/jdubz/job-finder-worker/internal/models"
)

// HardRejectionKind names which hard-rejection rule fired, in the
// deterministic order they are checked (spec §4.2 "Ordering").
type HardRejectionKind string

const (
	RejectJobType         HardRejectionKind = "job_type"
	RejectSeniority       HardRejectionKind = "seniority"
	RejectCompany         HardRejectionKind = "company"
	RejectKeyword         HardRejectionKind = "keyword"
	RejectDomain          HardRejectionKind = "domain"
	RejectPostingAge      HardRejectionKind = "posting_age"
	RejectWorkArrangement HardRejectionKind = "work_arrangement"
	RejectSalary          HardRejectionKind = "salary"
)

// Input is everything evaluate_job needs about one candidate job. It is
// deliberately a flat struct rather than models.JobListing/ExtractionResult
// directly, since the source processor calls this with only scrape-time
// fields populated (no AI extraction yet) while the job-listing pipeline
// calls it again post-extraction with the full set.
type Input struct {
	Title       string
	URL         string
	Company     string
	Description string

	JobType         string // optional; populated after extraction
	Seniority       string // optional; populated after extraction
	WorkArrangement string // "remote", "hybrid", "onsite", ""; from extraction

	PostingAgeDays  int // -1 if unknown
	SalaryKnown     bool
	SalaryAmount    int // annualized, single figure; 0 if unknown
	ExperienceYears float64
	ExperienceKnown bool
	Technologies    []string // extracted technologies present in the posting
}

// Verdict is evaluate_job's return value.
type Verdict struct {
	Passed        bool
	HardRejection HardRejectionKind // empty if Passed or soft-filtered
	Strikes       int
	Reasons       []string
}

// Evaluate runs the Filter Engine against one job (spec §4.2 contract:
// evaluate_job(job, policy) -> Verdict). Hard rejections are checked
// first, in policy list order; the first match wins and strikes are not
// computed. Otherwise strikes accumulate and total_strikes >=
// strike_threshold marks the job Filtered.
func Evaluate(job Input, policy *models.PrefilterPolicy) Verdict {
	if kind, reason := hardReject(job, policy); kind != "" {
		return Verdict{Passed: false, HardRejection: kind, Reasons: []string{reason}}
	}

	strikes, reasons := accumulateStrikes(job, policy)
	threshold := policy.StrikeThreshold
	if threshold <= 0 {
		threshold = 5
	}
	if strikes >= threshold {
		return Verdict{Passed: false, Strikes: strikes, Reasons: reasons}
	}
	return Verdict{Passed: true, Strikes: strikes, Reasons: reasons}
}

func hardReject(job Input, policy *models.PrefilterPolicy) (HardRejectionKind, string) {
	if job.JobType != "" && containsFold(policy.ExcludedJobTypes, job.JobType) {
		return RejectJobType, "job type " + job.JobType + " is excluded"
	}
	if job.Seniority != "" && containsFold(policy.ExcludedSeniorities, job.Seniority) {
		return RejectSeniority, "seniority " + job.Seniority + " is excluded"
	}
	if job.Company != "" && containsFold(policy.ExcludedCompanies, job.Company) {
		return RejectCompany, "company " + job.Company + " is excluded"
	}
	haystack := strings.ToLower(job.Title + " " + job.URL)
	for _, kw := range policy.ExcludedKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return RejectKeyword, "excluded keyword " + kw + " found in title/url"
		}
	}
	if host := hostOf(job.URL); host != "" {
		for _, domain := range policy.ExcludedDomains {
			if domain == "" {
				continue
			}
			d := strings.ToLower(domain)
			if host == d || strings.HasSuffix(host, "."+d) {
				return RejectDomain, "domain " + host + " is excluded"
			}
		}
	}
	rejectDays := policy.RejectDays
	if rejectDays <= 0 {
		rejectDays = 7
	}
	if job.PostingAgeDays >= 0 && job.PostingAgeDays > rejectDays {
		return RejectPostingAge, "posting age exceeds reject_days"
	}
	if job.WorkArrangement != "" && isWorkArrangementMismatch(job.WorkArrangement, policy) {
		return RejectWorkArrangement, "work arrangement " + job.WorkArrangement + " is not allowed"
	}
	if job.SalaryKnown && policy.MinSalaryFloor > 0 && job.SalaryAmount < policy.MinSalaryFloor {
		return RejectSalary, "salary below min_salary_floor"
	}
	return "", ""
}

// isWorkArrangementMismatch is decided from the same remote/hybrid
// allowance flags the Scoring Engine uses (match-policy), but the
// Filter Engine only has prefilter-policy available, so a mismatch here
// is limited to an explicit exclusion list rather than match-policy's
// richer timezone scoring. An onsite-only posting hard-rejects here only
// when the operator lists its arrangement (e.g. "onsite") in
// ExcludedKeywords; any finer nuance is left to scoring.
func isWorkArrangementMismatch(arrangement string, policy *models.PrefilterPolicy) bool {
	return containsFold(policy.ExcludedKeywords, arrangement) // e.g. an operator excludes "onsite" via keywords
}

func accumulateStrikes(job Input, policy *models.PrefilterPolicy) (int, []string) {
	strikes := 0
	var reasons []string

	add := func(n int, reason string) {
		if n <= 0 {
			return
		}
		strikes += n
		reasons = append(reasons, reason)
	}

	if !job.SalaryKnown || (policy.MinSalaryFloor > 0 && job.SalaryAmount > 0 && job.SalaryAmount < policy.MinSalaryFloor) {
		add(strikeOrDefault(policy.LowSalaryStrikes, 1), "low or missing salary")
	}
	if job.ExperienceKnown && policy.MinDescriptionLength > 0 && job.ExperienceYears < 1 {
		add(strikeOrDefault(policy.LowExperienceStrikes, 1), "low experience requirement")
	}
	if job.Seniority != "" && !isIdealSeniority(job.Seniority, policy) {
		add(strikeOrDefault(policy.NonIdealSeniorityStrikes, 1), "non-ideal seniority")
	}
	if len(policy.RequiredTechnologies) > 0 && !hasAnyTech(job.Technologies, policy.RequiredTechnologies) {
		add(strikeOrDefault(policy.MissingTechStrikes, 1), "missing required technology")
	}
	minLen := policy.MinDescriptionLength
	if minLen <= 0 {
		minLen = 100
	}
	if len(job.Description) < minLen {
		add(strikeOrDefault(policy.ShortDescriptionStrikes, 1), "very short description")
	}
	if job.PostingAgeDays >= 1 {
		add(strikeOrDefault(policy.StaleDayStrikes, 1), "posting age >= 1 day")
	}

	return strikes, reasons
}

// isIdealSeniority treats a seniority as non-ideal soft-issue unless it
// is explicitly listed (and not flagged rejected - rejected seniorities
// are caught by the hard-reject path already, via excluded_seniorities).
// When match-policy's seniority_buckets list isn't consulted here (the
// Filter Engine only sees prefilter-policy), any seniority not in
// excluded_seniorities is treated as acceptable, so this always returns
// true unless overridden by a future policy field. Kept as a named hook
// so the strike can be wired to match-policy's buckets if that becomes
// necessary without changing the Evaluate signature.
func isIdealSeniority(seniority string, policy *models.PrefilterPolicy) bool {
	return !containsFold(policy.ExcludedSeniorities, seniority)
}

func hasAnyTech(have []string, required []string) bool {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[strings.ToLower(h)] = true
	}
	for _, r := range required {
		if set[strings.ToLower(r)] {
			return true
		}
	}
	return false
}

func strikeOrDefault(configured int, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// FromListing builds filter Input from a NormalizedJob at scrape-time
// (no extraction yet) - used by the Source Processor's prefilter-only
// call (spec §4.8 ScrapeSource).
func FromListing(job models.NormalizedJob, postingAgeDays int) Input {
	return Input{
		Title:          job.Title,
		URL:            job.URL,
		Company:        job.Company,
		Description:    job.Description,
		PostingAgeDays: postingAgeDays,
		SalaryKnown:    job.Salary != "",
	}
}

// FromExtraction builds filter Input from a persisted JobListing plus its
// AI extraction result - used by the Job Listing Processor's full
// evaluate_job call (spec §4.9 stage 5 runs scoring; the prefilter has
// already run at stage/ScrapeSource time, but extraction may reveal a
// hard-reject condition the scrape-time call couldn't see, e.g. seniority).
func FromExtraction(listing *models.JobListing, extraction *models.ExtractionResult, postingAgeDays int, salaryKnown bool, salaryAmount int) Input {
	in := Input{
		Title:          listing.Title,
		URL:            listing.URL,
		Description:    listing.Description,
		PostingAgeDays: postingAgeDays,
		SalaryKnown:    salaryKnown,
		SalaryAmount:   salaryAmount,
	}
	if extraction != nil {
		in.Seniority = extraction.Seniority
		in.WorkArrangement = extraction.WorkArrangement
		in.Technologies = extraction.Technologies
	}
	return in
}
