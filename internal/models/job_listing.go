package models

import "time"

// ListingStatus tracks a JobListing through the Job Listing Processor.
type ListingStatus string

const (
	ListingStatusPending   ListingStatus = "pending"
	ListingStatusAnalyzing ListingStatus = "analyzing"
	ListingStatusAnalyzed  ListingStatus = "analyzed"
	ListingStatusSkipped   ListingStatus = "skipped"
	ListingStatusMatched   ListingStatus = "matched"
)

// NormalizedJob is the normalized shape the Generic Scraper returns
// for every source kind (api/rss/html), before it becomes a JobListing.
type NormalizedJob struct {
	Title       string `json:"title"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	PostedDate  string `json:"posted_date,omitempty"` // ISO-8601
	Salary      string `json:"salary,omitempty"`
}

// ExtractionResult is the job_extraction AI agent's structured output
// (spec §4.5/§4.9 stage 4).
type ExtractionResult struct {
	Seniority       string   `json:"seniority,omitempty"`
	Technologies    []string `json:"technologies,omitempty"`
	WorkArrangement string   `json:"work_arrangement,omitempty"`
	PostedDate      string   `json:"posted_date,omitempty"`
	UpdatedDate     string   `json:"updated_date,omitempty"`
}

// ScoringResult is the persisted Scoring Engine output for a listing
// (spec §4.3), stored alongside the listing whether or not it passed.
type ScoringResult struct {
	FinalScore      int    `json:"final_score"`
	SkillMatch      int    `json:"skill_match"`
	SeniorityMatch  int    `json:"seniority_match"`
	LocationScore   int    `json:"location_score"`
	CompanyScore    int    `json:"company_score"`
	FreshnessScore  int    `json:"freshness_score"`
	Passed          bool   `json:"passed"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// JobListing is a scraped posting.
type JobListing struct {
	ID               string            `json:"id"`
	SourceID         string            `json:"source_id"`
	CompanyID        string            `json:"company_id,omitempty"`
	URL              string            `json:"url"` // normalized; unique per spec §3 invariant
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	Location         string            `json:"location,omitempty"`
	PostedDate       string            `json:"posted_date,omitempty"`
	SalaryRange      string            `json:"salary_range,omitempty"`
	Status           ListingStatus     `json:"status"`
	ExtractionResult *ExtractionResult `json:"extraction_result,omitempty"`
	ScoringResult    *ScoringResult    `json:"scoring_result,omitempty"`
	MatchScore       int               `json:"match_score,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}
