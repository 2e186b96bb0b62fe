package models

import "time"

// Priority is the AI match-analysis agent's recommendation strength.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// MatchAnalysisResult is the match_analysis AI agent's structured
// output (spec §4.5/§4.9 stage 6), persisted into JobMatch on success.
type MatchAnalysisResult struct {
	Reasoning     string   `json:"reasoning"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	Priority      Priority `json:"priority"`
	MatchScore    int      `json:"match_score"`
}

// JobMatch is a terminal persisted match: a listing that passed
// deterministic scoring and AI match analysis.
type JobMatch struct {
	ID            string    `json:"id"`
	JobListingID  string    `json:"job_listing_id"`
	CompanyID     string    `json:"company_id"`
	MatchScore    int       `json:"match_score"`
	Reasoning     string    `json:"reasoning"`
	MatchedSkills []string  `json:"matched_skills"`
	MissingSkills []string  `json:"missing_skills"`
	Priority      Priority  `json:"priority"`
	CreatedAt     time.Time `json:"created_at"`
}
