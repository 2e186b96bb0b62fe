package models

import "time"

// CompanySizeCategory buckets employee_count for scoring/location heuristics.
type CompanySizeCategory string

const (
	CompanySizeSmall  CompanySizeCategory = "small"
	CompanySizeMedium CompanySizeCategory = "medium"
	CompanySizeLarge  CompanySizeCategory = "large"
)

// AnalysisStatus tracks a Company record through the single-pass
// Company Processor.
type AnalysisStatus string

const (
	AnalysisStatusPending   AnalysisStatus = "pending"
	AnalysisStatusAnalyzing AnalysisStatus = "analyzing"
	AnalysisStatusActive    AnalysisStatus = "active"
	AnalysisStatusFailed    AnalysisStatus = "failed"
)

// companyTransitions enumerates the legal Company.analysis_status edges.
var companyTransitions = map[AnalysisStatus]map[AnalysisStatus]bool{
	AnalysisStatusPending: {
		AnalysisStatusAnalyzing: true,
	},
	AnalysisStatusAnalyzing: {
		AnalysisStatusActive: true,
		AnalysisStatusFailed: true,
	},
	AnalysisStatusActive: {
		AnalysisStatusAnalyzing: true, // re-analysis
	},
	AnalysisStatusFailed: {
		AnalysisStatusPending: true, // manual retry
	},
}

// CanTransitionCompany reports whether moving a Company from `from` to
// `to` is a legal state-machine edge.
func CanTransitionCompany(from, to AnalysisStatus) bool {
	return companyTransitions[from][to]
}

// Company is keyed by ID; looked up for dedup by NormalizedName, the
// output of common.NormalizeCompanyName(Name).
type Company struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	NormalizedName       string              `json:"normalized_name"`
	Website              string              `json:"website,omitempty"`
	About                string              `json:"about,omitempty"`
	Culture              string              `json:"culture,omitempty"`
	Mission              string              `json:"mission,omitempty"`
	Industry             string              `json:"industry,omitempty"`
	Founded              string              `json:"founded,omitempty"`
	HeadquartersLocation string              `json:"headquarters_location,omitempty"`
	EmployeeCount        int                 `json:"employee_count,omitempty"`
	CompanySizeCategory  CompanySizeCategory `json:"company_size_category,omitempty"`
	IsRemoteFirst        bool                `json:"is_remote_first"`
	AIMLFocus            bool                `json:"ai_ml_focus"`
	TimezoneOffset       float64             `json:"timezone_offset,omitempty"`
	Products             []string            `json:"products,omitempty"`
	TechStack            []string            `json:"tech_stack,omitempty"`
	AnalysisStatus       AnalysisStatus      `json:"analysis_status"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// HasGoodData implements the §3 quality predicate used to decide
// whether a job-listing task may stop waiting on this company.
func (c *Company) HasGoodData() bool {
	return len(c.About) > 100 && len(c.Culture) > 50
}

// HasMinimalData implements the weaker §3 quality predicate. The
// job-listing pipeline does not call it: once MAX_COMPANY_WAIT_RETRIES
// is reached the listing proceeds with whatever data exists, without
// checking this predicate.
func (c *Company) HasMinimalData() bool {
	return len(c.About) > 50 || len(c.Culture) > 25
}

// SizeCategoryFromEmployeeCount derives CompanySizeCategory from a raw
// employee count using the thresholds worker-settings configures
// (small < 200, medium < 2000, large otherwise by default).
func SizeCategoryFromEmployeeCount(employeeCount, smallMax, mediumMax int) CompanySizeCategory {
	if smallMax <= 0 {
		smallMax = 200
	}
	if mediumMax <= 0 {
		mediumMax = 2000
	}
	switch {
	case employeeCount <= 0:
		return ""
	case employeeCount < smallMax:
		return CompanySizeSmall
	case employeeCount < mediumMax:
		return CompanySizeMedium
	default:
		return CompanySizeLarge
	}
}
