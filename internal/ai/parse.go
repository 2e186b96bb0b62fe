package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
)

// stripFences removes a leading/trailing ```json ... ``` or ``` ... ```
// fence some models wrap JSON in despite instructions not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// CompanyExtraction is the company_extraction agent's decoded shape,
// exported so the Company Processor can read typed fields back out of
// AgentResponse.RawJSON via CompanyExtractionFields.
type CompanyExtraction struct {
	About                string   `json:"about"`
	Culture              string   `json:"culture"`
	Mission              string   `json:"mission"`
	Industry             string   `json:"industry"`
	Founded              string   `json:"founded"`
	HeadquartersLocation string   `json:"headquarters_location"`
	EmployeeCount        int      `json:"employee_count"`
	IsRemoteFirst        bool     `json:"is_remote_first"`
	AIMLFocus            bool     `json:"ai_ml_focus"`
	Products             []string `json:"products"`
	TechStack            []string `json:"tech_stack"`
}

// SourceDiscoveryFields is the source_discovery agent's decoded shape:
// candidate CSS selectors for an html JobSource, plus the model's own
// confidence rating (spec §4.8's AI-driven selector discovery path).
type SourceDiscoveryFields struct {
	JobSelector         string `json:"job_selector"`
	TitleSelector       string `json:"title_selector"`
	URLSelector         string `json:"url_selector"`
	LocationSelector    string `json:"location_selector"`
	DescriptionSelector string `json:"description_selector"`
	PostedDateSelector  string `json:"posted_date_selector"`
	Confidence          string `json:"confidence"`
}

type jobExtractionJSON struct {
	Seniority       string   `json:"seniority"`
	Technologies    []string `json:"technologies"`
	WorkArrangement string   `json:"work_arrangement"`
	PostedDate      string   `json:"posted_date"`
	UpdatedDate     string   `json:"updated_date"`
}

type matchAnalysisJSON struct {
	Reasoning     string   `json:"reasoning"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	Priority      string   `json:"priority"`
	MatchScore    int      `json:"match_score"`
}

// parseResponse decodes raw into the typed result the taskKind expects,
// filling resp.ExtractionResult/MatchResult. A JSON decode or shape
// failure returns a common.TypedError{Kind: ErrParse} so the caller can
// trigger the one-shot repair retry (spec §4.5).
func parseResponse(taskKind string, raw string) (*interfaces.AgentResponse, error) {
	cleaned := stripFences(raw)

	switch taskKind {
	case models.AITaskCompanyExtraction:
		// Company facts (about/culture/products/tech_stack/...) have no
		// analog in models.ExtractionResult (that shape is job-listing
		// specific); the Company Processor reads them back out of
		// RawJSON via CompanyExtractionFields. Still validate the shape
		// here so a malformed response triggers the repair retry.
		if _, err := CompanyExtractionFields(cleaned); err != nil {
			return nil, fmt.Errorf("company_extraction: %w", err)
		}
		return &interfaces.AgentResponse{RawJSON: cleaned}, nil

	case models.AITaskJobExtraction:
		var out jobExtractionJSON
		if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
			return nil, common.NewTypedError(common.ErrParse, fmt.Errorf("job_extraction: %w", err))
		}
		return &interfaces.AgentResponse{
			RawJSON: cleaned,
			ExtractionResult: &models.ExtractionResult{
				Seniority:       out.Seniority,
				Technologies:    out.Technologies,
				WorkArrangement: out.WorkArrangement,
				PostedDate:      out.PostedDate,
				UpdatedDate:     out.UpdatedDate,
			},
		}, nil

	case models.AITaskMatchAnalysis:
		var out matchAnalysisJSON
		if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
			return nil, common.NewTypedError(common.ErrParse, fmt.Errorf("match_analysis: %w", err))
		}
		priority := models.Priority(strings.ToLower(out.Priority))
		return &interfaces.AgentResponse{
			RawJSON: cleaned,
			MatchResult: &models.MatchAnalysisResult{
				Reasoning:     out.Reasoning,
				MatchedSkills: out.MatchedSkills,
				MissingSkills: out.MissingSkills,
				Priority:      priority,
				MatchScore:    out.MatchScore,
			},
		}, nil

	case models.AITaskSourceDiscovery:
		if _, err := SourceDiscoveryResult(cleaned); err != nil {
			return nil, fmt.Errorf("source_discovery: %w", err)
		}
		return &interfaces.AgentResponse{RawJSON: cleaned}, nil

	default:
		return nil, fmt.Errorf("unknown ai task kind %q", taskKind)
	}
}

// SourceDiscoveryResult decodes the source_discovery agent's raw JSON
// into typed selector fields, mirroring CompanyExtractionFields - the
// generic ExtractionResult/MatchAnalysisResult shapes don't cover
// selector discovery, so the Source Processor reads RawJSON directly.
func SourceDiscoveryResult(rawJSON string) (SourceDiscoveryFields, error) {
	var out SourceDiscoveryFields
	if err := json.Unmarshal([]byte(stripFences(rawJSON)), &out); err != nil {
		return out, common.NewTypedError(common.ErrParse, err)
	}
	return out, nil
}

// CompanyExtractionFields surfaces the raw decoded company fields (the
// generic ExtractionResult shape only covers job listings) for the
// Company Processor's merge step, which needs about/culture/etc.
// directly rather than through models.ExtractionResult.
func CompanyExtractionFields(rawJSON string) (CompanyExtraction, error) {
	var out CompanyExtraction
	if err := json.Unmarshal([]byte(stripFences(rawJSON)), &out); err != nil {
		return out, common.NewTypedError(common.ErrParse, err)
	}
	return out, nil
}
