package ai

import (
	"fmt"
	"strings"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
)

// systemPromptFor returns the system prompt for an AI task kind,
// instructing the model to return exactly one JSON object matching the
// schema the corresponding parse* function expects. Kept centralized
// here (rather than scattered per-call) per spec §9 "centralize retries/
// prompting", even though prompts themselves are simple single strings.
func systemPromptFor(taskKind string) (string, error) {
	switch taskKind {
	case models.AITaskCompanyExtraction:
		return companyExtractionSystemPrompt, nil
	case models.AITaskJobExtraction:
		return jobExtractionSystemPrompt, nil
	case models.AITaskMatchAnalysis:
		return matchAnalysisSystemPrompt, nil
	case models.AITaskSourceDiscovery:
		return sourceDiscoverySystemPrompt, nil
	default:
		return "", fmt.Errorf("unknown ai task kind %q", taskKind)
	}
}

const companyExtractionSystemPrompt = `You are extracting company facts for a job-search tool. Given search results, a Wikipedia summary, and/or a sampled web page, respond with exactly one JSON object and nothing else:
{
  "about": string,
  "culture": string,
  "mission": string,
  "industry": string,
  "founded": string,
  "headquarters_location": string,
  "employee_count": integer,
  "is_remote_first": boolean,
  "ai_ml_focus": boolean,
  "products": [string],
  "tech_stack": [string]
}
Leave a field as an empty string, 0, false, or empty array when the source material does not support it. Do not invent facts.`

const jobExtractionSystemPrompt = `You are extracting structured facts from a raw job posting. Respond with exactly one JSON object and nothing else:
{
  "seniority": string,
  "technologies": [string],
  "work_arrangement": string,
  "posted_date": string,
  "updated_date": string
}
"work_arrangement" must be one of "remote", "hybrid", "onsite", or "" if unknown. Dates must be ISO-8601 or empty string.`

const matchAnalysisSystemPrompt = `You are assessing whether a job posting is a good match for a candidate, given a deterministic score breakdown the scoring engine already computed. Respond with exactly one JSON object and nothing else:
{
  "reasoning": string,
  "matched_skills": [string],
  "missing_skills": [string],
  "priority": string,
  "match_score": integer
}
"priority" must be one of "high", "medium", "low".`

const sourceDiscoverySystemPrompt = `You are inspecting a careers page's sampled HTML/markdown to find CSS selectors for a job listing scraper. Respond with exactly one JSON object and nothing else:
{
  "job_selector": string,
  "title_selector": string,
  "url_selector": string,
  "location_selector": string,
  "description_selector": string,
  "posted_date_selector": string,
  "confidence": string
}
Each selector field may use the "css-selector@attribute" syntax (e.g. "a.job-link@href") when the value comes from an attribute rather than text content. "job_selector" identifies the repeating container for one job listing. "confidence" must be one of "high", "medium", "low" reflecting how certain you are the selectors are correct. Leave a selector empty if none is identifiable.`

// userPromptFor renders the request's Input and Context into the user
// message, keeping the template dumb (key: value lines) since the
// system prompt carries all schema/behavior instructions.
func userPromptFor(req interfaces.AgentRequest) string {
	var b strings.Builder
	for k, v := range req.Context {
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	b.WriteString("\n---\n\n")
	b.WriteString(req.Input)
	return b.String()
}

// repairPromptFor wraps the first (malformed) response in a repair
// instruction, per spec §4.5 "retries once with a repair prompt".
func repairPromptFor(firstResponse string) string {
	return "Your previous response could not be parsed as the required JSON object. Here is what you returned:\n\n" +
		firstResponse +
		"\n\nRespond again with ONLY the JSON object, no markdown fences, no commentary."
}
