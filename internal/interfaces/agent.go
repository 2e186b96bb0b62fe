package interfaces

import (
	"context"

	"github.com/jdubz/job-finder-worker/internal/models"
)

// AgentRequest is the input to an Agent.Run call: the raw text to work
// from plus the AI task kind, which selects the agent's prompt and JSON
// schema. TaskKind here is one of the models.AITask* values
// ("company_extraction", "job_extraction", "match_analysis", and
// models.AITaskSourceDiscovery for source selector discovery) - a
// distinct, smaller vocabulary than models.TaskKind (the dispatcher's
// queue-item kind), since one models.Task (e.g. a JobListing task)
// drives two different AI task kinds across its pipeline stages.
type AgentRequest struct {
	TaskKind string
	Input    string            // page text, job description, etc.
	Context  map[string]string // supplemental fields (company name, personal info summary, ...)
}

// AgentResponse wraps whichever of the typed result shapes the task kind
// produced, plus the token/cost accounting the budget enforcer needs.
type AgentResponse struct {
	ExtractionResult *models.ExtractionResult
	MatchResult      *models.MatchAnalysisResult
	RawJSON          string
	InputTokens      int
	OutputTokens     int
	CostUSD          float64
}

// Agent is implemented by ClaudeAgent and GeminiAgent (internal/ai). The
// AI Agent Manager routes a task to one of these by provider name from
// models.AgentConfig.Provider.
type Agent interface {
	// Run executes one extraction/analysis call and parses the model's
	// response into the typed result the task kind expects. Implementations
	// attempt exactly one JSON-repair retry on a malformed first response
	// before surfacing common.ErrParse.
	Run(ctx context.Context, req AgentRequest, cfg models.AgentConfig) (*AgentResponse, error)

	// HealthCheck verifies API connectivity/authentication.
	HealthCheck(ctx context.Context) error

	// Provider identifies this agent for AgentConfig.Provider routing ("claude", "gemini").
	Provider() string

	Close() error
}
