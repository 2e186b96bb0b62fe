package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// GeminiAgent implements interfaces.Agent against Gemini, grounded on
// services/llm/gemini_service.go's client construction and
// SystemInstruction usage, adapted into a single-shot structured call.
type GeminiAgent struct {
	client  *genai.Client
	logger  arbor.ILogger
	timeout time.Duration
}

func NewGeminiAgent(ctx context.Context, apiKey string, timeout time.Duration, logger arbor.ILogger) (*GeminiAgent, error) {
	if apiKey == "" {
		return nil, common.NewTypedError(common.ErrMissingConfig, fmt.Errorf("gemini api key is required"))
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return &GeminiAgent{client: client, logger: logger, timeout: timeout}, nil
}

func (a *GeminiAgent) Provider() string { return "gemini" }

func (a *GeminiAgent) Run(ctx context.Context, req interfaces.AgentRequest, cfg models.AgentConfig) (*interfaces.AgentResponse, error) {
	system, err := systemPromptFor(req.TaskKind)
	if err != nil {
		return nil, err
	}

	first, usage, err := a.complete(ctx, cfg.Model, system, userPromptFor(req))
	if err != nil {
		return nil, common.NewTypedError(common.ErrTransientNetwork, err)
	}

	resp, parseErr := parseResponse(req.TaskKind, first)
	if parseErr != nil {
		repaired, usage2, err := a.complete(ctx, cfg.Model, system, repairPromptFor(first))
		if err != nil {
			return nil, common.NewTypedError(common.ErrTransientNetwork, err)
		}
		usage.input += usage2.input
		usage.output += usage2.output

		resp, parseErr = parseResponse(req.TaskKind, repaired)
		if parseErr != nil {
			return nil, common.NewTypedError(common.ErrParse, parseErr)
		}
	}

	resp.InputTokens = usage.input
	resp.OutputTokens = usage.output
	resp.CostUSD = estimateCostUSD(cfg.Model, usage.input, usage.output)
	return resp, nil
}

func (a *GeminiAgent) complete(ctx context.Context, model, system, user string) (string, tokenUsage, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(
		timeoutCtx,
		model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		config,
	)
	if err != nil {
		return "", tokenUsage{}, fmt.Errorf("gemini API call failed: %w", err)
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
	}
	if text.Len() == 0 {
		return "", tokenUsage{}, fmt.Errorf("gemini returned no text content")
	}

	var usage tokenUsage
	if resp.UsageMetadata != nil {
		usage.input = int(resp.UsageMetadata.PromptTokenCount)
		usage.output = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return text.String(), usage, nil
}

func (a *GeminiAgent) HealthCheck(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := a.complete(timeoutCtx, "gemini-3-flash-preview", "Reply with OK.", "ping")
	return err
}

func (a *GeminiAgent) Close() error {
	a.client = nil
	return nil
}

var _ interfaces.Agent = (*GeminiAgent)(nil)
