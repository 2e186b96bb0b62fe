package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
)

// ClaudeAgent implements interfaces.Agent against Anthropic's API,
// grounded on services/llm/claude_service.go's client construction and
// message-conversion pattern, adapted from a generic chat service into
// a single-shot structured-extraction call per spec §4.5.
type ClaudeAgent struct {
	client  *anthropic.Client
	logger  arbor.ILogger
	timeout time.Duration
}

func NewClaudeAgent(apiKey string, timeout time.Duration, logger arbor.ILogger) (*ClaudeAgent, error) {
	if apiKey == "" {
		return nil, common.NewTypedError(common.ErrMissingConfig, fmt.Errorf("anthropic api key is required"))
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ClaudeAgent{client: client, logger: logger, timeout: timeout}, nil
}

func (a *ClaudeAgent) Provider() string { return "claude" }

func (a *ClaudeAgent) Run(ctx context.Context, req interfaces.AgentRequest, cfg models.AgentConfig) (*interfaces.AgentResponse, error) {
	system, err := systemPromptFor(req.TaskKind)
	if err != nil {
		return nil, err
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	first, usage, err := a.complete(ctx, cfg.Model, int64(maxTokens), system, userPromptFor(req))
	if err != nil {
		return nil, common.NewTypedError(common.ErrTransientNetwork, err)
	}

	resp, parseErr := parseResponse(req.TaskKind, first)
	if parseErr != nil {
		repaired, usage2, err := a.complete(ctx, cfg.Model, int64(maxTokens), system, repairPromptFor(first))
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

type tokenUsage struct {
	input  int
	output int
}

func (a *ClaudeAgent) complete(ctx context.Context, model string, maxTokens int64, system, user string) (string, tokenUsage, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		System: []anthropic.TextBlockParam{{Text: system}},
	}

	resp, err := a.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return "", tokenUsage{}, fmt.Errorf("claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", tokenUsage{}, fmt.Errorf("claude returned no text content")
	}

	usage := tokenUsage{input: int(resp.Usage.InputTokens), output: int(resp.Usage.OutputTokens)}
	return text.String(), usage, nil
}

func (a *ClaudeAgent) HealthCheck(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("claude client is not initialized")
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := a.complete(timeoutCtx, "claude-sonnet-4-20250514", 16, "Reply with OK.", "ping")
	return err
}

func (a *ClaudeAgent) Close() error {
	a.client = nil
	return nil
}

var _ interfaces.Agent = (*ClaudeAgent)(nil)
