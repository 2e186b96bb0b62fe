// Package ai implements the AI Agent Manager (spec §4.5): routes an AI
// task kind to a configured {provider, interface, model, budget} agent,
// and enforces per-call token/cost budget via interfaces.CounterStorage.
// The one JSON-repair retry is not done here: each Agent.Run
// implementation performs its own retry; the Manager's job is routing
// and budget, not prompting.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
)

// Manager routes AI task kinds to agents and enforces budgets.
type Manager struct {
	agents   map[string]interfaces.Agent // provider name -> agent
	settings models.AISettings
	counters interfaces.CounterStorage
	logger   arbor.ILogger
}

func NewManager(agents []interfaces.Agent, settings models.AISettings, counters interfaces.CounterStorage, logger arbor.ILogger) *Manager {
	byProvider := make(map[string]interfaces.Agent, len(agents))
	for _, a := range agents {
		byProvider[a.Provider()] = a
	}
	return &Manager{agents: byProvider, settings: settings, counters: counters, logger: logger}
}

// Run executes the AI Agent Manager's contract: run(task_kind,
// prompt_context) -> AIResult. taskID scopes the per-task cost budget
// counter.
func (m *Manager) Run(ctx context.Context, taskID string, req interfaces.AgentRequest) (*interfaces.AgentResponse, error) {
	cfg, ok := m.settings.AgentFor(req.TaskKind)
	if !ok {
		return nil, common.NewTypedError(common.ErrMissingConfig, fmt.Errorf("no agent configured for ai task kind %q", req.TaskKind))
	}

	agent, ok := m.agents[cfg.Provider]
	if !ok {
		return nil, common.NewTypedError(common.ErrMissingConfig, fmt.Errorf("no agent registered for provider %q (ai task kind %q)", cfg.Provider, req.TaskKind))
	}

	if exhausted, err := m.budgetExhausted(ctx, taskID, cfg); err != nil {
		return nil, err
	} else if exhausted {
		return nil, common.NewTypedError(common.ErrBudgetExhausted, fmt.Errorf("per-task AI budget exhausted for task %s (ai task kind %q)", taskID, req.TaskKind))
	}

	resp, err := agent.Run(ctx, req, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.MaxCostUSD > 0 && resp.CostUSD > cfg.MaxCostUSD {
		return nil, common.NewTypedError(common.ErrBudgetExhausted, fmt.Errorf("call cost $%.4f exceeds max_cost_usd $%.4f for task %s", resp.CostUSD, cfg.MaxCostUSD, taskID))
	}

	if m.counters != nil {
		day := time.Now().UTC().Format("2006-01-02")
		if _, err := m.counters.IncrementDaily(ctx, "ai_cost_task:"+taskID, day); err != nil {
			m.logger.Warn().Err(err).Str("task_id", taskID).Msg("failed to record AI budget counter")
		}
	}

	return resp, nil
}

// budgetExhausted is a pre-check: has this task already spent its
// per-task call allowance today? The counter increments once per Run
// call above, so its current value is the number of prior calls this
// task has already made.
func (m *Manager) budgetExhausted(ctx context.Context, taskID string, cfg models.AgentConfig) (bool, error) {
	if m.counters == nil || cfg.MaxCostUSD <= 0 {
		return false, nil
	}
	day := time.Now().UTC().Format("2006-01-02")
	count, err := m.counters.GetDaily(ctx, "ai_cost_task:"+taskID, day)
	if err != nil {
		return false, fmt.Errorf("read AI budget counter: %w", err)
	}
	// A conservative cap: no task kind needs more than a handful of AI
	// calls per run (one initial + one repair retry, times pipeline
	// stages); beyond that, treat the task as having exhausted its
	// budget rather than let a bug spin forever.
	const maxCallsPerTaskPerDay = 8
	return count >= maxCallsPerTaskPerDay, nil
}
