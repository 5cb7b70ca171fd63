// Package facade exposes the intent pipeline as four request operations
// (parse_intent, dry_run, execute_plan, list_history), gating entry with
// input validation, acquiring plans by id or by parsing fresh input, and
// shaping every response — success or failure — uniformly.
package facade

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/daqi-oss/intentd/internal/concurrency"
	"github.com/daqi-oss/intentd/internal/executor"
	"github.com/daqi-oss/intentd/internal/history"
	"github.com/daqi-oss/intentd/internal/intenterr"
	"github.com/daqi-oss/intentd/internal/model"
	"github.com/daqi-oss/intentd/internal/obslog"
	"github.com/daqi-oss/intentd/internal/parser"
	"github.com/daqi-oss/intentd/internal/planner"
)

const (
	defaultExecuteTimeout = 2000 * time.Millisecond
	minExecuteTimeout     = 100 * time.Millisecond
	maxExecuteTimeout     = 30000 * time.Millisecond

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ParseIntentRequest is the parse_intent operation's input.
type ParseIntentRequest struct {
	Input   string
	Explain bool
}

// ParseResponse is parse_intent's success payload.
type ParseResponse struct {
	PlanID    string
	Strategy  model.Strategy
	Batches   int
	Conflicts int
	CacheHit  bool
	Signature string
	Explain   *model.ExplainPayload
}

// PlanRequest is the shared input shape for dry_run and execute_plan:
// exactly one of Input/PlanID must be set.
type PlanRequest struct {
	Input     string
	HasInput  bool
	PlanID    string
	HasPlanID bool
	TimeoutMs int64
}

// ActionView is one entry of an ExecResponse's actions list.
type ActionView struct {
	IntentID         string
	Status           model.ActionStatus
	Reason           string
	RetryHint        string
	PredictedEffects []string
	DurationMs       *int64
}

// ExecResponse is dry_run and execute_plan's shared success payload.
type ExecResponse struct {
	PlanID        string
	OverallStatus model.OverallStatus
	Actions       []ActionView
	Batches       int
	Conflicts     int
	CacheHit      bool
}

// ListHistoryRequest is list_history's input.
type ListHistoryRequest struct {
	Limit    int
	After    int64
	HasAfter bool
}

// HistoryItem is one entry of a HistoryPage.
type HistoryItem struct {
	Signature     string
	Input         string
	OverallStatus model.OverallStatus
	PlanSize      int
	ExplainUsed   bool
	CreatedAt     int64
	Intents       []string
}

// HistoryPage is list_history's success payload.
type HistoryPage struct {
	Items     []HistoryItem
	NextAfter *int64
}

// Facade wires the parser, planner, executor, plan cache, signature set,
// and history store into the four request operations.
type Facade struct {
	parser         *parser.Parser
	executor       *executor.Executor
	planCache      planner.Cache
	signatures     *planner.SignatureSet
	history        history.Store
	logger         obslog.Logger
	maxConcurrency int
}

// Option configures a Facade at construction time.
type Option func(*Facade)

// WithMaxConcurrency overrides the batch concurrency bound used for every
// plan built by this facade. Zero selects concurrency.Compute(runtime
// logical CPU count).
func WithMaxConcurrency(n int) Option {
	return func(f *Facade) {
		if n == 0 {
			n = concurrency.Compute(runtime.NumCPU())
		}
		f.maxConcurrency = n
	}
}

// WithPlanCacheTTL overrides the in-process plan cache's TTL.
func WithPlanCacheTTL(ttl time.Duration) Option {
	return func(f *Facade) { f.planCache = planner.NewPlanCache(ttl) }
}

// WithPlanCache replaces the plan cache backend entirely, e.g. with a
// planner.RedisCache for multi-process deployments.
func WithPlanCache(cache planner.Cache) Option {
	return func(f *Facade) { f.planCache = cache }
}

// New builds a Facade. dispatcher may be nil to use the built-in mock
// dispatcher; store and logger may be nil to use an in-memory store and a
// no-op logger respectively.
func New(dispatcher executor.Dispatcher, store history.Store, logger obslog.Logger, logicalCPUs int, opts ...Option) *Facade {
	if logger == nil {
		logger = obslog.NoOp{}
	}
	if store == nil {
		store = history.NewInMemoryStore(history.DefaultRetentionDays)
	}
	f := &Facade{
		parser:         parser.New(logger),
		executor:       executor.New(dispatcher, logger),
		planCache:      planner.NewPlanCache(planner.DefaultPlanCacheTTL),
		signatures:     planner.NewSignatureSet(),
		history:        store,
		logger:         logger,
		maxConcurrency: concurrency.Compute(logicalCPUs),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ParseIntent parses input into an execution plan, caches it, and
// returns a summary.
func (f *Facade) ParseIntent(ctx context.Context, req ParseIntentRequest) (*ParseResponse, error) {
	if isBlank(req.Input) {
		return nil, intenterr.Wrap("facade.ParseIntent", "input", intenterr.ErrInvalidInput)
	}

	result := f.parser.Parse(req.Input, parser.Options{EnableExplain: req.Explain})
	plan := planner.BuildWithCache(result.Intents, f.maxConcurrency, req.Input, f.signatures)
	if req.Explain {
		plan.Explain = result.Explain
	}
	f.planCache.Put(plan)

	return &ParseResponse{
		PlanID:    plan.PlanID,
		Strategy:  plan.Strategy,
		Batches:   len(plan.Batches),
		Conflicts: len(plan.Conflicts),
		CacheHit:  plan.CacheHit != nil && *plan.CacheHit,
		Signature: plan.Signature,
		Explain:   plan.Explain,
	}, nil
}

// DryRun resolves a plan (by input or by plan_id) and simulates it,
// recording a history entry.
func (f *Facade) DryRun(ctx context.Context, req PlanRequest) (*ExecResponse, error) {
	plan, err := f.acquirePlan(req.Input, req.HasInput, req.PlanID, req.HasPlanID, "facade.DryRun")
	if err != nil {
		return nil, err
	}

	outcome := f.executor.Execute(ctx, plan, executor.Options{Simulate: true})
	f.recordHistory(plan, outcome)

	return toExecResponse(plan, outcome), nil
}

// ExecutePlan resolves a plan (by input or by plan_id) and executes it
// for real under timeoutMs, recording a history entry.
func (f *Facade) ExecutePlan(ctx context.Context, req PlanRequest) (*ExecResponse, error) {
	timeout := defaultExecuteTimeout
	if req.TimeoutMs != 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
		if timeout < minExecuteTimeout || timeout > maxExecuteTimeout {
			return nil, intenterr.Wrap("facade.ExecutePlan", "input", intenterr.ErrInvalidInput)
		}
	}

	plan, err := f.acquirePlan(req.Input, req.HasInput, req.PlanID, req.HasPlanID, "facade.ExecutePlan")
	if err != nil {
		return nil, err
	}

	outcome := f.executor.Execute(ctx, plan, executor.Options{Timeout: timeout})
	f.recordHistory(plan, outcome)

	return toExecResponse(plan, outcome), nil
}

// ListHistory returns a reverse-chronological page of execution history.
func (f *Facade) ListHistory(ctx context.Context, req ListHistoryRequest) (*HistoryPage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := f.history.List(limit, req.After, req.HasAfter)
	if err != nil {
		return nil, intenterr.Wrap("facade.ListHistory", "lock", intenterr.ErrLockPoisoned)
	}

	items := make([]HistoryItem, len(records))
	for i, r := range records {
		items[i] = HistoryItem{
			Signature:     r.Signature,
			Input:         r.Input,
			OverallStatus: r.OverallStatus,
			PlanSize:      r.PlanSize,
			ExplainUsed:   r.ExplainUsed,
			CreatedAt:     r.CreatedAt,
			Intents:       r.IntentsSummary,
		}
	}

	var nextAfter *int64
	if len(records) == limit {
		cutoff := records[len(records)-1].CreatedAt
		nextAfter = &cutoff
	}

	return &HistoryPage{Items: items, NextAfter: nextAfter}, nil
}

// acquirePlan resolves a plan by exactly one of input or planID.
// Resolving by id purges expired cache entries first; a miss surfaces as
// PLAN_NOT_FOUND. Resolving by input parses and builds-with-cache, then
// inserts into the plan cache so a subsequent plan_id lookup succeeds.
func (f *Facade) acquirePlan(input string, hasInput bool, planID string, hasPlanID bool, op string) (model.ExecutionPlan, error) {
	if hasInput == hasPlanID {
		return model.ExecutionPlan{}, intenterr.Wrap(op, "input", intenterr.ErrInvalidInput)
	}

	if hasPlanID {
		plan, ok := f.planCache.Get(planID)
		if !ok {
			return model.ExecutionPlan{}, intenterr.Wrap(op, "plan", intenterr.ErrPlanNotFound).WithID(planID)
		}
		return plan, nil
	}

	if isBlank(input) {
		return model.ExecutionPlan{}, intenterr.Wrap(op, "input", intenterr.ErrInvalidInput)
	}

	result := f.parser.Parse(input, parser.Options{})
	plan := planner.BuildWithCache(result.Intents, f.maxConcurrency, input, f.signatures)
	f.planCache.Put(plan)
	return plan, nil
}

// recordHistory saves one CommandHistoryRecord per §4.J's field mapping.
// History write failures are logged, not propagated: per §7, execution
// responses are never turned into façade errors by a bookkeeping fault.
func (f *Facade) recordHistory(plan model.ExecutionPlan, outcome model.ExecutionOutcome) {
	summary := intentActionNames(plan.Deduplicated)
	if len(summary) == 0 {
		summary = intentActionNames(plan.Intents)
	}

	signature := plan.Signature
	if signature == "" {
		signature = plan.PlanID
	}

	record := model.CommandHistoryRecord{
		Signature:      signature,
		Input:          plan.OriginalInput,
		IntentsSummary: summary,
		OverallStatus:  outcome.OverallStatus,
		PlanSize:       len(plan.Deduplicated),
		ExplainUsed:    plan.Explain != nil,
	}
	if err := f.history.Save(record); err != nil {
		f.logger.Error("failed to save history record", map[string]interface{}{
			"plan_id": plan.PlanID,
			"error":   err.Error(),
		})
	}
}

func intentActionNames(intents []model.Intent) []string {
	if len(intents) == 0 {
		return nil
	}
	out := make([]string, len(intents))
	for i, in := range intents {
		out[i] = in.ActionName
	}
	return out
}

func toExecResponse(plan model.ExecutionPlan, outcome model.ExecutionOutcome) *ExecResponse {
	actions := make([]ActionView, len(outcome.Results))
	for i, r := range outcome.Results {
		actions[i] = ActionView{
			IntentID:         r.IntentID,
			Status:           r.Status,
			Reason:           r.Reason,
			RetryHint:        r.RetryHint,
			PredictedEffects: r.PredictedEffects,
			DurationMs:       r.DurationMs,
		}
	}
	return &ExecResponse{
		PlanID:        plan.PlanID,
		OverallStatus: outcome.OverallStatus,
		Actions:       actions,
		Batches:       len(plan.Batches),
		Conflicts:     len(plan.Conflicts),
		CacheHit:      plan.CacheHit != nil && *plan.CacheHit,
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
