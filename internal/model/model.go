// Package model defines the value types that flow through the intent
// planning and execution pipeline: intents, conflicts, batches, plans,
// explain traces, action results, outcomes, and history records.
//
// Types here are value-like. Once a parser, planner, or executor
// constructs one, nothing downstream mutates it; a new value is built
// instead.
package model

// Intent is a single parsed, structured command: an action targeting an
// optional application, with parameters and parse provenance.
type Intent struct {
	ID            string      `json:"id"`
	ActionName    string      `json:"action_name"`
	TargetAppID   string      `json:"target_app_id,omitempty"`
	Params        interface{} `json:"params"`
	Confidence    float64     `json:"confidence"`
	SourceStart   int         `json:"source_start"`
	SourceEnd     int         `json:"source_end"`
	Explicit      bool        `json:"explicit"`
}

// ConflictDetection flags two or more intents that share the same
// (app, action) pair and therefore cannot safely run concurrently.
type ConflictDetection struct {
	ConflictKey string   `json:"conflict_key"`
	IntentIDs   []string `json:"intents"`
	Reason      string   `json:"reason"`
	Resolution  string   `json:"resolution"`
}

const (
	// ConflictReasonSameAppAction is the sole reason code the detector emits.
	ConflictReasonSameAppAction = "same-app-action-mutual-exclusion"
	// ConflictResolutionForceOrder is the sole resolution strategy: run
	// conflicting intents one per batch, in original order.
	ConflictResolutionForceOrder = "force-order"
)

// ExecutionBatch is a set of intents dispatched concurrently as a unit.
// Batches run sequentially with respect to each other.
type ExecutionBatch struct {
	BatchID string   `json:"batch_id"`
	Intents []Intent `json:"intents"`
}

// Strategy names the plan's concurrency posture.
type Strategy string

const (
	StrategySequential     Strategy = "sequential"
	StrategyParallelLimited Strategy = "parallel-limited"
)

// ExecutionPlan is an immutable, batched execution program derived from a
// set of intents under a concurrency bound.
type ExecutionPlan struct {
	PlanID         string              `json:"plan_id"`
	OriginalInput  string              `json:"original_input"`
	Intents        []Intent            `json:"intents"`
	Deduplicated   []Intent            `json:"deduplicated"`
	Batches        []ExecutionBatch    `json:"batches"`
	Conflicts      []ConflictDetection `json:"conflicts"`
	Strategy       Strategy            `json:"strategy"`
	GeneratedAt    int64               `json:"generated_at"`
	DryRun         bool                `json:"dry_run"`
	Explain        *ExplainPayload     `json:"explain,omitempty"`
	Signature      string              `json:"signature,omitempty"`
	CacheHit       *bool               `json:"cache_hit,omitempty"`
}

// MatchedRule records one parser rule firing, for explain traces.
type MatchedRule struct {
	RuleID   string  `json:"rule_id"`
	Weight   float64 `json:"weight"`
	IntentID string  `json:"intent_id,omitempty"`
}

// ExplainPayload is the optional, human-readable record of which parser
// rules produced which intents.
type ExplainPayload struct {
	Tokens       []string      `json:"tokens"`
	MatchedRules []MatchedRule `json:"matched_rules"`
}

// ActionStatus is the terminal state of one dispatched intent.
type ActionStatus string

const (
	StatusSuccess   ActionStatus = "success"
	StatusFailed    ActionStatus = "failed"
	StatusTimeout   ActionStatus = "timeout"
	StatusSimulated ActionStatus = "simulated"
	StatusSkipped   ActionStatus = "skipped"
)

// ActionResult is the outcome of dispatching a single intent.
type ActionResult struct {
	IntentID          string       `json:"intent_id"`
	Status            ActionStatus `json:"status"`
	Reason            string       `json:"reason,omitempty"`
	RetryHint         string       `json:"retry_hint,omitempty"`
	PredictedEffects  []string     `json:"predicted_effects,omitempty"`
	DurationMs        *int64       `json:"duration_ms,omitempty"`
	StartedAt         int64        `json:"started_at"`
	FinishedAt        *int64       `json:"finished_at,omitempty"`
}

// OverallStatus summarizes an ExecutionOutcome.
type OverallStatus string

const (
	OverallSuccess OverallStatus = "success"
	OverallPartial OverallStatus = "partial"
	OverallFailed  OverallStatus = "failed"
)

// ExecutionOutcome is the full result of executing (or simulating) a plan.
type ExecutionOutcome struct {
	Results       []ActionResult `json:"results"`
	OverallStatus OverallStatus  `json:"overall_status"`
}

// CommandHistoryRecord is a compact, retention-bounded record of one
// execution, keyed by the plan's content-addressed signature.
type CommandHistoryRecord struct {
	Signature      string        `json:"signature"`
	Input          string        `json:"input"`
	IntentsSummary []string      `json:"intents_summary"`
	OverallStatus  OverallStatus `json:"overall_status"`
	CreatedAt      int64         `json:"created_at"`
	PlanSize       int           `json:"plan_size"`
	ExplainUsed    bool          `json:"explain_used"`
}
