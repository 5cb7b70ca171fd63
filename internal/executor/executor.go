// Package executor dispatches an ExecutionPlan's batches sequentially,
// running every intent within a batch concurrently under an individual
// per-intent timeout, and derives an overall outcome from the collected
// per-action results.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/daqi-oss/intentd/internal/model"
	"github.com/daqi-oss/intentd/internal/obslog"
)

// Options configures one Execute call.
type Options struct {
	// Timeout is the per-intent deadline, measured from that intent's own
	// dispatch start. Ignored when Simulate is true.
	Timeout time.Duration
	// Simulate bypasses the dispatcher entirely and emits "simulated"
	// results with predicted effects instead.
	Simulate bool
}

// Executor runs plans against a Dispatcher.
type Executor struct {
	dispatcher Dispatcher
	logger     obslog.Logger
	now        func() time.Time
}

// New creates an Executor. A nil dispatcher defaults to MockDispatcher; a
// nil logger discards all output.
func New(dispatcher Dispatcher, logger obslog.Logger) *Executor {
	if dispatcher == nil {
		dispatcher = MockDispatcher{}
	}
	if logger == nil {
		logger = obslog.NoOp{}
	}
	return &Executor{dispatcher: dispatcher, logger: logger, now: time.Now}
}

// Execute runs plan's batches sequentially; batch k+1 starts only once
// every intent in batch k has resolved. Within a batch, intents dispatch
// concurrently. Results preserve per-batch dispatch order across
// batches.
func (e *Executor) Execute(ctx context.Context, plan model.ExecutionPlan, opts Options) model.ExecutionOutcome {
	var results []model.ActionResult

	for _, batch := range plan.Batches {
		batchResults := make([]model.ActionResult, len(batch.Intents))
		var wg sync.WaitGroup
		for i, intent := range batch.Intents {
			wg.Add(1)
			go func(i int, intent model.Intent) {
				defer wg.Done()
				batchResults[i] = e.dispatchOne(ctx, intent, opts)
			}(i, intent)
		}
		wg.Wait()
		results = append(results, batchResults...)
	}

	outcome := model.ExecutionOutcome{
		Results:       results,
		OverallStatus: deriveOverallStatus(results),
	}
	e.logger.InfoWithContext(ctx, "plan executed", map[string]interface{}{
		"plan_id":        plan.PlanID,
		"simulate":       opts.Simulate,
		"batches":        len(plan.Batches),
		"results":        len(results),
		"overall_status": string(outcome.OverallStatus),
	})
	return outcome
}

func (e *Executor) dispatchOne(ctx context.Context, intent model.Intent, opts Options) model.ActionResult {
	started := e.now().UnixMilli()

	if opts.Simulate {
		app := intent.TargetAppID
		return model.ActionResult{
			IntentID:         intent.ID,
			Status:           model.StatusSimulated,
			PredictedEffects: []string{app + ":" + intent.ActionName},
			DurationMs:       int64Ptr(0),
			StartedAt:        started,
			FinishedAt:       &started,
		}
	}

	actionCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- e.dispatcher.Dispatch(actionCtx, intent.ActionName)
	}()

	select {
	case <-actionCtx.Done():
		return model.ActionResult{
			IntentID:  intent.ID,
			Status:    model.StatusTimeout,
			Reason:    "timeout_ms exceeded",
			RetryHint: "increase-timeout",
			StartedAt: started,
		}
	case err := <-done:
		finished := e.now().UnixMilli()
		duration := finished - started
		if err != nil {
			return model.ActionResult{
				IntentID:   intent.ID,
				Status:     model.StatusFailed,
				Reason:     err.Error(),
				RetryHint:  "retry-later",
				DurationMs: &duration,
				StartedAt:  started,
				FinishedAt: &finished,
			}
		}
		return model.ActionResult{
			IntentID:   intent.ID,
			Status:     model.StatusSuccess,
			DurationMs: &duration,
			StartedAt:  started,
			FinishedAt: &finished,
		}
	}
}

// deriveOverallStatus applies: partial if any success and any failed/timeout;
// failed if any failed/timeout and neither success nor simulated; success
// otherwise (covers all-success, all-simulated, all-skipped, and empty
// plans).
func deriveOverallStatus(results []model.ActionResult) model.OverallStatus {
	var anySuccess, anyFailLike, anySimulated bool
	for _, r := range results {
		switch r.Status {
		case model.StatusSuccess:
			anySuccess = true
		case model.StatusFailed, model.StatusTimeout:
			anyFailLike = true
		case model.StatusSimulated:
			anySimulated = true
		}
	}
	switch {
	case anyFailLike && anySuccess:
		return model.OverallPartial
	case anyFailLike && !anySuccess && !anySimulated:
		return model.OverallFailed
	default:
		return model.OverallSuccess
	}
}

func int64Ptr(v int64) *int64 { return &v }
