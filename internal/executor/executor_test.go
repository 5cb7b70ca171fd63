package executor

import (
	"context"
	"testing"
	"time"

	"github.com/daqi-oss/intentd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simplePlan(intents []model.Intent) model.ExecutionPlan {
	var batches []model.ExecutionBatch
	for _, in := range intents {
		batches = append(batches, model.ExecutionBatch{BatchID: in.ID + "-batch", Intents: []model.Intent{in}})
	}
	return model.ExecutionPlan{
		PlanID:       "p",
		Intents:      intents,
		Deduplicated: intents,
		Batches:      batches,
		Strategy:     model.StrategySequential,
	}
}

func mkIntent(id, app, action string) model.Intent {
	return model.Intent{ID: id, TargetAppID: app, ActionName: action}
}

func TestTimeoutSingleAction(t *testing.T) {
	e := New(nil, nil)
	plan := simplePlan([]model.Intent{mkIntent("i1", "test", "hang")})
	outcome := e.Execute(context.Background(), plan, Options{Timeout: 100 * time.Millisecond})
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, model.StatusTimeout, outcome.Results[0].Status)
	assert.Nil(t, outcome.Results[0].DurationMs)
	assert.Nil(t, outcome.Results[0].FinishedAt)
	assert.Equal(t, model.OverallFailed, outcome.OverallStatus)
}

func TestMixFastAndHang(t *testing.T) {
	e := New(nil, nil)
	plan := simplePlan([]model.Intent{mkIntent("i1", "test", "act"), mkIntent("i2", "test", "hang")})
	outcome := e.Execute(context.Background(), plan, Options{Timeout: 100 * time.Millisecond})
	require.Len(t, outcome.Results, 2)
	statuses := []model.ActionStatus{outcome.Results[0].Status, outcome.Results[1].Status}
	assert.Contains(t, statuses, model.StatusSuccess)
	assert.Contains(t, statuses, model.StatusTimeout)
	assert.Equal(t, model.OverallPartial, outcome.OverallStatus)
}

func TestFailedAction(t *testing.T) {
	e := New(nil, nil)
	plan := simplePlan([]model.Intent{mkIntent("i1", "test", "fail")})
	outcome := e.Execute(context.Background(), plan, Options{Timeout: 500 * time.Millisecond})
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, model.StatusFailed, outcome.Results[0].Status)
	assert.Equal(t, "fail-simulated", outcome.Results[0].Reason)
	assert.Equal(t, "retry-later", outcome.Results[0].RetryHint)
	require.NotNil(t, outcome.Results[0].DurationMs)
	assert.Equal(t, model.OverallFailed, outcome.OverallStatus)
}

func TestSimulateModeAllSimulated(t *testing.T) {
	e := New(nil, nil)
	plan := simplePlan([]model.Intent{mkIntent("i1", "test", "act"), mkIntent("i2", "test", "fail")})
	outcome := e.Execute(context.Background(), plan, Options{Timeout: 10 * time.Millisecond, Simulate: true})
	for _, r := range outcome.Results {
		assert.Equal(t, model.StatusSimulated, r.Status)
		require.NotEmpty(t, r.PredictedEffects)
		require.NotNil(t, r.DurationMs)
		assert.Equal(t, int64(0), *r.DurationMs)
	}
	assert.Equal(t, model.OverallSuccess, outcome.OverallStatus)
}

func TestEmptyPlan(t *testing.T) {
	e := New(nil, nil)
	outcome := e.Execute(context.Background(), simplePlan(nil), Options{Timeout: time.Second})
	assert.Empty(t, outcome.Results)
	assert.Equal(t, model.OverallSuccess, outcome.OverallStatus)
}

func TestZeroTimeoutAllTimeout(t *testing.T) {
	e := New(nil, nil)
	plan := simplePlan([]model.Intent{mkIntent("i1", "test", "act"), mkIntent("i2", "test", "hang")})
	outcome := e.Execute(context.Background(), plan, Options{Timeout: 0})
	for _, r := range outcome.Results {
		assert.Equal(t, model.StatusTimeout, r.Status)
	}
	assert.Equal(t, model.OverallFailed, outcome.OverallStatus)
}

func TestDryRunParityStructure(t *testing.T) {
	e := New(nil, nil)
	plan := simplePlan([]model.Intent{mkIntent("i1", "test", "act"), mkIntent("i2", "test", "act")})
	simulated := e.Execute(context.Background(), plan, Options{Timeout: 10 * time.Millisecond, Simulate: true})
	executed := e.Execute(context.Background(), plan, Options{Timeout: 200 * time.Millisecond})
	require.Len(t, simulated.Results, len(executed.Results))
	for i := range simulated.Results {
		assert.Equal(t, simulated.Results[i].IntentID, executed.Results[i].IntentID)
		assert.Equal(t, model.StatusSimulated, simulated.Results[i].Status)
	}
	assert.Equal(t, model.OverallSuccess, simulated.OverallStatus)
}

func TestResultOrderPreservedAcrossBatches(t *testing.T) {
	e := New(nil, nil)
	intents := []model.Intent{mkIntent("i1", "a", "act"), mkIntent("i2", "a", "act"), mkIntent("i3", "a", "act")}
	plan := simplePlan(intents)
	outcome := e.Execute(context.Background(), plan, Options{Timeout: time.Second})
	require.Len(t, outcome.Results, 3)
	for i, r := range outcome.Results {
		assert.Equal(t, intents[i].ID, r.IntentID)
	}
}
