package signature

import (
	"testing"

	"github.com/daqi-oss/intentd/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestOrderInvariance(t *testing.T) {
	a := model.Intent{ActionName: "switch", TargetAppID: "app", Explicit: true,
		Params: map[string]interface{}{"group": "dev", "mode": "fast"}}
	b := model.Intent{ActionName: "open", TargetAppID: "app", Explicit: true,
		Params: map[string]interface{}{"view": "history"}}

	sig1 := Of([]model.Intent{a, b})
	sig2 := Of([]model.Intent{b, a})
	assert.Equal(t, sig1, sig2)
}

func TestParamObjectOrderInvariance(t *testing.T) {
	a1 := model.Intent{ActionName: "switch", TargetAppID: "app", Explicit: true,
		Params: map[string]interface{}{"a": float64(1), "b": float64(2)}}
	a2 := model.Intent{ActionName: "switch", TargetAppID: "app", Explicit: true,
		Params: map[string]interface{}{"b": float64(2), "a": float64(1)}}

	assert.Equal(t, Of([]model.Intent{a1}), Of([]model.Intent{a2}))
}

func TestExplicitFlagAffectsSignature(t *testing.T) {
	explicit := model.Intent{ActionName: "switch", TargetAppID: "app", Explicit: true, Params: map[string]interface{}{}}
	implicit := explicit
	implicit.Explicit = false
	assert.NotEqual(t, Of([]model.Intent{explicit}), Of([]model.Intent{implicit}))
}

func TestConfidenceAndIDInvariance(t *testing.T) {
	a := model.Intent{ID: "x1", ActionName: "switch", TargetAppID: "app", Confidence: 1.0, Explicit: true, Params: map[string]interface{}{}}
	b := model.Intent{ID: "x2", ActionName: "switch", TargetAppID: "app", Confidence: 0.4, Explicit: true, Params: map[string]interface{}{}}
	assert.Equal(t, Of([]model.Intent{a}), Of([]model.Intent{b}))
}

func TestAbsentAppUsesDash(t *testing.T) {
	withApp := model.Intent{ActionName: "switch", TargetAppID: "-", Explicit: true, Params: map[string]interface{}{}}
	without := model.Intent{ActionName: "switch", TargetAppID: "", Explicit: true, Params: map[string]interface{}{}}
	assert.Equal(t, Of([]model.Intent{withApp}), Of([]model.Intent{without}))
}
