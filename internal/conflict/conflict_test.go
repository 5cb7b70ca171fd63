package conflict

import (
	"testing"

	"github.com/daqi-oss/intentd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mk(id, app, action string) model.Intent {
	return model.Intent{ID: id, TargetAppID: app, ActionName: action}
}

func TestDetectsConflictSameAppAction(t *testing.T) {
	a := mk("i1", "hosts", "switch")
	b := mk("i2", "hosts", "switch")
	conflicts := Detect([]model.Intent{a, b})
	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, "hosts::switch", c.ConflictKey)
	assert.Equal(t, model.ConflictResolutionForceOrder, c.Resolution)
	assert.ElementsMatch(t, []string{"i1", "i2"}, c.IntentIDs)
}

func TestNoConflictDifferentAction(t *testing.T) {
	a := mk("i1", "hosts", "switch")
	b := mk("i2", "hosts", "list")
	assert.Empty(t, Detect([]model.Intent{a, b}))
}

func TestAbsentAppUsesUnderscore(t *testing.T) {
	a := mk("i1", "", "ping")
	b := mk("i2", "", "ping")
	conflicts := Detect([]model.Intent{a, b})
	require.Len(t, conflicts, 1)
	assert.Equal(t, "_::ping", conflicts[0].ConflictKey)
}

func TestGroupOfThree(t *testing.T) {
	a := mk("i1", "hosts", "switch")
	b := mk("i2", "hosts", "switch")
	c := mk("i3", "hosts", "switch")
	conflicts := Detect([]model.Intent{a, b, c})
	require.Len(t, conflicts, 1)
	assert.Len(t, conflicts[0].IntentIDs, 3)
}
