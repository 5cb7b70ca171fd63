package planner

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daqi-oss/intentd/internal/model"
)

func TestRedisCachePutAndGet(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := NewRedisCache(context.Background(), mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer c.Close()

	plan := model.ExecutionPlan{PlanID: "p1", OriginalInput: "hosts:switch(dev)"}
	c.Put(plan)

	got, ok := c.Get("p1")
	require.True(t, ok)
	assert.Equal(t, plan.PlanID, got.PlanID)
	assert.Equal(t, plan.OriginalInput, got.OriginalInput)
}

func TestRedisCacheMissReturnsFalse(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := NewRedisCache(context.Background(), mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestRedisCacheExpiresByTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := NewRedisCache(context.Background(), mr.Addr(), time.Second)
	require.NoError(t, err)
	defer c.Close()

	c.Put(model.ExecutionPlan{PlanID: "p1"})
	mr.FastForward(2 * time.Second)

	_, ok := c.Get("p1")
	assert.False(t, ok)
}
