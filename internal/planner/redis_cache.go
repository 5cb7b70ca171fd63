package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-redis/redis/v8"

	"github.com/daqi-oss/intentd/internal/model"
)

const redisPlanKeyPrefix = "intentd:plan:"

// RedisCache is a Cache backed by Redis, for deployments running more
// than one intentd process behind the same plan_id space (e.g. an
// execute_plan request landing on a different instance than the
// parse_intent that produced its plan_id).
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies reachability with a
// retried PING before returning. A zero ttl selects DefaultPlanCacheTTL.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultPlanCacheTTL
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, client.Ping(ctx).Err()
	}, backoff.WithMaxTries(5), backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		return nil, fmt.Errorf("planner: connect to redis %s: %w", addr, err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Close releases the underlying Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Put stores plan under its plan_id with the cache's TTL. Marshal/Set
// failures are swallowed: a cache miss on the next Get degrades to a
// fresh parse_intent rather than blocking the caller.
func (c *RedisCache) Put(plan model.ExecutionPlan) {
	data, err := json.Marshal(plan)
	if err != nil {
		return
	}
	c.client.Set(context.Background(), redisPlanKeyPrefix+plan.PlanID, data, c.ttl)
}

// Get retrieves a cached plan by id. The bool return is false on a miss
// and on any deserialization failure.
func (c *RedisCache) Get(planID string) (model.ExecutionPlan, bool) {
	data, err := c.client.Get(context.Background(), redisPlanKeyPrefix+planID).Bytes()
	if err != nil {
		return model.ExecutionPlan{}, false
	}
	var plan model.ExecutionPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return model.ExecutionPlan{}, false
	}
	return plan, true
}
