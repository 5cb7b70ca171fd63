package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-redis/redis/v8"

	"github.com/daqi-oss/intentd/internal/model"
)

const (
	redisRecordKeyPrefix = "intentd:history:record:"
	redisIndexKey        = "intentd:history:index"
)

// RedisStore is a Redis-backed Store, for deployments that want history
// shared across multiple intentd processes instead of pinned to one
// host's filesystem. Records are stored as JSON strings keyed by
// signature; a sorted set indexed by created_at backs reverse-
// chronological pagination.
type RedisStore struct {
	client      *redis.Client
	retentionMs int64
}

// NewRedisStore connects to addr and verifies reachability with a
// retried PING before returning, so a transient connection hiccup at
// startup doesn't fail the whole process.
func NewRedisStore(ctx context.Context, addr string, retentionDays int) (*RedisStore, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, client.Ping(ctx).Err()
	}, backoff.WithMaxTries(5), backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		return nil, fmt.Errorf("history: connect to redis %s: %w", addr, err)
	}

	retentionMs := int64(retentionDays) * 24 * 60 * 60 * 1000
	return &RedisStore{client: client, retentionMs: retentionMs}, nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func recordKey(signature string) string {
	return redisRecordKeyPrefix + signature
}

// Save upserts record by signature and refreshes its position in the
// created_at index. Retention purge runs opportunistically, matching
// InMemoryStore/SQLiteStore.
func (s *RedisStore) Save(record model.CommandHistoryRecord) error {
	ctx := context.Background()
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().UnixMilli()
	}

	if _, err := s.PurgeOlderThan(record.CreatedAt - s.retentionMs); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("history: marshal record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(record.Signature), data, 0)
	pipe.ZAdd(ctx, redisIndexKey, &redis.Z{Score: float64(record.CreatedAt), Member: record.Signature})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("history: save record %q: %w", record.Signature, err)
	}
	return nil
}

// List returns up to limit records newest-first. When hasAfter is true,
// only records with created_at strictly before 'after' are returned, so
// the cursor walks towards older records. InMemoryStore and SQLiteStore
// read the cursor the other way and return records strictly after it.
func (s *RedisStore) List(limit int, after int64, hasAfter bool) ([]model.CommandHistoryRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	ctx := context.Background()

	max := "+inf"
	if hasAfter {
		max = fmt.Sprintf("(%d", after)
	}
	members, err := s.client.ZRevRangeByScore(ctx, redisIndexKey, &redis.ZRangeBy{
		Min:    "-inf",
		Max:    max,
		Offset: 0,
		Count:  int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("history: list index: %w", err)
	}

	out := make([]model.CommandHistoryRecord, 0, len(members))
	for _, sig := range members {
		data, err := s.client.Get(ctx, recordKey(sig)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("history: fetch record %q: %w", sig, err)
		}
		var record model.CommandHistoryRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("history: unmarshal record %q: %w", sig, err)
		}
		out = append(out, record)
	}
	return out, nil
}

// PurgeOlderThan removes every record with created_at < cutoffMs from
// both the index and its backing key.
func (s *RedisStore) PurgeOlderThan(cutoffMs int64) (int, error) {
	ctx := context.Background()
	stale, err := s.client.ZRangeByScore(ctx, redisIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%d", cutoffMs),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("history: find stale records: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	pipe := s.client.TxPipeline()
	for _, sig := range stale {
		pipe.Del(ctx, recordKey(sig))
	}
	pipe.ZRem(ctx, redisIndexKey, toInterfaceSlice(stale)...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("history: purge stale records: %w", err)
	}
	return len(stale), nil
}

func toInterfaceSlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
