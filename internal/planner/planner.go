// Package planner builds execution plans from parsed intents: it
// deduplicates, detects conflicts, partitions intents into conflict and
// normal groups, windows normal intents into concurrency-bounded
// batches, and (in the cache-aware variant) stamps a content-addressed
// signature and consults a signature set for cache-hit detection.
package planner

import (
	"encoding/json"
	"time"

	"github.com/daqi-oss/intentd/internal/conflict"
	"github.com/daqi-oss/intentd/internal/model"
	"github.com/daqi-oss/intentd/internal/signature"
	"github.com/google/uuid"
)

// Build constructs an ExecutionPlan from intents under maxConcurrency.
// The returned plan has no Signature/CacheHit set; use BuildWithCache for
// that.
func Build(intents []model.Intent, maxConcurrency int, originalInput string) model.ExecutionPlan {
	allIntents := append([]model.Intent(nil), intents...)

	deduped := dedup(allIntents)
	conflicts := conflict.Detect(allIntents)

	conflictIDs := map[string]bool{}
	for _, c := range conflicts {
		for _, id := range c.IntentIDs {
			conflictIDs[id] = true
		}
	}

	var conflictIntents, normalIntents []model.Intent
	for _, in := range allIntents {
		if conflictIDs[in.ID] {
			conflictIntents = append(conflictIntents, in)
		} else {
			normalIntents = append(normalIntents, in)
		}
	}

	var batches []model.ExecutionBatch
	for _, in := range conflictIntents {
		batches = append(batches, model.ExecutionBatch{
			BatchID: uuid.NewString(),
			Intents: []model.Intent{in},
		})
	}

	if maxConcurrency == 0 {
		for _, in := range normalIntents {
			batches = append(batches, model.ExecutionBatch{
				BatchID: uuid.NewString(),
				Intents: []model.Intent{in},
			})
		}
	} else {
		var window []model.Intent
		for _, in := range normalIntents {
			window = append(window, in)
			if len(window) == maxConcurrency {
				batches = append(batches, model.ExecutionBatch{BatchID: uuid.NewString(), Intents: window})
				window = nil
			}
		}
		if len(window) > 0 {
			batches = append(batches, model.ExecutionBatch{BatchID: uuid.NewString(), Intents: window})
		}
	}

	hasParallelBatch := false
	for _, b := range batches {
		if len(b.Intents) > 1 {
			hasParallelBatch = true
			break
		}
	}
	strategy := model.StrategySequential
	if maxConcurrency > 1 && hasParallelBatch {
		strategy = model.StrategyParallelLimited
	}

	return model.ExecutionPlan{
		PlanID:        uuid.NewString(),
		OriginalInput: originalInput,
		Intents:       allIntents,
		Deduplicated:  deduped,
		Batches:       batches,
		Conflicts:     conflicts,
		Strategy:      strategy,
		GeneratedAt:   time.Now().UnixMilli(),
		DryRun:        false,
	}
}

// dedup performs an order-preserving, first-occurrence dedup keyed on
// (target_app_id, action_name, json-serialized params). Go's
// encoding/json always emits object keys in sorted order, so this key is
// already structural-order-invariant for object params; see DESIGN.md
// for the resulting relationship between dedup and signature equivalence
// classes.
func dedup(intents []model.Intent) []model.Intent {
	seen := map[string]bool{}
	var out []model.Intent
	for _, in := range intents {
		app := in.TargetAppID
		if app == "" {
			app = "_"
		}
		paramsJSON, err := json.Marshal(in.Params)
		if err != nil {
			paramsJSON = []byte("null")
		}
		key := app + "|" + in.ActionName + "|" + string(paramsJSON)
		if !seen[key] {
			seen[key] = true
			out = append(out, in)
		}
	}
	return out
}

// BuildWithCache builds a plan, computes its signature over Deduplicated,
// and consults cache to set CacheHit, inserting the signature if absent.
func BuildWithCache(intents []model.Intent, maxConcurrency int, originalInput string, cache *SignatureSet) model.ExecutionPlan {
	plan := Build(intents, maxConcurrency, originalInput)
	sig := signature.Of(plan.Deduplicated)
	hit := cache.ContainsOrAdd(sig)
	plan.Signature = sig
	plan.CacheHit = &hit
	return plan
}
