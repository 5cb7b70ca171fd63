// Package conflict groups intents by (app, action) and flags any group of
// two or more as mutually exclusive, forcing them into sequential,
// single-intent batches downstream.
package conflict

import (
	"fmt"

	"github.com/daqi-oss/intentd/internal/model"
)

type key struct {
	app    string
	action string
}

// Detect groups intents by (target_app_id, action_name) and emits one
// ConflictDetection per group with two or more members. Groups are
// reported in the order their key first appears in intents, which keeps
// output deterministic regardless of Go's unordered map iteration.
func Detect(intents []model.Intent) []model.ConflictDetection {
	order := make([]key, 0)
	groups := make(map[key][]string)

	for _, in := range intents {
		k := key{app: in.TargetAppID, action: in.ActionName}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], in.ID)
	}

	var conflicts []model.ConflictDetection
	for _, k := range order {
		ids := groups[k]
		if len(ids) < 2 {
			continue
		}
		app := k.app
		if app == "" {
			app = "_"
		}
		conflicts = append(conflicts, model.ConflictDetection{
			ConflictKey: fmt.Sprintf("%s::%s", app, k.action),
			IntentIDs:   ids,
			Reason:      model.ConflictReasonSameAppAction,
			Resolution:  model.ConflictResolutionForceOrder,
		})
	}
	return conflicts
}
