// Package signature computes the content-addressed, order-invariant
// identity of a set of deduplicated intents. Two inputs that parse to the
// same set of (action, app, canonical params, explicit) tuples hash to
// the same signature regardless of intent order, id, confidence, or
// object-key ordering inside params.
package signature

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/daqi-oss/intentd/internal/model"
	"github.com/zeebo/blake3"
)

// Of returns the hex-encoded BLAKE3 digest of the sorted, canonicalized
// representation of intents. Callers normally pass plan.Deduplicated.
func Of(intents []model.Intent) string {
	parts := make([]string, 0, len(intents))
	for _, in := range intents {
		parts = append(parts, canon(in))
	}
	sort.Strings(parts)

	h := blake3.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func canon(in model.Intent) string {
	app := in.TargetAppID
	if app == "" {
		app = "-"
	}
	base := fmt.Sprintf("%s|%s|%s", in.ActionName, app, CanonicalParams(in.Params))
	if in.Explicit {
		base += "|E"
	}
	return base
}

// CanonicalParams renders an arbitrary JSON-like value (object, array,
// string, number, bool, or nil) into a structural-order-invariant string:
// object keys are sorted, arrays keep their element order, scalars render
// as their plain textual form.
func CanonicalParams(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return canonicalObject(val)
	case json.RawMessage:
		var decoded interface{}
		if err := json.Unmarshal(val, &decoded); err != nil {
			return string(val)
		}
		return CanonicalParams(decoded)
	case []interface{}:
		items := make([]string, len(val))
		for i, elem := range val {
			items[i] = CanonicalParams(elem)
		}
		return "[" + strings.Join(items, ",") + "]"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		var decoded interface{}
		if err := json.Unmarshal(data, &decoded); err == nil {
			return CanonicalParams(decoded)
		}
		return string(data)
	}
}

func canonicalObject(m map[string]interface{}) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]string, len(keys))
	for i, k := range keys {
		entries[i] = fmt.Sprintf("%s=%s", k, CanonicalParams(m[k]))
	}
	return strings.Join(entries, ";")
}

// formatNumber renders a float64 the way a decoded JSON number should
// look in canonical text: integral values drop their trailing ".0".
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
