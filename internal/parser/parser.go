// Package parser implements the deterministic, rule-based intent parser:
// an explicit `app:action(args)` syntax rule followed by a keyword
// fallback table, with an optional explain trace of which rule produced
// which intent.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/daqi-oss/intentd/internal/model"
	"github.com/daqi-oss/intentd/internal/obslog"
	"github.com/google/uuid"
)

// explicitPattern matches app:action(args) with args optionally empty.
// Compiled once at package init.
var explicitPattern = regexp.MustCompile(`([A-Za-z0-9_]+):([A-Za-z0-9_]+)\(([^)]*)\)`)

// keywordRule is one entry of the fixed keyword fallback table. Entries
// are tried in slice order, which is what makes keyword-intent ordering
// deterministic (the source this was distilled from iterated a hash map,
// which is not reproducible in Go).
type keywordRule struct {
	keyword string
	app     string
	action  string
}

var keywordTable = []keywordRule{
	{keyword: "hosts", app: "hosts", action: "switch"},
	{keyword: "剪贴板", app: "clipboard", action: "openHistory"},
}

// Options configures a single Parse call.
type Options struct {
	EnableExplain bool
}

// Result is the output of Parse: the ordered intents plus, when
// requested, the explain trace of which rule produced each one.
type Result struct {
	Intents []model.Intent
	Explain *model.ExplainPayload
}

// Parser is a pure, stateless rule-based intent parser. It holds no
// per-call state, so a single instance can be shared across concurrent
// façade requests.
type Parser struct {
	logger obslog.Logger
}

// New creates a Parser. logger may be nil.
func New(logger obslog.Logger) *Parser {
	if logger == nil {
		logger = obslog.NoOp{}
	}
	return &Parser{logger: logger}
}

// Parse turns a free-form command string into an ordered list of
// intents. Explicit app:action(args) matches are emitted first, in
// left-to-right match order; keyword-fallback intents follow, in
// keyword-table order, skipping any app already covered by an explicit
// match.
func (p *Parser) Parse(input string, opts Options) Result {
	var intents []model.Intent
	var tokens []string
	var rules []model.MatchedRule
	covered := map[string]bool{}

	for _, m := range explicitPattern.FindAllStringSubmatch(input, -1) {
		app, action, args := m[1], m[2], m[3]
		var params interface{}
		if args == "" {
			params = map[string]interface{}{}
		} else {
			params = map[string]interface{}{"arg": args}
		}
		intent := model.Intent{
			ID:          uuid.NewString(),
			ActionName:  action,
			TargetAppID: app,
			Params:      params,
			Confidence:  1.0,
			SourceStart: 0,
			SourceEnd:   len(input),
			Explicit:    true,
		}
		intents = append(intents, intent)
		covered[app] = true

		if opts.EnableExplain {
			tokens = append(tokens, fmt.Sprintf("explicit:%s:%s", app, action))
			rules = append(rules, model.MatchedRule{
				RuleID:   fmt.Sprintf("explicit:%s:%s", app, action),
				Weight:   1.0,
				IntentID: intent.ID,
			})
		}
	}

	for _, kw := range keywordTable {
		if !strings.Contains(input, kw.keyword) || covered[kw.app] {
			continue
		}
		intent := model.Intent{
			ID:          uuid.NewString(),
			ActionName:  kw.action,
			TargetAppID: kw.app,
			Params:      map[string]interface{}{},
			Confidence:  0.75,
			SourceStart: 0,
			SourceEnd:   len(input),
			Explicit:    false,
		}
		intents = append(intents, intent)

		if opts.EnableExplain {
			tokens = append(tokens, fmt.Sprintf("kw:%s->%s:%s", kw.keyword, kw.app, kw.action))
			rules = append(rules, model.MatchedRule{
				RuleID:   fmt.Sprintf("kw:%s", kw.keyword),
				Weight:   0.75,
				IntentID: intent.ID,
			})
		}
	}

	p.logger.Debug("parsed input", map[string]interface{}{
		"input_len":   len(input),
		"intents":     len(intents),
		"has_explain": opts.EnableExplain,
	})

	result := Result{Intents: intents}
	if opts.EnableExplain {
		result.Explain = &model.ExplainPayload{Tokens: tokens, MatchedRules: rules}
	}
	return result
}
