package compat

import (
	"log/slog"

	"github.com/SourceScope/source-scope-mcp/internal/sqlang"
)

// Rule is the capability every adaptation rule shares. The set is closed:
// a rule is exactly one of TransformRule or GeneratorRule.
type Rule interface {
	Name() string
}

// TransformRule rewrites or drops individual elements.
type TransformRule interface {
	Rule
	// Apply returns the element to keep in place of el: el itself when the
	// rule's defect is absent, a modified clone, or nil to drop it.
	Apply(el sqlang.Element, rctx *RuleContext) (sqlang.Element, error)
}

// GeneratorRule synthesizes elements the raw extraction missed. It runs
// once per adaptation pass.
type GeneratorRule interface {
	Rule
	Generate(rctx *RuleContext) ([]sqlang.Element, error)
}

// RuleContext is what rules may consult: the full source text and a
// snapshot of the pipeline as of this rule's turn.
type RuleContext struct {
	Source   string
	elements []sqlang.Element
}

// Elements returns the pipeline snapshot.
func (rc *RuleContext) Elements() []sqlang.Element { return rc.elements }

// Has reports whether an element with this type and name is already in the
// pipeline.
func (rc *RuleContext) Has(t sqlang.ElementType, name string) bool {
	for _, el := range rc.elements {
		if el.Type() == t && el.Base().Name == name {
			return true
		}
	}
	return false
}

// Adapter runs an ordered rule pipeline over extraction output. Instances
// are immutable after construction and safe for concurrent use.
type Adapter struct {
	rules []Rule
}

// NewAdapter returns an adapter with every known rule in canonical order.
func NewAdapter() *Adapter {
	return &Adapter{rules: defaultRules()}
}

// NewAdapterForProfile returns an adapter running exactly the profile's
// enabled rules in the profile's order. Unknown rule ids are skipped with a
// warning. A nil profile gets the full default set.
func NewAdapterForProfile(p *Profile) *Adapter {
	if p == nil {
		return NewAdapter()
	}
	known := map[string]Rule{}
	for _, r := range defaultRules() {
		known[r.Name()] = r
	}
	rules := make([]Rule, 0, len(p.AdaptationRules))
	for _, id := range p.AdaptationRules {
		r, ok := known[id]
		if !ok {
			slog.Warn("adapter.unknown_rule", "rule", id, "platform", p.PlatformKey)
			continue
		}
		rules = append(rules, r)
	}
	return &Adapter{rules: rules}
}

// RuleNames returns the configured rule ids in run order.
func (a *Adapter) RuleNames() []string {
	names := make([]string, 0, len(a.rules))
	for _, r := range a.rules {
		names = append(names, r.Name())
	}
	return names
}

// AdaptElements runs the rule pipeline over a copy of els and returns the
// result. The input slice and its elements are never modified. Rules run in
// order: each transform sees the output of the rules before it, and
// generator output joins the pipeline only for the rules after it. A rule
// failure on an element logs and leaves that element as it entered the
// rule; adaptation itself never fails.
func (a *Adapter) AdaptElements(els []sqlang.Element, source string) []sqlang.Element {
	out := sqlang.CloneAll(els)
	if len(a.rules) == 0 {
		return out
	}

	slog.Debug("adapter.before", "elements", len(out), "rules", len(a.rules))
	for _, r := range a.rules {
		rctx := &RuleContext{Source: source, elements: out}
		switch r := r.(type) {
		case TransformRule:
			next := make([]sqlang.Element, 0, len(out))
			for _, el := range out {
				res, err := r.Apply(el, rctx)
				if err != nil {
					slog.Warn("adapter.rule_error", "rule", r.Name(), "element", el.Base().Name, "err", err)
					next = append(next, el)
					continue
				}
				if res == nil {
					slog.Debug("adapter.dropped", "rule", r.Name(), "element", el.Base().Name)
					continue
				}
				next = append(next, res)
			}
			out = next
		case GeneratorRule:
			gen, err := r.Generate(rctx)
			if err != nil {
				slog.Warn("adapter.rule_error", "rule", r.Name(), "err", err)
				continue
			}
			out = append(out, gen...)
		}
	}
	slog.Debug("adapter.after", "elements", len(out))
	return out
}
