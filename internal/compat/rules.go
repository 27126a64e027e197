package compat

import (
	"strings"

	"github.com/SourceScope/source-scope-mcp/internal/sqlang"
)

// Stable rule ids as stored in profiles.
const (
	RuleFixFunctionNameKeywords   = "fix_function_name_keywords"
	RuleFixTriggerNameDescription = "fix_trigger_name_description"
	RuleRemovePhantomTriggers     = "remove_phantom_triggers"
	RuleRecoverViewsFromErrors    = "recover_views_from_errors"
)

// defaultRules returns the full rule set in canonical order: name repairs
// first, removals next, generators last.
func defaultRules() []Rule {
	return []Rule{
		fixFunctionNameKeywords{},
		fixTriggerNameDescription{},
		removePhantomTriggers{},
		recoverViewsFromErrors{},
	}
}

// AllRuleNames returns every known rule id in canonical order.
func AllRuleNames() []string {
	rules := defaultRules()
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name())
	}
	return names
}

// fixFunctionNameKeywords repairs function and procedure elements whose
// name came through as a bare keyword token instead of the declared name.
// The real name is re-derived from the statement text.
type fixFunctionNameKeywords struct{}

func (fixFunctionNameKeywords) Name() string { return RuleFixFunctionNameKeywords }

func (fixFunctionNameKeywords) Apply(el sqlang.Element, _ *RuleContext) (sqlang.Element, error) {
	switch el.(type) {
	case *sqlang.Function, *sqlang.Procedure:
	default:
		return el, nil
	}
	base := el.Base()
	if !sqlang.IsBareKeyword(base.Name) {
		return el, nil
	}
	name := sqlang.RoutineNameFromText(base.RawText)
	if name == "" || name == base.Name {
		return el, nil
	}
	fixed := el.Clone()
	fixed.Base().Name = name
	return fixed, nil
}

// fixTriggerNameDescription repairs triggers misnamed "description" by a
// grammar that binds the wrong child as the name node.
type fixTriggerNameDescription struct{}

func (fixTriggerNameDescription) Name() string { return RuleFixTriggerNameDescription }

func (fixTriggerNameDescription) Apply(el sqlang.Element, _ *RuleContext) (sqlang.Element, error) {
	trg, ok := el.(*sqlang.Trigger)
	if !ok || trg.Name != "description" {
		return el, nil
	}
	name := sqlang.TriggerNameFromText(trg.RawText)
	if name == "" || name == trg.Name {
		return el, nil
	}
	fixed := trg.Clone()
	fixed.Base().Name = name
	return fixed, nil
}

// removePhantomTriggers drops trigger elements the grammar conjured out of
// text that declares no trigger. The check is the literal statement
// substring: a real trigger's raw text always carries it.
type removePhantomTriggers struct{}

func (removePhantomTriggers) Name() string { return RuleRemovePhantomTriggers }

func (removePhantomTriggers) Apply(el sqlang.Element, _ *RuleContext) (sqlang.Element, error) {
	trg, ok := el.(*sqlang.Trigger)
	if !ok {
		return el, nil
	}
	if strings.Contains(trg.RawText, "CREATE TRIGGER") {
		return el, nil
	}
	return nil, nil
}

// recoverViewsFromErrors resynthesizes view elements that parse errors
// swallowed, by scanning the source text for CREATE VIEW statements. Views
// already present in the pipeline are skipped, which keeps the rule
// idempotent and inert on healthy platforms.
type recoverViewsFromErrors struct{}

func (recoverViewsFromErrors) Name() string { return RuleRecoverViewsFromErrors }

func (recoverViewsFromErrors) Generate(rctx *RuleContext) ([]sqlang.Element, error) {
	var out []sqlang.Element
	seen := map[string]bool{}
	for _, stmt := range sqlang.FindViewStatements(rctx.Source) {
		if stmt.Name == "" || seen[stmt.Name] || rctx.Has(sqlang.TypeView, stmt.Name) {
			continue
		}
		seen[stmt.Name] = true
		out = append(out, &sqlang.View{ElementBase: sqlang.ElementBase{
			Name:      stmt.Name,
			StartLine: stmt.StartLine,
			EndLine:   stmt.EndLine,
			RawText:   stmt.RawText,
		}})
	}
	return out, nil
}
