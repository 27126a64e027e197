package compat

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/SourceScope/source-scope-mcp/internal/sqlang"
)

func mkTable(name string) *sqlang.Table {
	return &sqlang.Table{ElementBase: sqlang.ElementBase{
		Name: name, StartLine: 1, EndLine: 3,
		RawText: "CREATE TABLE " + name + " (id INTEGER);",
	}}
}

func mkView(name string) *sqlang.View {
	return &sqlang.View{ElementBase: sqlang.ElementBase{
		Name: name, StartLine: 1, EndLine: 2,
		RawText: "CREATE VIEW " + name + " AS SELECT 1;",
	}}
}

func mkFunction(name, raw string) *sqlang.Function {
	return &sqlang.Function{ElementBase: sqlang.ElementBase{
		Name: name, StartLine: 1, EndLine: 3, RawText: raw,
	}}
}

func mkProcedure(name, raw string) *sqlang.Procedure {
	return &sqlang.Procedure{ElementBase: sqlang.ElementBase{
		Name: name, StartLine: 1, EndLine: 3, RawText: raw,
	}}
}

func mkTrigger(name, raw string) *sqlang.Trigger {
	return &sqlang.Trigger{
		ElementBase: sqlang.ElementBase{Name: name, StartLine: 1, EndLine: 5, RawText: raw},
		TableName:   "accounts", Timing: "AFTER", Event: "INSERT",
	}
}

func sortedNames(els []sqlang.Element) []string {
	names := make([]string, 0, len(els))
	for _, el := range els {
		names = append(names, el.Base().Name)
	}
	sort.Strings(names)
	return names
}

// Synthetic rules for pipeline-semantics tests.

type suffixRule struct{ suffix string }

func (r suffixRule) Name() string { return "test_suffix" + r.suffix }
func (r suffixRule) Apply(el sqlang.Element, _ *RuleContext) (sqlang.Element, error) {
	c := el.Clone()
	c.Base().Name += r.suffix
	return c, nil
}

type failingRule struct{}

func (failingRule) Name() string { return "test_failing" }
func (failingRule) Apply(sqlang.Element, *RuleContext) (sqlang.Element, error) {
	return nil, fmt.Errorf("synthetic failure")
}

type dropAllRule struct{}

func (dropAllRule) Name() string { return "test_drop_all" }
func (dropAllRule) Apply(sqlang.Element, *RuleContext) (sqlang.Element, error) {
	return nil, nil
}

type emitViewRule struct{ name string }

func (r emitViewRule) Name() string { return "test_emit_view" }
func (r emitViewRule) Generate(*RuleContext) ([]sqlang.Element, error) {
	return []sqlang.Element{mkView(r.name)}, nil
}

func TestAdaptEmptyInput(t *testing.T) {
	out := NewAdapter().AdaptElements(nil, "")
	if out == nil {
		t.Fatal("adapted output must be a non-nil slice")
	}
	if len(out) != 0 {
		t.Fatalf("expected no elements, got %d", len(out))
	}
}

func TestAdaptNeverMutatesInput(t *testing.T) {
	input := []sqlang.Element{
		mkFunction("FUNCTION", "CREATE FUNCTION add_totals(a integer) RETURNS integer AS 'SELECT a' LANGUAGE SQL;"),
		mkTrigger("description", "CREATE TRIGGER audit_insert AFTER INSERT ON accounts BEGIN SELECT 1; END;"),
		mkTrigger("ghost", "-- legacy trigger definition removed"),
		mkTable("users"),
	}
	snapshot := sqlang.CloneAll(input)

	NewAdapter().AdaptElements(input, "CREATE VIEW v1 AS SELECT 1;")

	if !reflect.DeepEqual(input, snapshot) {
		t.Errorf("input mutated by adaptation:\n got %+v\nwant %+v", input, snapshot)
	}
}

func TestAdaptIdempotent(t *testing.T) {
	source := "CREATE VIEW active_users AS SELECT id FROM users;\nCREATE FUNCTION add_totals() RETURNS integer AS 'SELECT 1' LANGUAGE SQL;"
	input := []sqlang.Element{
		mkFunction("FUNCTION", "CREATE FUNCTION add_totals() RETURNS integer AS 'SELECT 1' LANGUAGE SQL;"),
		mkTrigger("description", "CREATE TRIGGER audit_insert AFTER INSERT ON accounts BEGIN SELECT 1; END;"),
		mkTrigger("ghost", "-- legacy trigger definition removed"),
	}

	a := NewAdapter()
	once := a.AdaptElements(input, source)
	twice := a.AdaptElements(once, source)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("adaptation not idempotent:\n once %v\n twice %v", sortedNames(once), sortedNames(twice))
	}
}

func TestGeneratedElementsSkipEarlierRules(t *testing.T) {
	a := &Adapter{rules: []Rule{
		suffixRule{"_a"},
		emitViewRule{"gen"},
		suffixRule{"_b"},
	}}
	out := a.AdaptElements([]sqlang.Element{mkTable("t")}, "")

	got := sortedNames(out)
	want := []string{"gen_b", "t_a_b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pipeline names = %v, want %v", got, want)
	}
}

func TestFailOpenKeepsElement(t *testing.T) {
	a := &Adapter{rules: []Rule{failingRule{}, suffixRule{"_x"}}}
	out := a.AdaptElements([]sqlang.Element{mkTable("t")}, "")

	if len(out) != 1 || out[0].Base().Name != "t_x" {
		t.Errorf("failing rule should pass the element through unchanged: %v", sortedNames(out))
	}
}

func TestNilResultDeletes(t *testing.T) {
	a := &Adapter{rules: []Rule{dropAllRule{}}}
	out := a.AdaptElements([]sqlang.Element{mkTable("t"), mkView("v")}, "")
	if len(out) != 0 {
		t.Errorf("expected all elements dropped, got %v", sortedNames(out))
	}
}

func TestNewAdapterForProfileSubset(t *testing.T) {
	p := NewProfile("macos-1.26")
	p.AdaptationRules = []string{RuleRemovePhantomTriggers, RuleFixTriggerNameDescription}

	a := NewAdapterForProfile(p)
	got := a.RuleNames()
	want := []string{RuleRemovePhantomTriggers, RuleFixTriggerNameDescription}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RuleNames = %v, want %v (profile order)", got, want)
	}
}

func TestNewAdapterForProfileUnknownRule(t *testing.T) {
	p := NewProfile("linux-1.26")
	p.AdaptationRules = []string{"no_such_rule", RuleRemovePhantomTriggers}

	a := NewAdapterForProfile(p)
	got := a.RuleNames()
	if !reflect.DeepEqual(got, []string{RuleRemovePhantomTriggers}) {
		t.Errorf("unknown rule not skipped: %v", got)
	}
}

func TestNewAdapterForProfileNil(t *testing.T) {
	a := NewAdapterForProfile(nil)
	if !reflect.DeepEqual(a.RuleNames(), AllRuleNames()) {
		t.Errorf("nil profile should get the full rule set, got %v", a.RuleNames())
	}
}

func TestEmptyRuleSetIsIdentity(t *testing.T) {
	p := NewProfile("linux-1.26")
	a := NewAdapterForProfile(p)

	input := []sqlang.Element{mkTrigger("ghost", "-- no trigger here")}
	out := a.AdaptElements(input, "CREATE VIEW v AS SELECT 1;")
	if len(out) != 1 || out[0].Base().Name != "ghost" {
		t.Errorf("empty rule set must not change elements: %v", sortedNames(out))
	}
}

func TestCanonicalRuleOrder(t *testing.T) {
	want := []string{
		RuleFixFunctionNameKeywords,
		RuleFixTriggerNameDescription,
		RuleRemovePhantomTriggers,
		RuleRecoverViewsFromErrors,
	}
	if !reflect.DeepEqual(AllRuleNames(), want) {
		t.Errorf("AllRuleNames = %v, want %v", AllRuleNames(), want)
	}
	if !reflect.DeepEqual(NewAdapter().RuleNames(), want) {
		t.Errorf("default adapter rules = %v, want %v", NewAdapter().RuleNames(), want)
	}
}
