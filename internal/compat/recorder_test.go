package compat

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/SourceScope/source-scope-mcp/internal/fixtures"
	"github.com/SourceScope/source-scope-mcp/internal/sqlang"
)

func fixtureBySource(t *testing.T, source []byte) fixtures.Fixture {
	t.Helper()
	for _, fx := range fixtures.All() {
		if fx.Source == string(source) {
			return fx
		}
	}
	t.Fatalf("no fixture matches source %q", source)
	return fixtures.Fixture{}
}

// healthyExtract fakes a platform whose grammar extracts every fixture
// correctly.
func healthyExtract(t *testing.T) func([]byte) ([]sqlang.Element, *sqlang.ExtractInfo, error) {
	t.Helper()
	return func(source []byte) ([]sqlang.Element, *sqlang.ExtractInfo, error) {
		fx := fixtureBySource(t, source)
		info := &sqlang.ExtractInfo{RootKind: "program", NodeCount: 12}
		var els []sqlang.Element
		switch fx.ID {
		case "comment_trigger_mention":
			// A comment yields no elements on a healthy platform.
		case "statement_mix":
			els = []sqlang.Element{
				mkTable("events"),
				mkView("recent_events"),
				&sqlang.Index{ElementBase: sqlang.ElementBase{Name: "idx_events_at", StartLine: 9, EndLine: 9, RawText: "CREATE INDEX idx_events_at ON events (at);"}, TableName: "events"},
			}
		default:
			switch fx.Construct {
			case sqlang.TypeTable:
				els = []sqlang.Element{mkTable("users")}
			case sqlang.TypeView:
				els = []sqlang.Element{mkView("active_users")}
			case sqlang.TypeFunction:
				els = []sqlang.Element{mkFunction("add_totals", fx.Source)}
			case sqlang.TypeProcedure:
				els = []sqlang.Element{mkProcedure("sync_rows", fx.Source)}
			case sqlang.TypeTrigger:
				els = []sqlang.Element{mkTrigger("audit_insert", fx.Source)}
			case sqlang.TypeIndex:
				els = []sqlang.Element{&sqlang.Index{ElementBase: sqlang.ElementBase{Name: "idx_users_email", StartLine: 1, EndLine: 1, RawText: fx.Source}, TableName: "users"}}
			}
		}
		return els, info, nil
	}
}

func TestRecordAllCoversCatalogue(t *testing.T) {
	r := &Recorder{extract: healthyExtract(t), fixtures: fixtures.All}

	p, err := r.RecordAll()
	if err != nil {
		t.Fatalf("RecordAll: %v", err)
	}
	if p.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", p.SchemaVersion, SchemaVersion)
	}
	if want := Detect().Key; p.PlatformKey != want {
		t.Errorf("PlatformKey = %q, want %q", p.PlatformKey, want)
	}
	if len(p.Behaviors) != len(fixtures.All()) {
		t.Fatalf("recorded %d behaviors, want %d", len(p.Behaviors), len(fixtures.All()))
	}
	for _, fx := range fixtures.All() {
		b, ok := p.Behaviors[fx.ID]
		if !ok {
			t.Errorf("fixture %q missing from profile", fx.ID)
			continue
		}
		if b.ConstructID != fx.ID {
			t.Errorf("behavior %q carries construct id %q", fx.ID, b.ConstructID)
		}
		if b.NodeType != "program" {
			t.Errorf("behavior %q node type = %q", fx.ID, b.NodeType)
		}
		if b.HasError {
			t.Errorf("behavior %q flagged as error on a healthy platform", fx.ID)
		}
	}

	b := p.Behaviors["table_basic"]
	if b.ElementCount != 1 {
		t.Errorf("table_basic element count = %d, want 1", b.ElementCount)
	}
	if !slices.Contains(b.Attributes, "columns") {
		t.Errorf("table_basic attributes %v missing columns", b.Attributes)
	}
	if len(p.AdaptationRules) != 0 {
		t.Errorf("healthy platform inferred rules %v, want none", p.AdaptationRules)
	}
}

func TestRecordAllKeepsGoingOnExtractError(t *testing.T) {
	base := healthyExtract(t)
	r := &Recorder{
		extract: func(source []byte) ([]sqlang.Element, *sqlang.ExtractInfo, error) {
			if fixtureBySource(t, source).Construct == sqlang.TypeView {
				return nil, nil, fmt.Errorf("grammar rejected input")
			}
			return base(source)
		},
		fixtures: fixtures.All,
	}

	p, err := r.RecordAll()
	if err != nil {
		t.Fatalf("RecordAll: %v", err)
	}
	if len(p.Behaviors) != len(fixtures.All()) {
		t.Fatalf("recorded %d behaviors, want full catalogue despite failures", len(p.Behaviors))
	}

	b := p.Behaviors["view_basic"]
	if !b.HasError {
		t.Error("failed fixture not flagged with has_error")
	}
	if len(b.Extra) == 0 || !strings.HasPrefix(b.Extra[0], "extract:") {
		t.Errorf("failed fixture extra = %v, want extract error note", b.Extra)
	}
	if b.ElementCount != 0 {
		t.Errorf("failed fixture element count = %d, want 0", b.ElementCount)
	}
	if tb := p.Behaviors["table_basic"]; tb.HasError {
		t.Error("unrelated fixture contaminated by another fixture's failure")
	}
	if !reflect.DeepEqual(p.AdaptationRules, []string{RuleRecoverViewsFromErrors}) {
		t.Errorf("inferred rules = %v, want view recovery only", p.AdaptationRules)
	}
}

func TestRecordAllRecoversFromPanic(t *testing.T) {
	base := healthyExtract(t)
	r := &Recorder{
		extract: func(source []byte) ([]sqlang.Element, *sqlang.ExtractInfo, error) {
			if fixtureBySource(t, source).ID == "index_basic" {
				panic("parser exploded")
			}
			return base(source)
		},
		fixtures: fixtures.All,
	}

	p, err := r.RecordAll()
	if err != nil {
		t.Fatalf("RecordAll: %v", err)
	}
	b := p.Behaviors["index_basic"]
	if !b.HasError {
		t.Error("panicking fixture not flagged with has_error")
	}
	found := false
	for _, note := range b.Extra {
		if strings.Contains(note, "extraction panic") {
			found = true
		}
	}
	if !found {
		t.Errorf("panicking fixture extra = %v, want panic note", b.Extra)
	}
	if p.Behaviors["index_unique"].HasError {
		t.Error("sibling fixture affected by panic")
	}
}

func TestRecordAllEmptyCatalogue(t *testing.T) {
	r := &Recorder{
		extract:  healthyExtract(t),
		fixtures: func() []fixtures.Fixture { return nil },
	}
	p, err := r.RecordAll()
	if !errors.Is(err, ErrNoFixtures) {
		t.Fatalf("err = %v, want ErrNoFixtures", err)
	}
	if p != nil {
		t.Error("profile returned alongside error")
	}
}

func TestRecordAllInfersRulesFromDefects(t *testing.T) {
	base := healthyExtract(t)
	r := &Recorder{
		extract: func(source []byte) ([]sqlang.Element, *sqlang.ExtractInfo, error) {
			fx := fixtureBySource(t, source)
			info := &sqlang.ExtractInfo{RootKind: "program", NodeCount: 12}
			switch {
			case fx.Construct == sqlang.TypeFunction:
				return []sqlang.Element{mkFunction("FUNCTION", fx.Source)}, info, nil
			case fx.ID == "trigger_after_insert":
				return []sqlang.Element{mkTrigger("description", fx.Source)}, info, nil
			case fx.ID == "comment_trigger_mention":
				return []sqlang.Element{mkTrigger("audit_cleanup", fx.Source)}, info, nil
			case fx.Construct == sqlang.TypeView:
				return nil, &sqlang.ExtractInfo{RootKind: "program", NodeCount: 3, HasError: true}, nil
			}
			return base(source)
		},
		fixtures: fixtures.All,
	}

	p, err := r.RecordAll()
	if err != nil {
		t.Fatalf("RecordAll: %v", err)
	}
	want := []string{
		RuleFixFunctionNameKeywords,
		RuleFixTriggerNameDescription,
		RuleRemovePhantomTriggers,
		RuleRecoverViewsFromErrors,
	}
	if !reflect.DeepEqual(p.AdaptationRules, want) {
		t.Errorf("inferred rules = %v, want %v", p.AdaptationRules, want)
	}
	if b := p.Behaviors["view_basic"]; !b.HasError {
		t.Error("error-node fixture not flagged with has_error")
	}
}

func TestObservedAttributes(t *testing.T) {
	els := []sqlang.Element{
		mkTable("users"),
		mkTrigger("audit_insert", "CREATE TRIGGER audit_insert AFTER INSERT ON accounts BEGIN END;"),
		mkTable("orders"),
	}
	got := observedAttributes(els)
	want := []string{"name", "start_line", "end_line", "raw_text", "columns", "table_name", "trigger_timing", "trigger_event"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("observedAttributes = %v, want %v", got, want)
	}
	if empty := observedAttributes(nil); empty == nil || len(empty) != 0 {
		t.Errorf("observedAttributes(nil) = %#v, want empty non-nil", empty)
	}
}
