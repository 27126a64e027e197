package sqlang

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		kind string
		want ElementType
		ok   bool
	}{
		{"create_table", TypeTable, true},
		{"create_table_statement", TypeTable, true},
		{"create_view", TypeView, true},
		{"create_materialized_view", TypeView, true},
		{"create_function", TypeFunction, true},
		{"create_function_statement", TypeFunction, true},
		{"create_procedure", TypeProcedure, true},
		{"create_trigger", TypeTrigger, true},
		{"create_index", TypeIndex, true},
		{"select_statement", "", false},
		{"program", "", false},
		{"ERROR", "", false},
	}
	for _, tt := range tests {
		got, ok := classifyKind(tt.kind)
		if ok != tt.ok || got != tt.want {
			t.Errorf("classifyKind(%q) = (%q, %v), want (%q, %v)", tt.kind, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractTableAndView(t *testing.T) {
	source := []byte(`CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    email TEXT NOT NULL
);

CREATE VIEW active_users AS
    SELECT id, email FROM users;
`)
	var x Extractor
	els, info, err := x.ExtractSource(source)
	if err != nil {
		t.Fatalf("ExtractSource: %v", err)
	}
	if info.RootKind != "program" {
		t.Errorf("root kind = %s, want program", info.RootKind)
	}

	byType := map[ElementType][]Element{}
	for _, el := range els {
		byType[el.Type()] = append(byType[el.Type()], el)
	}
	tables := byType[TypeTable]
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d (%d elements total)", len(tables), len(els))
	}
	tbl := tables[0].(*Table)
	if tbl.Name != "users" {
		t.Errorf("table name = %q, want users", tbl.Name)
	}
	if tbl.StartLine != 1 {
		t.Errorf("table start line = %d, want 1", tbl.StartLine)
	}
	if !strings.Contains(tbl.RawText, "CREATE TABLE") {
		t.Errorf("table raw text missing statement: %q", tbl.RawText)
	}

	views := byType[TypeView]
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].Base().Name != "active_users" {
		t.Errorf("view name = %q, want active_users", views[0].Base().Name)
	}
}

func TestExtractEmptySource(t *testing.T) {
	var x Extractor
	els, info, err := x.ExtractSource([]byte("-- nothing here\n"))
	if err != nil {
		t.Fatalf("ExtractSource: %v", err)
	}
	if len(els) != 0 {
		t.Errorf("expected no elements, got %d", len(els))
	}
	if els == nil {
		t.Error("elements should be an empty slice, not nil")
	}
	if info.NodeCount == 0 {
		t.Error("node count should include the root")
	}
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.sql")
	if err := os.WriteFile(path, []byte("CREATE TABLE t1 (id INTEGER);\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var x Extractor
	els, _, err := x.ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if len(els) != 1 || els[0].Base().Name != "t1" {
		t.Fatalf("unexpected elements: %+v", els)
	}
}

func TestExtractFileMissing(t *testing.T) {
	var x Extractor
	if _, _, err := x.ExtractFile(filepath.Join(t.TempDir(), "absent.sql")); err == nil {
		t.Error("ExtractFile on missing path should fail")
	}
}

// renameAdapter marks every element so tests can see adaptation ran.
type renameAdapter struct{ calls int }

func (a *renameAdapter) AdaptElements(els []Element, source string) []Element {
	a.calls++
	out := CloneAll(els)
	for _, el := range out {
		el.Base().Name = "adapted_" + el.Base().Name
	}
	return out
}

func TestExtractorAppliesAdapter(t *testing.T) {
	ad := &renameAdapter{}
	x := Extractor{Adapter: ad}
	els, _, err := x.ExtractSource([]byte("CREATE TABLE plain (id INTEGER);\n"))
	if err != nil {
		t.Fatalf("ExtractSource: %v", err)
	}
	if ad.calls != 1 {
		t.Fatalf("adapter calls = %d, want 1", ad.calls)
	}
	if len(els) != 1 || els[0].Base().Name != "adapted_plain" {
		t.Fatalf("adapter output not returned: %+v", els)
	}
}
