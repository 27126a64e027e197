package compat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestProfile(t *testing.T, base, osName, rv string, mutate func(*Profile)) {
	t.Helper()
	info := PlatformInfo{OSName: osName, RuntimeVersion: rv, Key: PlatformKey(osName, rv)}
	p := NewProfile(info.Key)
	if mutate != nil {
		mutate(p)
	}
	if err := SaveProfile(p, base, info); err != nil {
		t.Fatalf("SaveProfile(%s): %v", info.Key, err)
	}
}

func okBehavior(id string) ParsingBehavior {
	return ParsingBehavior{ConstructID: id, NodeType: "program", ElementCount: 1, Attributes: []string{"name"}, Extra: []string{}}
}

func errBehavior(id string) ParsingBehavior {
	return ParsingBehavior{ConstructID: id, NodeType: "program", HasError: true, Attributes: []string{}, Extra: []string{"parse tree contains error nodes"}}
}

func TestGenerateMatrix(t *testing.T) {
	base := t.TempDir()
	writeTestProfile(t, base, "linux", "1.26", func(p *Profile) {
		p.Behaviors["table_basic"] = okBehavior("table_basic")
		p.Behaviors["trigger_after_insert"] = okBehavior("trigger_after_insert")
		p.Behaviors["index_basic"] = okBehavior("index_basic")
	})
	writeTestProfile(t, base, "macos", "1.26", func(p *Profile) {
		p.Behaviors["table_basic"] = okBehavior("table_basic")
		p.Behaviors["trigger_after_insert"] = errBehavior("trigger_after_insert")
		p.AdaptationRules = []string{RuleRemovePhantomTriggers, RuleRecoverViewsFromErrors}
	})

	out, err := GenerateMatrix(base)
	if err != nil {
		t.Fatalf("GenerateMatrix: %v", err)
	}

	for _, want := range []string{
		"# SQL Compatibility Matrix",
		"Profiles scanned: 2",
		"| Construct | linux-1.26 | macos-1.26 |",
		"| table_basic | ✅ OK | ✅ OK |",
		"| trigger_after_insert | ✅ OK | ⚠️ Error |",
		"| index_basic | ✅ OK | — |",
		"## Adaptation Rules",
		"- `linux-1.26`: (none)",
		"- `macos-1.26`: remove_phantom_triggers, recover_views_from_errors",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("matrix missing %q\n%s", want, out)
		}
	}

	// Construct rows come out sorted.
	if strings.Index(out, "| index_basic") > strings.Index(out, "| table_basic") ||
		strings.Index(out, "| table_basic") > strings.Index(out, "| trigger_after_insert") {
		t.Error("construct rows not sorted")
	}
}

func TestGenerateMatrixNoProfiles(t *testing.T) {
	for _, base := range []string{t.TempDir(), filepath.Join(t.TempDir(), "never-created")} {
		out, err := GenerateMatrix(base)
		if err != nil {
			t.Fatalf("GenerateMatrix(%s): %v", base, err)
		}
		if !strings.Contains(out, "Profiles scanned: 0") {
			t.Errorf("empty matrix missing scan count:\n%s", out)
		}
		if !strings.Contains(out, "No behavior profiles recorded yet.") {
			t.Errorf("empty matrix missing placeholder:\n%s", out)
		}
		if strings.Contains(out, "| Construct") {
			t.Errorf("empty matrix rendered a table:\n%s", out)
		}
	}
}

func TestGenerateMatrixSkipsMalformed(t *testing.T) {
	base := t.TempDir()
	writeTestProfile(t, base, "linux", "1.26", func(p *Profile) {
		p.Behaviors["table_basic"] = okBehavior("table_basic")
	})

	broken := filepath.Join(base, "windows", "1.26")
	if err := os.MkdirAll(broken, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(broken, ProfileFileName), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := GenerateMatrix(base)
	if err != nil {
		t.Fatalf("GenerateMatrix: %v", err)
	}
	if !strings.Contains(out, "Profiles scanned: 1") {
		t.Errorf("malformed profile counted:\n%s", out)
	}
	if strings.Contains(out, "windows-1.26") {
		t.Errorf("malformed profile appears in matrix:\n%s", out)
	}
}
