package compat

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/SourceScope/source-scope-mcp/internal/fixtures"
)

// testManager wires a manager to the fake extractor and counts how many
// times it records.
func testManager(t *testing.T, base string, cache *Cache) (*Manager, *int) {
	t.Helper()
	m := NewManager(base, cache)
	recordings := new(int)
	m.rec.extract = healthyExtract(t)
	m.rec.fixtures = func() []fixtures.Fixture {
		*recordings++
		return fixtures.All()
	}
	return m, recordings
}

func TestManagerSelfProvisions(t *testing.T) {
	base := filepath.Join(t.TempDir(), "profiles")
	m, recordings := testManager(t, base, NewCache(4, 0))

	p, info, err := m.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if *recordings != 1 {
		t.Fatalf("recordings = %d, want 1", *recordings)
	}
	if p.PlatformKey != info.Key {
		t.Errorf("profile key %q != platform key %q", p.PlatformKey, info.Key)
	}
	if _, err := os.Stat(ProfilePath(base, info)); err != nil {
		t.Errorf("profile not saved to disk: %v", err)
	}

	// A second resolve must come from the cache, even with the files gone.
	if err := os.RemoveAll(base); err != nil {
		t.Fatal(err)
	}
	p2, _, err := m.Profile()
	if err != nil {
		t.Fatalf("Profile (cached): %v", err)
	}
	if p2 != p {
		t.Error("second resolve did not reuse the cached profile")
	}
	if *recordings != 1 {
		t.Errorf("recordings = %d after cached resolve, want 1", *recordings)
	}
	if stats := m.CacheStats(); stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("cache stats = %+v, want 1 hit, 1 miss, size 1", stats)
	}
}

func TestManagerLoadsExistingProfile(t *testing.T) {
	base := t.TempDir()
	info := Detect()

	seed := NewProfile(info.Key)
	seed.Behaviors["table_basic"] = okBehavior("table_basic")
	seed.AdaptationRules = []string{RuleRemovePhantomTriggers}
	if err := SaveProfile(seed, base, info); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	m, recordings := testManager(t, base, nil)
	p, _, err := m.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if *recordings != 0 {
		t.Errorf("recordings = %d, want 0 when a profile exists on disk", *recordings)
	}
	if !reflect.DeepEqual(p.AdaptationRules, seed.AdaptationRules) {
		t.Errorf("loaded rules = %v, want %v", p.AdaptationRules, seed.AdaptationRules)
	}
	if stats := m.CacheStats(); stats != (CacheStats{}) {
		t.Errorf("uncached manager reported stats %+v", stats)
	}
}

func TestManagerRerecordsBrokenProfile(t *testing.T) {
	base := t.TempDir()
	info := Detect()

	path := ProfilePath(base, info)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, recordings := testManager(t, base, nil)
	p, _, err := m.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if *recordings != 1 {
		t.Errorf("recordings = %d, want 1 after broken profile", *recordings)
	}
	if len(p.Behaviors) != len(fixtures.All()) {
		t.Errorf("re-recorded profile covers %d fixtures, want %d", len(p.Behaviors), len(fixtures.All()))
	}
	if _, err := LoadProfile(path); err != nil {
		t.Errorf("broken profile not replaced on disk: %v", err)
	}
}

func TestManagerAdapterFor(t *testing.T) {
	base := t.TempDir()
	info := Detect()

	seed := NewProfile(info.Key)
	seed.AdaptationRules = []string{RuleFixTriggerNameDescription, RuleRecoverViewsFromErrors}
	if err := SaveProfile(seed, base, info); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	m, _ := testManager(t, base, NewCache(2, time.Minute))
	a, err := m.AdapterFor()
	if err != nil {
		t.Fatalf("AdapterFor: %v", err)
	}
	if !reflect.DeepEqual(a.RuleNames(), seed.AdaptationRules) {
		t.Errorf("adapter rules = %v, want %v", a.RuleNames(), seed.AdaptationRules)
	}
}

func TestManagerRecordFailure(t *testing.T) {
	m, _ := testManager(t, t.TempDir(), nil)
	m.rec.fixtures = func() []fixtures.Fixture { return nil }

	p, _, err := m.Profile()
	if !errors.Is(err, ErrNoFixtures) {
		t.Fatalf("err = %v, want ErrNoFixtures", err)
	}
	if p != nil {
		t.Error("profile returned alongside error")
	}
}
