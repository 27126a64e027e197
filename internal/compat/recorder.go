package compat

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/SourceScope/source-scope-mcp/internal/fixtures"
	"github.com/SourceScope/source-scope-mcp/internal/sqlang"
)

// Recorder runs the fixture catalogue through the raw, unadapted extraction
// pipeline and collects this platform's behavior profile.
type Recorder struct {
	extract  func(source []byte) ([]sqlang.Element, *sqlang.ExtractInfo, error)
	fixtures func() []fixtures.Fixture
}

// NewRecorder returns a recorder wired to the real extractor and the full
// fixture catalogue.
func NewRecorder() *Recorder {
	raw := &sqlang.Extractor{}
	return &Recorder{
		extract:  raw.ExtractSource,
		fixtures: fixtures.All,
	}
}

// RecordAll records one ParsingBehavior per fixture, in catalogue order,
// single-threaded. A fixture whose extraction fails still gets an entry
// with HasError set, so the profile always covers the whole catalogue.
// Only an empty catalogue is an error.
func (r *Recorder) RecordAll() (*Profile, error) {
	fxs := r.fixtures()
	if len(fxs) == 0 {
		return nil, ErrNoFixtures
	}

	info := Detect()
	slog.Info("recorder.start",
		"platform", info.Key,
		"fixtures", len(fxs),
		"catalogue_version", fixtures.Version,
		"catalogue_checksum", fmt.Sprintf("%016x", fixtures.Checksum()))

	p := NewProfile(info.Key)
	var defects ruleDefects
	for _, fx := range fxs {
		b, els := r.recordOne(fx)
		p.Behaviors[fx.ID] = b
		defects.observe(fx, b, els)
	}
	p.AdaptationRules = defects.rules()

	slog.Info("recorder.done", "platform", info.Key, "behaviors", len(p.Behaviors), "rules", strings.Join(p.AdaptationRules, ","))
	return p, nil
}

func (r *Recorder) recordOne(fx fixtures.Fixture) (b ParsingBehavior, els []sqlang.Element) {
	b = ParsingBehavior{ConstructID: fx.ID, Attributes: []string{}, Extra: []string{}}
	defer func() {
		if rec := recover(); rec != nil {
			b.HasError = true
			b.Extra = append(b.Extra, fmt.Sprintf("extraction panic: %v", rec))
			els = nil
			slog.Warn("recorder.fixture_error", "fixture", fx.ID, "panic", rec)
		}
	}()

	els, info, err := r.extract([]byte(fx.Source))
	if err != nil {
		b.HasError = true
		b.Extra = append(b.Extra, fmt.Sprintf("extract: %v", err))
		slog.Warn("recorder.fixture_error", "fixture", fx.ID, "err", err)
		return b, nil
	}

	b.NodeType = info.RootKind
	b.ElementCount = len(els)
	b.HasError = info.HasError
	b.Attributes = observedAttributes(els)
	if info.HasError {
		b.Extra = append(b.Extra, "parse tree contains error nodes")
	}
	return b, els
}

// observedAttributes unions element attribute names in first-seen order.
func observedAttributes(els []sqlang.Element) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, el := range els {
		for _, a := range sqlang.AttributeNames(el) {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// ruleDefects accumulates raw-output defect signals and maps them to the
// adaptation rules that repair them. The mapping runs at record time, so a
// platform's profile enables exactly the rules its own quirks need.
type ruleDefects struct {
	keywordNames        bool
	descriptionTriggers bool
	phantomTriggers     bool
	lostViews           bool
}

func (d *ruleDefects) observe(fx fixtures.Fixture, b ParsingBehavior, els []sqlang.Element) {
	sawView := false
	for _, el := range els {
		switch el := el.(type) {
		case *sqlang.Function:
			if sqlang.IsBareKeyword(el.Name) {
				d.keywordNames = true
			}
		case *sqlang.Procedure:
			if sqlang.IsBareKeyword(el.Name) {
				d.keywordNames = true
			}
		case *sqlang.Trigger:
			if el.Name == "description" {
				d.descriptionTriggers = true
			}
			if !strings.Contains(el.RawText, "CREATE TRIGGER") {
				d.phantomTriggers = true
			}
		case *sqlang.View:
			sawView = true
		}
	}
	if fx.Construct == sqlang.TypeView && (b.HasError || !sawView) {
		d.lostViews = true
	}
}

// rules returns the enabled rule ids in canonical order.
func (d *ruleDefects) rules() []string {
	out := []string{}
	if d.keywordNames {
		out = append(out, RuleFixFunctionNameKeywords)
	}
	if d.descriptionTriggers {
		out = append(out, RuleFixTriggerNameDescription)
	}
	if d.phantomTriggers {
		out = append(out, RuleRemovePhantomTriggers)
	}
	if d.lostViews {
		out = append(out, RuleRecoverViewsFromErrors)
	}
	return out
}
