package sqlang

import (
	"fmt"
	"math"
	"os"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/SourceScope/source-scope-mcp/internal/lang"
	"github.com/SourceScope/source-scope-mcp/internal/parser"
)

// Adapter rewrites raw extraction output into its platform-corrected form.
// It is implemented by the compatibility layer; sqlang only depends on the
// interface so the extractor can be built with or without adaptation.
type Adapter interface {
	AdaptElements(els []Element, source string) []Element
}

// Extractor turns SQL source into elements. With a nil Adapter the output is
// the raw parse result; with an Adapter attached, every extraction is passed
// through it before returning, so callers never see unadapted output.
type Extractor struct {
	Adapter Adapter
}

// ExtractInfo reports parse-level facts about one extraction.
type ExtractInfo struct {
	RootKind  string
	NodeCount int
	HasError  bool
}

// ExtractFile reads and extracts a SQL file.
func (x *Extractor) ExtractFile(path string) ([]Element, *ExtractInfo, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read sql file: %w", err)
	}
	return x.ExtractSource(source)
}

// ExtractSource parses source and returns the elements it declares, in
// source order.
func (x *Extractor) ExtractSource(source []byte) ([]Element, *ExtractInfo, error) {
	tree, err := parser.Parse(lang.SQL, source)
	if err != nil {
		return nil, nil, fmt.Errorf("parse sql: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	info := &ExtractInfo{RootKind: root.Kind(), HasError: root.HasError()}

	els := []Element{}
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		info.NodeCount++
		t, ok := classifyKind(n.Kind())
		if !ok {
			return true
		}
		els = append(els, buildElement(t, n, source))
		// Create statements do not nest; skip the subtree.
		return false
	})

	if x.Adapter != nil {
		els = x.Adapter.AdaptElements(els, string(source))
	}
	return els, info, nil
}

// classifyKind maps a grammar node kind to the element variant it declares.
// Plain and _statement-suffixed spellings are both recognized; grammar
// revisions differ on which they emit.
func classifyKind(kind string) (ElementType, bool) {
	switch strings.TrimSuffix(kind, "_statement") {
	case "create_table":
		return TypeTable, true
	case "create_view", "create_materialized_view":
		return TypeView, true
	case "create_function":
		return TypeFunction, true
	case "create_procedure":
		return TypeProcedure, true
	case "create_trigger":
		return TypeTrigger, true
	case "create_index":
		return TypeIndex, true
	}
	return "", false
}

func buildElement(t ElementType, node *tree_sitter.Node, source []byte) Element {
	base := ElementBase{
		Name:      nameForNode(node, source),
		StartLine: safeRowToLine(node.StartPosition().Row),
		EndLine:   safeRowToLine(node.EndPosition().Row),
		RawText:   parser.NodeText(node, source),
	}

	switch t {
	case TypeTable:
		return &Table{ElementBase: base, Columns: columnsForNode(node, source)}
	case TypeView:
		if base.Name == "" {
			base.Name = ViewNameFromText(base.RawText)
		}
		return &View{ElementBase: base}
	case TypeFunction:
		if base.Name == "" {
			base.Name = RoutineNameFromText(base.RawText)
		}
		// Some grammar revisions fold CREATE PROCEDURE into the function
		// node kind; the statement text decides the variant.
		if isProcedureText(base.RawText) {
			return &Procedure{ElementBase: base, Parameters: ParamsFromText(base.RawText)}
		}
		return &Function{ElementBase: base, Parameters: ParamsFromText(base.RawText)}
	case TypeProcedure:
		if base.Name == "" {
			base.Name = RoutineNameFromText(base.RawText)
		}
		return &Procedure{ElementBase: base, Parameters: ParamsFromText(base.RawText)}
	case TypeTrigger:
		if base.Name == "" {
			base.Name = TriggerNameFromText(base.RawText)
		}
		timing, event, table := TriggerClausesFromText(base.RawText)
		return &Trigger{ElementBase: base, TableName: table, Timing: timing, Event: event}
	case TypeIndex:
		table, unique := indexClausesFromText(base.RawText)
		return &Index{ElementBase: base, TableName: table, Unique: unique}
	}
	return &Table{ElementBase: base}
}

// nameForNode finds the declared object name: the first object_reference
// descendant, falling back to the first bare identifier.
func nameForNode(node *tree_sitter.Node, source []byte) string {
	var name string
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		if name != "" {
			return false
		}
		switch n.Kind() {
		case "object_reference", "identifier":
			name = UnquoteIdent(parser.NodeText(n, source))
			return false
		}
		return true
	})
	return name
}

func columnsForNode(node *tree_sitter.Node, source []byte) []string {
	var cols []string
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		if n.Kind() != "column_definition" {
			return true
		}
		var col string
		parser.Walk(n, func(c *tree_sitter.Node) bool {
			if col != "" {
				return false
			}
			if c.Kind() == "identifier" {
				col = UnquoteIdent(parser.NodeText(c, source))
				return false
			}
			return true
		})
		if col != "" {
			cols = append(cols, col)
		}
		return false
	})
	return cols
}

func safeRowToLine(row uint) int {
	if row > uint(math.MaxInt-1) {
		return math.MaxInt
	}
	return int(row) + 1
}
