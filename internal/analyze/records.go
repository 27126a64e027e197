package analyze

import (
	"encoding/hex"
	"fmt"
	"math"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/zeebo/xxh3"

	"github.com/SourceScope/source-scope-mcp/internal/lang"
	"github.com/SourceScope/source-scope-mcp/internal/parser"
	"github.com/SourceScope/source-scope-mcp/internal/sqlang"
)

// Record is one extracted element in storage form.
type Record struct {
	Kind      string         `json:"kind"`
	Name      string         `json:"name"`
	StartLine int            `json:"start_line"`
	EndLine   int            `json:"end_line"`
	Props     map[string]any `json:"properties,omitempty"`
}

// sqlRecords runs the SQL extractor, adapter included, and flattens the
// elements.
func (a *Analyzer) sqlRecords(data []byte) ([]Record, bool, error) {
	els, info, err := a.ext.ExtractSource(data)
	if err != nil {
		return nil, false, err
	}
	records := make([]Record, 0, len(els))
	for _, el := range els {
		base := el.Base()
		records = append(records, Record{
			Kind:      string(el.Type()),
			Name:      base.Name,
			StartLine: base.StartLine,
			EndLine:   base.EndLine,
			Props:     sqlProps(el),
		})
	}
	return records, info.HasError, nil
}

// sqlProps picks the variant-specific attributes worth storing.
func sqlProps(el sqlang.Element) map[string]any {
	props := map[string]any{}
	switch el := el.(type) {
	case *sqlang.Table:
		if len(el.Columns) > 0 {
			props["columns"] = el.Columns
		}
	case *sqlang.Function:
		if len(el.Parameters) > 0 {
			props["parameters"] = el.Parameters
		}
	case *sqlang.Procedure:
		if len(el.Parameters) > 0 {
			props["parameters"] = el.Parameters
		}
	case *sqlang.Trigger:
		if el.TableName != "" {
			props["table_name"] = el.TableName
		}
		if el.Timing != "" {
			props["trigger_timing"] = el.Timing
		}
		if el.Event != "" {
			props["trigger_event"] = el.Event
		}
	case *sqlang.Index:
		if el.TableName != "" {
			props["table_name"] = el.TableName
		}
		if el.Unique {
			props["unique"] = true
		}
	}
	if len(props) == 0 {
		return nil
	}
	return props
}

// genericRecords walks the AST collecting the node kinds the language spec
// declares.
func genericRecords(data []byte, language lang.Language) ([]Record, bool, error) {
	spec := lang.ForLanguage(language)
	if spec == nil {
		return nil, false, fmt.Errorf("no language spec for %s", language)
	}

	kinds := map[string]string{}
	for _, k := range spec.FunctionNodeTypes {
		kinds[k] = "function"
	}
	for _, k := range spec.ClassNodeTypes {
		kinds[k] = "class"
	}
	for _, k := range spec.ModuleNodeTypes {
		kinds[k] = "module"
	}

	tree, err := parser.Parse(language, data)
	if err != nil {
		return nil, false, err
	}
	defer tree.Close()

	root := tree.RootNode()
	var records []Record
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		kind, ok := kinds[n.Kind()]
		if !ok {
			return true
		}
		name := nodeName(n, data)
		if name == "" {
			return true
		}
		records = append(records, Record{
			Kind:      kind,
			Name:      name,
			StartLine: safeRowToLine(n.StartPosition().Row),
			EndLine:   safeRowToLine(n.EndPosition().Row),
		})
		return true
	})
	return records, root.HasError(), nil
}

// nodeName resolves a declaration's name: the "name" field when the grammar
// binds one, else the first identifier child.
func nodeName(n *tree_sitter.Node, source []byte) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return parser.NodeText(nameNode, source)
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.Kind() == "identifier" {
			return parser.NodeText(child, source)
		}
	}
	return ""
}

func safeRowToLine(row uint) int {
	if row > uint(math.MaxInt-1) {
		return math.MaxInt
	}
	return int(row) + 1
}

func contentHash(data []byte) string {
	h := xxh3.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
