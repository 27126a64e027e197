// ast-dump prints the raw tree-sitter parse tree for a source file. Handy
// when deciding which node kinds the extractors should match.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SourceScope/source-scope-mcp/internal/lang"
	"github.com/SourceScope/source-scope-mcp/internal/parser"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func printAST(node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	prefix := ""
	for i := 0; i < indent; i++ {
		prefix += "  "
	}
	parentKind := "nil"
	if node.Parent() != nil {
		parentKind = node.Parent().Kind()
	}
	text := string(source[node.StartByte():node.EndByte()])
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Printf("%s%s (parent=%s) %q\n", prefix, node.Kind(), parentKind, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(node.Child(i), source, indent+1)
	}
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: ast-dump <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		os.Exit(1)
	}

	language, ok := lang.LanguageForExtension(filepath.Ext(path))
	if !ok {
		fmt.Fprintf(os.Stderr, "unsupported file type: %s\n", path)
		os.Exit(1)
	}

	tree, err := parser.Parse(language, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse: %v\n", err)
		os.Exit(1)
	}
	defer tree.Close()

	printAST(tree.RootNode(), source, 0)
}
