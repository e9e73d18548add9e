package parsers

import (
	"context"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterParser provides common tree-sitter parsing functionality.
type treeSitterParser struct {
	language *sitter.Language
	lang     string
}

// newTreeSitterParser creates a new tree-sitter parser for the given language.
func newTreeSitterParser(language *sitter.Language, lang string) *treeSitterParser {
	return &treeSitterParser{
		language: language,
		lang:     lang,
	}
}

// parse builds a syntax tree for source. The caller owns the returned tree and must Close it.
// A tree containing syntax errors is reported as a *ParseError.
func (p *treeSitterParser) parse(ctx context.Context, filePath string, source []byte) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Parsers are not safe for concurrent use, so every call gets its own.
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set %s language: %w", p.lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, &ParseError{File: filePath, Err: fmt.Errorf("%w: %s parser returned no tree", ErrSyntax, p.lang)}
	}

	root := tree.RootNode()
	if root.HasError() {
		line := 0
		if bad := findErrorNode(root); bad != nil {
			line = int(bad.StartPosition().Row) + 1
		}
		tree.Close()
		return nil, &ParseError{File: filePath, Line: line, Err: ErrSyntax}
	}

	// The grammar still accepts Python 2 print and exec statements without error nodes.
	if legacy := findNodeByKind(root, legacyStatementKinds); legacy != nil {
		line := nodeLine(legacy)
		tree.Close()
		return nil, &ParseError{File: filePath, Line: line, Err: ErrSyntax}
	}

	return tree, nil
}

// legacyStatementKinds are grammar nodes that only exist in Python 2.
var legacyStatementKinds = map[string]bool{
	"print_statement": true,
	"exec_statement":  true,
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// nodeLine returns the 1-based line a node starts on.
func nodeLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		walkTree(child, visitor)
	}
}

// findErrorNode returns the first ERROR or MISSING node in pre-order.
func findErrorNode(node *sitter.Node) *sitter.Node {
	var found *sitter.Node
	walkTree(node, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	return found
}

// findNodeByKind returns the first node in pre-order whose kind is in kinds.
func findNodeByKind(node *sitter.Node, kinds map[string]bool) *sitter.Node {
	var found *sitter.Node
	walkTree(node, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if kinds[n.Kind()] {
			found = n
			return false
		}
		return true
	})
	return found
}

// findChildrenByType finds all child nodes with the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			results = append(results, child)
		}
	}
	return results
}

// firstStatement returns the first named, non-comment child of a module or block.
func firstStatement(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(uint(i))
		if child.Kind() == "comment" {
			continue
		}
		return child
	}
	return nil
}
