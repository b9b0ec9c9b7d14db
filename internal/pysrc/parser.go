package pysrc

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"pybreak/internal/errors"
)

// Parser wraps a tree-sitter parser configured for Python. A Parser is not
// safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new Python parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses source and returns the syntax tree root. Source that is not
// valid Python yields a ParseFailed error; callers treat that as "model
// unavailable" rather than a fatal condition.
func (p *Parser) Parse(ctx context.Context, source []byte) (*sitter.Node, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Wrap(errors.ParseFailed, "tree-sitter parse aborted", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.New(errors.ParseFailed, "source contains syntax errors")
	}
	return root, nil
}

// nodeText returns the source text of a node.
func nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(source)
}

// childByFieldOrType returns the child bound to the given field name, falling
// back to the first child of the given node type. Field coverage varies
// between grammar versions, so lookups tolerate both shapes.
func childByFieldOrType(n *sitter.Node, field, nodeType string) *sitter.Node {
	if c := n.ChildByFieldName(field); c != nil {
		return c
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.Type() == nodeType {
			return child
		}
	}
	return nil
}
