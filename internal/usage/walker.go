package usage

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"pybreak/internal/pysrc"
)

// walker performs the structural search pass: it parses a candidate file,
// tracks import bindings, and checks every name reference, call, and
// attribute access against the target elements. Files that fail to parse
// are skipped silently; this pass only adds recall on top of the text pass.
type walker struct {
	parser *pysrc.Parser
}

func newWalker() *walker {
	return &walker{parser: pysrc.NewParser()}
}

// fileScan is the per-file state of one structural pass.
type fileScan struct {
	filePath  string
	source    []byte
	lines     []string
	elements  []string
	bindings  map[string]string // local name -> fully qualified origin
	locations []Location
}

func (w *walker) structuralPass(ctx context.Context, filePath string, source []byte, lines []string, elements []string) []Location {
	root, err := w.parser.Parse(ctx, source)
	if err != nil {
		return nil
	}

	scan := &fileScan{
		filePath: filePath,
		source:   source,
		lines:    lines,
		elements: elements,
		bindings: make(map[string]string),
	}
	scan.walk(root)
	return scan.locations
}

func (s *fileScan) walk(node *sitter.Node) {
	switch node.Type() {
	case "import_statement":
		s.trackImport(node)
	case "import_from_statement":
		s.trackFromImport(node)
	case "call":
		s.checkCall(node)
	case "attribute":
		s.checkAttribute(node)
	case "identifier":
		s.check(s.text(node), int(node.StartPoint().Row), KindNameReference)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil {
			s.walk(child)
		}
	}
}

func (s *fileScan) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(s.source)
}

// trackImport records bindings for `import X` and `import X as Y`.
func (s *fileScan) trackImport(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			name := s.text(child)
			s.bindings[name] = name
		case "aliased_import":
			name := s.text(child.ChildByFieldName("name"))
			alias := s.text(child.ChildByFieldName("alias"))
			if name != "" && alias != "" {
				s.bindings[alias] = name
			}
		}
	}
}

// trackFromImport records bindings for `from M import N [as Y]` and flags
// wildcard imports immediately: `from M import *` can hide any reference,
// so it is always reported as a risk usage.
func (s *fileScan) trackFromImport(node *sitter.Node) {
	moduleNode := node.ChildByFieldName("module_name")
	module := s.text(moduleNode)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child == moduleNode {
			continue
		}
		switch child.Type() {
		case "wildcard_import":
			s.add(int(node.StartPoint().Row), KindStarImport)
		case "dotted_name":
			name := s.text(child)
			s.bindings[name] = qualify(module, name)
		case "aliased_import":
			name := s.text(child.ChildByFieldName("name"))
			alias := s.text(child.ChildByFieldName("alias"))
			if name == "" {
				continue
			}
			if alias == "" {
				alias = name
			}
			s.bindings[alias] = qualify(module, name)
		}
	}
}

func qualify(module, name string) string {
	if module == "" {
		return name
	}
	return module + "." + name
}

func (s *fileScan) checkCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}
	row := int(node.StartPoint().Row)

	switch fn.Type() {
	case "identifier":
		s.check(s.text(fn), row, KindFunctionCall)
	case "attribute":
		obj := fn.ChildByFieldName("object")
		attr := fn.ChildByFieldName("attribute")
		if obj != nil && obj.Type() == "identifier" && attr != nil {
			s.check(s.text(obj)+"."+s.text(attr), row, KindMethodCall)
			s.check(s.text(attr), row, KindMethodCall)
		}
	}
}

func (s *fileScan) checkAttribute(node *sitter.Node) {
	obj := node.ChildByFieldName("object")
	attr := node.ChildByFieldName("attribute")
	if obj == nil || obj.Type() != "identifier" || attr == nil {
		return
	}
	row := int(node.StartPoint().Row)
	s.check(s.text(obj)+"."+s.text(attr), row, KindAttributeAccess)
	s.check(s.text(attr), row, KindAttributeAccess)
}

// check tests one referenced name against every target element. The name is
// resolved through the tracked import bindings (the first dotted segment is
// substituted by its origin) and matches when the qualified form contains
// the element name.
func (s *fileScan) check(name string, row int, kind Kind) {
	if name == "" {
		return
	}
	qualified := s.resolve(name)

	// Matching on the resolved form also catches renamed imports, where
	// the local name shares nothing with the element.
	for _, element := range s.elements {
		if strings.Contains(qualified, element) {
			s.add(row, kind)
			return
		}
	}
}

// resolve substitutes the leading segment of a (possibly dotted) name with
// its tracked import origin, when one exists.
func (s *fileScan) resolve(name string) string {
	if origin, ok := s.bindings[name]; ok {
		return origin
	}
	head, rest, found := strings.Cut(name, ".")
	if !found {
		return name
	}
	if origin, ok := s.bindings[head]; ok {
		return origin + "." + rest
	}
	return name
}

// add records a location with the structural pass's wider context window
// (five lines before, two after).
func (s *fileScan) add(row int, kind Kind) {
	s.locations = append(s.locations, Location{
		FilePath:   s.filePath,
		Line:       row + 1,
		Context:    contextWindow(s.lines, row, 5, 2),
		Kind:       kind,
		Confidence: kind.Confidence(),
	})
}
