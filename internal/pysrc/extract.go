package pysrc

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor builds structural models from Python source text.
type Extractor struct {
	parser *Parser
}

// NewExtractor creates a new extractor with its own parser.
func NewExtractor() *Extractor {
	return &Extractor{parser: NewParser()}
}

// Extract parses source into a structural model of the file's public
// surface: top-level functions, top-level classes with their immediate
// methods, imports, and module-level variable names. Nested declarations
// deeper than one level are not modeled.
//
// Empty or whitespace-only source yields an empty model with no error.
// Syntactically invalid source yields a ParseFailed error.
func (e *Extractor) Extract(ctx context.Context, source []byte, filePath string) (*Module, error) {
	m := NewModule(filePath)

	if len(strings.TrimSpace(string(source))) == 0 {
		return m, nil
	}

	root, err := e.parser.Parse(ctx, source)
	if err != nil {
		return nil, err
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		if node == nil {
			continue
		}
		e.extractStatement(m, node, source)
	}

	return m, nil
}

func (e *Extractor) extractStatement(m *Module, node *sitter.Node, source []byte) {
	switch node.Type() {
	case "function_definition":
		fn := extractFunction(node, source, nil, "")
		if fn != nil {
			m.Functions[fn.Name] = fn
		}

	case "decorated_definition":
		decorators, def := splitDecorated(node, source)
		if def == nil {
			return
		}
		switch def.Type() {
		case "function_definition":
			fn := extractFunction(def, source, decorators, "")
			if fn != nil {
				m.Functions[fn.Name] = fn
			}
		case "class_definition":
			cls := extractClass(def, source, decorators)
			if cls != nil {
				m.Classes[cls.Name] = cls
			}
		}

	case "class_definition":
		cls := extractClass(node, source, nil)
		if cls != nil {
			m.Classes[cls.Name] = cls
		}

	case "import_statement", "import_from_statement", "future_import_statement":
		imp := extractImport(node, source)
		if imp != nil {
			for _, name := range imp.Names {
				m.Imports[name] = imp
			}
		}

	case "expression_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child != nil && child.Type() == "assignment" {
				collectAssignTargets(m, child, source)
			}
		}
	}
}

// splitDecorated separates a decorated_definition into decorator source
// texts and the wrapped definition node.
func splitDecorated(node *sitter.Node, source []byte) ([]string, *sitter.Node) {
	var decorators []string
	var def *sitter.Node

	if d := node.ChildByFieldName("definition"); d != nil {
		def = d
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "decorator":
			decorators = append(decorators, strings.TrimPrefix(nodeText(child, source), "@"))
		case "function_definition", "class_definition":
			if def == nil {
				def = child
			}
		}
	}
	return decorators, def
}

func extractFunction(node *sitter.Node, source []byte, decorators []string, owningClass string) *FunctionSignature {
	nameNode := childByFieldOrType(node, "name", "identifier")
	if nameNode == nil {
		return nil
	}

	fn := &FunctionSignature{
		Name:        nodeText(nameNode, source),
		Defaults:    make(map[string]string),
		Annotations: make(map[string]string),
		Decorators:  decorators,
		IsMethod:    owningClass != "",
		OwningClass: owningClass,
		Line:        int(node.StartPoint().Row) + 1,
	}

	if params := childByFieldOrType(node, "parameters", "parameters"); params != nil {
		extractParameters(fn, params, source)
	}

	if ret := childByFieldOrType(node, "return_type", "type"); ret != nil {
		fn.ReturnAnnotation = nodeText(ret, source)
	}

	return fn
}

// extractParameters fills positional parameters, defaults, annotations, and
// the vararg/kwarg catch-alls. Positional order follows declaration order;
// vararg/kwarg are recorded separately, never in Parameters.
func extractParameters(fn *FunctionSignature, params *sitter.Node, source []byte) {
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}

		switch p.Type() {
		case "identifier":
			fn.Parameters = append(fn.Parameters, nodeText(p, source))

		case "default_parameter":
			name := nodeText(p.ChildByFieldName("name"), source)
			if name == "" {
				continue
			}
			fn.Parameters = append(fn.Parameters, name)
			if v := p.ChildByFieldName("value"); v != nil {
				fn.Defaults[name] = nodeText(v, source)
			}

		case "typed_parameter":
			// The parameter itself is the first child: a plain identifier
			// or a splat pattern for annotated *args/**kwargs.
			inner := p.NamedChild(0)
			annotation := nodeText(p.ChildByFieldName("type"), source)
			if inner == nil {
				continue
			}
			switch inner.Type() {
			case "identifier":
				name := nodeText(inner, source)
				fn.Parameters = append(fn.Parameters, name)
				if annotation != "" {
					fn.Annotations[name] = annotation
				}
			case "list_splat_pattern":
				if name := splatName(inner, source); name != "" {
					fn.Vararg = name
					if annotation != "" {
						fn.Annotations[name] = annotation
					}
				}
			case "dictionary_splat_pattern":
				if name := splatName(inner, source); name != "" {
					fn.Kwarg = name
					if annotation != "" {
						fn.Annotations[name] = annotation
					}
				}
			}

		case "typed_default_parameter":
			name := nodeText(p.ChildByFieldName("name"), source)
			if name == "" {
				continue
			}
			fn.Parameters = append(fn.Parameters, name)
			if v := p.ChildByFieldName("value"); v != nil {
				fn.Defaults[name] = nodeText(v, source)
			}
			if tp := p.ChildByFieldName("type"); tp != nil {
				fn.Annotations[name] = nodeText(tp, source)
			}

		case "list_splat_pattern":
			if name := splatName(p, source); name != "" {
				fn.Vararg = name
			}

		case "dictionary_splat_pattern":
			if name := splatName(p, source); name != "" {
				fn.Kwarg = name
			}
		}
	}
}

// splatName returns the identifier inside *args / **kwargs patterns.
func splatName(n *sitter.Node, source []byte) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.Type() == "identifier" {
			return nodeText(child, source)
		}
	}
	return ""
}

func extractClass(node *sitter.Node, source []byte, decorators []string) *ClassDescriptor {
	nameNode := childByFieldOrType(node, "name", "identifier")
	if nameNode == nil {
		return nil
	}

	cls := &ClassDescriptor{
		Name:       nodeText(nameNode, source),
		Decorators: decorators,
		Methods:    make(map[string]*FunctionSignature),
		Line:       int(node.StartPoint().Row) + 1,
	}

	if supers := childByFieldOrType(node, "superclasses", "argument_list"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			base := supers.NamedChild(i)
			if base != nil {
				cls.Bases = append(cls.Bases, nodeText(base, source))
			}
		}
	}

	body := childByFieldOrType(node, "body", "block")
	if body == nil {
		return cls
	}

	// Only functions immediately inside the class body become methods.
	// Duplicate method names follow last-write-wins, matching scoping.
	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(i)
		if stmt == nil {
			continue
		}
		switch stmt.Type() {
		case "function_definition":
			if fn := extractFunction(stmt, source, nil, cls.Name); fn != nil {
				cls.Methods[fn.Name] = fn
			}
		case "decorated_definition":
			methodDecorators, def := splitDecorated(stmt, source)
			if def != nil && def.Type() == "function_definition" {
				if fn := extractFunction(def, source, methodDecorators, cls.Name); fn != nil {
					cls.Methods[fn.Name] = fn
				}
			}
		}
	}

	return cls
}

func extractImport(node *sitter.Node, source []byte) *ImportDescriptor {
	imp := &ImportDescriptor{
		Aliases: make(map[string]string),
		Line:    int(node.StartPoint().Row) + 1,
	}

	var moduleNode *sitter.Node
	if node.Type() == "import_from_statement" || node.Type() == "future_import_statement" {
		imp.IsFromImport = true
		moduleNode = childByFieldOrType(node, "module_name", "dotted_name")
		imp.Module = nodeText(moduleNode, source)
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child == moduleNode {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			imp.Names = append(imp.Names, nodeText(child, source))
		case "aliased_import":
			name := nodeText(childByFieldOrType(child, "name", "dotted_name"), source)
			alias := nodeText(childByFieldOrType(child, "alias", "identifier"), source)
			if name == "" {
				continue
			}
			imp.Names = append(imp.Names, name)
			if alias != "" {
				imp.Aliases[name] = alias
			}
		case "wildcard_import":
			imp.Names = append(imp.Names, WildcardImport)
		}
	}

	if len(imp.Names) == 0 {
		return nil
	}
	return imp
}

// collectAssignTargets records identifier targets of a module-level
// assignment, including tuple unpacking targets.
func collectAssignTargets(m *Module, assign *sitter.Node, source []byte) {
	left := childByFieldOrType(assign, "left", "identifier")
	if left == nil {
		return
	}
	switch left.Type() {
	case "identifier":
		m.Variables[nodeText(left, source)] = true
	case "pattern_list", "tuple_pattern":
		for i := 0; i < int(left.NamedChildCount()); i++ {
			t := left.NamedChild(i)
			if t != nil && t.Type() == "identifier" {
				m.Variables[nodeText(t, source)] = true
			}
		}
	}
}
