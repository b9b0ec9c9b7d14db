// Package usage searches a codebase for references to changed elements.
// It is recall-biased: duplicate findings across the two search passes are
// expected and acceptable.
package usage

// Kind classifies how a changed element is referenced.
type Kind string

const (
	KindDirectImport       Kind = "direct_import"
	KindModuleImport       Kind = "module_import"
	KindQualifiedUsage     Kind = "qualified_usage"
	KindFunctionCall       Kind = "function_call"
	KindClassInstantiation Kind = "class_instantiation"
	KindAttributeAccess    Kind = "attribute_access"
	KindMethodCall         Kind = "method_call"
	KindStarImport         Kind = "star_import"
	KindNameReference      Kind = "name_reference"
)

// Confidence returns the heuristic confidence that a match of this kind is
// a genuine usage rather than a name collision.
func (k Kind) Confidence() float64 {
	switch k {
	case KindDirectImport, KindQualifiedUsage, KindMethodCall:
		return 0.9
	case KindFunctionCall, KindClassInstantiation, KindModuleImport:
		return 0.7
	case KindStarImport:
		return 0.5
	case KindAttributeAccess, KindNameReference:
		return 0.4
	default:
		return 0.4
	}
}

// Pattern is one way a changed element could be referenced elsewhere.
type Pattern struct {
	Expr    string `json:"expr"` // regular expression source, applied per line
	Kind    Kind   `json:"kind"`
	Element string `json:"element"`
}

// Location is a place in the codebase that appears to reference a changed
// element. Immutable once produced.
type Location struct {
	FilePath   string  `json:"filePath"`
	Line       int     `json:"line"`
	Context    string  `json:"context"`
	Kind       Kind    `json:"kind"`
	Confidence float64 `json:"confidence"`
}
