// Package pysrc extracts a structural model of a Python source file's
// public surface using tree-sitter.
package pysrc

// WildcardImport is the sentinel recorded for `from x import *`.
const WildcardImport = "*"

// FunctionSignature describes one callable (function or method).
type FunctionSignature struct {
	Name             string            `json:"name"`
	Parameters       []string          `json:"parameters"`
	Defaults         map[string]string `json:"defaults,omitempty"`
	Vararg           string            `json:"vararg,omitempty"`
	Kwarg            string            `json:"kwarg,omitempty"`
	Annotations      map[string]string `json:"annotations,omitempty"`
	ReturnAnnotation string            `json:"returnAnnotation,omitempty"`
	Decorators       []string          `json:"decorators,omitempty"`
	IsMethod         bool              `json:"isMethod,omitempty"`
	OwningClass      string            `json:"owningClass,omitempty"`
	Line             int               `json:"line"`
}

// HasDefault reports whether the named parameter carries a default value.
func (f *FunctionSignature) HasDefault(param string) bool {
	_, ok := f.Defaults[param]
	return ok
}

// Annotation returns the annotation source text for a parameter name.
// Lookups cover positional parameters as well as vararg/kwarg names.
func (f *FunctionSignature) Annotation(param string) string {
	return f.Annotations[param]
}

// ClassDescriptor describes one top-level class.
type ClassDescriptor struct {
	Name       string                        `json:"name"`
	Bases      []string                      `json:"bases,omitempty"`
	Decorators []string                      `json:"decorators,omitempty"`
	Methods    map[string]*FunctionSignature `json:"methods,omitempty"`
	Line       int                           `json:"line"`
}

// ImportDescriptor describes one import statement.
type ImportDescriptor struct {
	Module       string            `json:"module,omitempty"`
	Names        []string          `json:"names"`
	Aliases      map[string]string `json:"aliases,omitempty"`
	IsFromImport bool              `json:"isFromImport,omitempty"`
	Line         int               `json:"line"`
}

// Module is the structural model of one file at one revision. It is built
// once by Extract and never mutated afterwards. An absent file is
// represented by an empty Module, not nil, so diff logic has a single
// codepath.
type Module struct {
	FilePath  string                        `json:"filePath"`
	Functions map[string]*FunctionSignature `json:"functions"`
	Classes   map[string]*ClassDescriptor   `json:"classes"`
	Imports   map[string]*ImportDescriptor  `json:"imports"`
	Variables map[string]bool               `json:"variables,omitempty"`
}

// NewModule returns an empty structural model for the given path.
func NewModule(filePath string) *Module {
	return &Module{
		FilePath:  filePath,
		Functions: make(map[string]*FunctionSignature),
		Classes:   make(map[string]*ClassDescriptor),
		Imports:   make(map[string]*ImportDescriptor),
		Variables: make(map[string]bool),
	}
}

// IsEmpty reports whether the model records no declarations at all.
func (m *Module) IsEmpty() bool {
	return len(m.Functions) == 0 && len(m.Classes) == 0 &&
		len(m.Imports) == 0 && len(m.Variables) == 0
}
