// Package breaking compares structural models of two revisions and reports
// semantically breaking changes to the public surface.
package breaking

// ChangeKind represents the type of breaking change
type ChangeKind string

const (
	FunctionRemoved         ChangeKind = "function_removed"
	MethodRemoved           ChangeKind = "method_removed"
	ClassRemoved            ChangeKind = "class_removed"
	ParameterRemoved        ChangeKind = "parameter_removed"
	SignatureReordered      ChangeKind = "signature_reordered"
	ParameterBecameRequired ChangeKind = "parameter_became_required"
	ParameterBecameOptional ChangeKind = "parameter_became_optional"
	DefaultValueChanged     ChangeKind = "default_value_changed"
	ReturnTypeChanged       ChangeKind = "return_type_changed"
	ReturnTypeAdded         ChangeKind = "return_type_added"
	ReturnTypeRemoved       ChangeKind = "return_type_removed"
	ParamAnnotationChanged  ChangeKind = "param_annotation_changed"
	ParamAnnotationAdded    ChangeKind = "param_annotation_added"
	ParamAnnotationRemoved  ChangeKind = "param_annotation_removed"
)

// Severity indicates how breaking a change is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityOrder ranks severities for sorting, highest first.
func severityOrder(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// ChangeRecord represents one detected breaking change. Records are created
// by the differ; AffectedFiles is the only field mutated after creation, and
// only by the impact coordinator.
type ChangeRecord struct {
	Kind          ChangeKind      `json:"kind"`
	FilePath      string          `json:"filePath"`
	Line          int             `json:"line"`
	ElementName   string          `json:"elementName"` // dotted Class.method for methods
	OldSignature  string          `json:"oldSignature"`
	NewSignature  string          `json:"newSignature"`
	Description   string          `json:"description"`
	Severity      Severity        `json:"severity"`
	Confidence    float64         `json:"confidence"`
	AffectedFiles map[string]bool `json:"affectedFiles,omitempty"`
}

// Key identifies the change for usage-map lookups: "<file>:<element>".
func (c *ChangeRecord) Key() string {
	return c.FilePath + ":" + c.ElementName
}

// Summary provides an overview of a change set
type Summary struct {
	TotalChanges  int            `json:"totalChanges"`
	FilesAnalyzed int            `json:"filesAnalyzed"`
	ByKind        map[string]int `json:"byKind,omitempty"`
	BySeverity    map[string]int `json:"bySeverity,omitempty"`
}

// Summarize computes summary statistics over a change set.
func Summarize(changes []*ChangeRecord, filesAnalyzed int) *Summary {
	s := &Summary{
		TotalChanges:  len(changes),
		FilesAnalyzed: filesAnalyzed,
		ByKind:        make(map[string]int),
		BySeverity:    make(map[string]int),
	}
	for _, c := range changes {
		s.ByKind[string(c.Kind)]++
		s.BySeverity[string(c.Severity)]++
	}
	return s
}

// HasBlocking reports whether the set contains high or critical changes.
func (s *Summary) HasBlocking() bool {
	return s.BySeverity[string(SeverityHigh)] > 0 || s.BySeverity[string(SeverityCritical)] > 0
}
