package breaking

import (
	"fmt"
	"sort"

	"pybreak/internal/pysrc"
)

// structuralConfidence is the confidence assigned to differ findings; the
// comparison is exact, unlike the heuristic usage scan.
const structuralConfidence = 1.0

// Diff compares two structural models of the same logical file and returns
// the breaking changes between them. Either side may be an empty model
// (absent file); "everything removed" falls out of the removal checks
// without a special case. Diff never fails on well-formed models.
func Diff(old, new *pysrc.Module, filePath string) []*ChangeRecord {
	var changes []*ChangeRecord

	changes = append(changes, checkRemovedFunctions(old, new, filePath)...)
	changes = append(changes, checkFunctionSignatures(old, new, filePath)...)
	changes = append(changes, checkRemovedClasses(old, new, filePath)...)
	changes = append(changes, checkClassMethods(old, new, filePath)...)
	changes = append(changes, checkImports(old, new, filePath)...)

	return changes
}

func newRecord(kind ChangeKind, filePath string, line int, element, oldSig, newSig, desc string, sev Severity) *ChangeRecord {
	return &ChangeRecord{
		Kind:          kind,
		FilePath:      filePath,
		Line:          line,
		ElementName:   element,
		OldSignature:  oldSig,
		NewSignature:  newSig,
		Description:   desc,
		Severity:      sev,
		Confidence:    structuralConfidence,
		AffectedFiles: make(map[string]bool),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkRemovedFunctions(old, new *pysrc.Module, filePath string) []*ChangeRecord {
	var changes []*ChangeRecord
	for _, name := range sortedKeys(old.Functions) {
		if _, ok := new.Functions[name]; ok {
			continue
		}
		fn := old.Functions[name]
		changes = append(changes, newRecord(
			FunctionRemoved, filePath, fn.Line, name,
			pysrc.FormatSignature(fn), "<removed>",
			fmt.Sprintf("Function '%s' was removed", name),
			SeverityHigh,
		))
	}
	return changes
}

func checkFunctionSignatures(old, new *pysrc.Module, filePath string) []*ChangeRecord {
	var changes []*ChangeRecord
	for _, name := range sortedKeys(old.Functions) {
		newFn, ok := new.Functions[name]
		if !ok {
			continue
		}
		changes = append(changes, compareSignatures(old.Functions[name], newFn, filePath, name)...)
	}
	return changes
}

func checkRemovedClasses(old, new *pysrc.Module, filePath string) []*ChangeRecord {
	var changes []*ChangeRecord
	for _, name := range sortedKeys(old.Classes) {
		if _, ok := new.Classes[name]; ok {
			continue
		}
		cls := old.Classes[name]
		changes = append(changes, newRecord(
			ClassRemoved, filePath, cls.Line, name,
			pysrc.FormatClass(cls), "<removed>",
			fmt.Sprintf("Class '%s' was removed", name),
			SeverityHigh,
		))
	}
	return changes
}

func checkClassMethods(old, new *pysrc.Module, filePath string) []*ChangeRecord {
	var changes []*ChangeRecord
	for _, className := range sortedKeys(old.Classes) {
		newCls, ok := new.Classes[className]
		if !ok {
			continue
		}
		oldCls := old.Classes[className]

		for _, methodName := range sortedKeys(oldCls.Methods) {
			element := className + "." + methodName
			oldMethod := oldCls.Methods[methodName]

			newMethod, ok := newCls.Methods[methodName]
			if !ok {
				changes = append(changes, newRecord(
					MethodRemoved, filePath, oldMethod.Line, element,
					pysrc.FormatSignature(oldMethod), "<removed>",
					fmt.Sprintf("Method '%s' was removed from class '%s'", methodName, className),
					SeverityHigh,
				))
				continue
			}

			changes = append(changes, compareSignatures(oldMethod, newMethod, filePath, element)...)
		}
	}
	return changes
}

// checkImports is reserved for public-export-path detection. Internal import
// rewrites are not breaking for callers, so nothing is reported yet.
func checkImports(_, _ *pysrc.Module, _ string) []*ChangeRecord {
	return nil
}

// compareSignatures applies the per-callable rules: parameter removal,
// reordering of surviving parameters, required/optional transitions, default
// text changes, and the three-way return/parameter annotation comparisons.
func compareSignatures(oldFn, newFn *pysrc.FunctionSignature, filePath, element string) []*ChangeRecord {
	var changes []*ChangeRecord

	oldSig := pysrc.FormatSignature(oldFn)
	newSig := pysrc.FormatSignature(newFn)
	line := newFn.Line

	record := func(kind ChangeKind, desc string, sev Severity) {
		changes = append(changes, newRecord(kind, filePath, line, element, oldSig, newSig, desc, sev))
	}

	newParams := make(map[string]bool, len(newFn.Parameters))
	for _, p := range newFn.Parameters {
		newParams[p] = true
	}
	oldParams := make(map[string]bool, len(oldFn.Parameters))
	for _, p := range oldFn.Parameters {
		oldParams[p] = true
	}

	// Parameter removal: one record per removed name, in old declaration order.
	for _, p := range oldFn.Parameters {
		if !newParams[p] {
			record(ParameterRemoved,
				fmt.Sprintf("Parameter '%s' was removed", p), SeverityHigh)
		}
	}

	// Reordering of the surviving parameters. Additions and removals alone
	// do not trigger this; only a shift in the relative order of names
	// present on both sides does.
	oldSurviving := subsequence(oldFn.Parameters, newParams)
	newSurviving := subsequence(newFn.Parameters, oldParams)
	if !equalStrings(oldSurviving, newSurviving) {
		record(SignatureReordered, "Parameter order changed", SeverityHigh)
	}

	// Required/optional transitions and default text changes.
	for _, p := range oldFn.Parameters {
		if !newParams[p] {
			continue
		}
		hadDefault := oldFn.HasDefault(p)
		hasDefault := newFn.HasDefault(p)

		switch {
		case hadDefault && !hasDefault:
			record(ParameterBecameRequired,
				fmt.Sprintf("Parameter '%s' became required (default value removed)", p), SeverityHigh)
		case !hadDefault && hasDefault:
			record(ParameterBecameOptional,
				fmt.Sprintf("Parameter '%s' became optional (default value added)", p), SeverityLow)
		case hadDefault && hasDefault && oldFn.Defaults[p] != newFn.Defaults[p]:
			record(DefaultValueChanged,
				fmt.Sprintf("Default value for parameter '%s' changed from %s to %s",
					p, oldFn.Defaults[p], newFn.Defaults[p]), SeverityMedium)
		}
	}

	// Return annotation, three-way.
	oldRet, newRet := oldFn.ReturnAnnotation, newFn.ReturnAnnotation
	switch {
	case oldRet != "" && newRet != "" && oldRet != newRet:
		record(ReturnTypeChanged,
			fmt.Sprintf("Return type annotation changed from '%s' to '%s'", oldRet, newRet), SeverityMedium)
	case oldRet != "" && newRet == "":
		record(ReturnTypeRemoved, "Return type annotation removed", SeverityLow)
	case oldRet == "" && newRet != "":
		record(ReturnTypeAdded,
			fmt.Sprintf("Return type annotation added: '%s'", newRet), SeverityLow)
	}

	// Parameter annotations, three-way per shared parameter.
	for _, p := range oldFn.Parameters {
		if !newParams[p] {
			continue
		}
		oldAnn := oldFn.Annotation(p)
		newAnn := newFn.Annotation(p)
		switch {
		case oldAnn != "" && newAnn != "" && oldAnn != newAnn:
			record(ParamAnnotationChanged,
				fmt.Sprintf("Type annotation for parameter '%s' changed from '%s' to '%s'", p, oldAnn, newAnn), SeverityMedium)
		case oldAnn != "" && newAnn == "":
			record(ParamAnnotationRemoved,
				fmt.Sprintf("Type annotation for parameter '%s' removed", p), SeverityLow)
		case oldAnn == "" && newAnn != "":
			record(ParamAnnotationAdded,
				fmt.Sprintf("Type annotation for parameter '%s' added: '%s'", p, newAnn), SeverityLow)
		}
	}

	return changes
}

// subsequence returns the elements of seq whose names appear in keep,
// preserving order.
func subsequence(seq []string, keep map[string]bool) []string {
	var out []string
	for _, s := range seq {
		if keep[s] {
			out = append(out, s)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
