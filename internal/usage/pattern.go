package usage

import (
	"fmt"
	"regexp"
	"strings"
)

// GeneratePatterns derives the search patterns for one changed element.
// Module-scoped patterns are emitted only when a dotted module path can be
// inferred from the originating file; the bare call, attribute access, and
// (for Class.method elements) instantiation-then-call patterns are always
// emitted.
func GeneratePatterns(elementName, sourceFile string, roots []string) []Pattern {
	var patterns []Pattern

	module := ModulePath(sourceFile, roots)
	if module != "" {
		qm := regexp.QuoteMeta(module)
		qe := regexp.QuoteMeta(elementName)

		patterns = append(patterns,
			Pattern{
				Expr:    fmt.Sprintf(`from\s+%s\s+import\s+.*\b%s\b`, qm, qe),
				Kind:    KindDirectImport,
				Element: elementName,
			},
			Pattern{
				Expr:    fmt.Sprintf(`import\s+%s\b`, qm),
				Kind:    KindModuleImport,
				Element: elementName,
			},
			Pattern{
				Expr:    fmt.Sprintf(`%s\.%s\b`, qm, qe),
				Kind:    KindQualifiedUsage,
				Element: elementName,
			},
			Pattern{
				Expr:    fmt.Sprintf(`from\s+%s\s+import\s+\*`, qm),
				Kind:    KindStarImport,
				Element: elementName,
			},
		)
	}

	qe := regexp.QuoteMeta(elementName)
	patterns = append(patterns,
		Pattern{
			Expr:    fmt.Sprintf(`\b%s\s*\(`, qe),
			Kind:    KindFunctionCall,
			Element: elementName,
		},
		Pattern{
			Expr:    fmt.Sprintf(`\.%s\b`, qe),
			Kind:    KindAttributeAccess,
			Element: elementName,
		},
	)

	// Class.method elements also match ClassName(...).method( chains.
	if class, method, ok := strings.Cut(elementName, "."); ok && method != "" {
		patterns = append(patterns, Pattern{
			Expr:    fmt.Sprintf(`\b%s\s*\([^)]*\)\.%s\s*\(`, regexp.QuoteMeta(class), regexp.QuoteMeta(method)),
			Kind:    KindMethodCall,
			Element: elementName,
		})
	}

	return patterns
}
