package usage

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ModulePath derives a Python dotted module path from a file path: strip
// the extension, turn path separators into dots, and drop a leading root
// prefix such as "src". A segment that is not a valid identifier truncates
// the path at that point. This is best-effort inference, not build-system
// resolution; it returns "" when nothing usable remains.
func ModulePath(filePath string, roots []string) string {
	p := filepath.ToSlash(filePath)
	p = strings.TrimSuffix(p, filepath.Ext(p))

	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if !isIdentifier(part) {
			break
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return ""
	}

	module := strings.Join(parts, ".")
	for _, root := range roots {
		if root == "" {
			continue
		}
		if module == root {
			return ""
		}
		if strings.HasPrefix(module, root+".") {
			module = module[len(root)+1:]
			break
		}
	}
	return module
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
