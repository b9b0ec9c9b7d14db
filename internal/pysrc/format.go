package pysrc

import "strings"

// FormatSignature renders a callable for display:
//
//	name(p1: T1 = d1, p2, *args, **kwargs) -> R
//
// Only annotations and defaults that are present are rendered; vararg and
// kwarg follow the positional parameters in that order.
func FormatSignature(fn *FunctionSignature) string {
	if fn == nil {
		return ""
	}

	var parts []string
	for _, param := range fn.Parameters {
		p := param
		if ann, ok := fn.Annotations[param]; ok && ann != "" {
			p += ": " + ann
		}
		if def, ok := fn.Defaults[param]; ok {
			p += " = " + def
		}
		parts = append(parts, p)
	}

	if fn.Vararg != "" {
		parts = append(parts, "*"+fn.Vararg)
	}
	if fn.Kwarg != "" {
		parts = append(parts, "**"+fn.Kwarg)
	}

	var b strings.Builder
	b.WriteString(fn.Name)
	b.WriteString("(")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(")")

	if fn.ReturnAnnotation != "" {
		b.WriteString(" -> ")
		b.WriteString(fn.ReturnAnnotation)
	}

	return b.String()
}

// FormatClass renders a class header for display: `class Name(Base1, Base2)`.
func FormatClass(cls *ClassDescriptor) string {
	if cls == nil {
		return ""
	}
	return "class " + cls.Name + "(" + strings.Join(cls.Bases, ", ") + ")"
}
