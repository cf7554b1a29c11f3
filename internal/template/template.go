// internal/template/template.go

// Package template expands {{variable}} placeholders inside rule phrases.
package template

import "regexp"

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Expand replaces {{name}} placeholders in a phrase with values from
// vars. A placeholder with no matching variable is left untouched so the
// parser can report it in context.
func Expand(phrase string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(phrase, func(match string) string {
		name := match[2 : len(match)-2]
		if val, ok := vars[name]; ok {
			return val
		}
		return match
	})
}

// ExpandAll expands every phrase in a list, preserving order.
func ExpandAll(phrases []string, vars map[string]string) []string {
	if len(phrases) == 0 {
		return nil
	}
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = Expand(p, vars)
	}
	return out
}
