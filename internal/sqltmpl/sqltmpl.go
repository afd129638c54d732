// Package sqltmpl renders SQL templates by substituting {{NAME}} placeholders
// with values from a variable map.
//
// Placeholders with no matching variable are left in place untouched; callers
// that need stricter behavior can check the rendered output with Unresolved.
package sqltmpl

import (
	"fmt"
	"os"
	"regexp"
)

// placeholderRegex matches {{NAME}} tokens. Names are word characters only,
// matching the variable names harvested from the environment.
var placeholderRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Expand replaces every {{NAME}} placeholder in template with vars[NAME].
// Unknown placeholders are preserved verbatim.
func Expand(template string, vars map[string]string) string {
	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderRegex.FindStringSubmatch(match)[1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

// Unresolved returns the placeholder names still present in sql after
// expansion, in order of first appearance.
func Unresolved(sql string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRegex.FindAllStringSubmatch(sql, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// LoadFile reads a SQL file and expands its placeholders.
func LoadFile(path string, vars map[string]string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load sql file %s: %w", path, err)
	}
	return Expand(string(content), vars), nil
}
