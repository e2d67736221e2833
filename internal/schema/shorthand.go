package schema

import "strings"

// IsShorthandRef reports whether a bare document string is the `@path`
// shorthand for `{type: same_as, ref: "@path"}` (spec.md §6).
func IsShorthandRef(s string) bool {
	return strings.HasPrefix(s, "@") && len(s) > 1
}
