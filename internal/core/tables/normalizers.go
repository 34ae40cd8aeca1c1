package tables

import "strings"

// CollapseSpaces trims s and replaces inner runs of whitespace with one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
