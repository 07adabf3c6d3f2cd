// Package strings holds list helpers for comma-separated inputs such as query
// parameters and environment variables.
package strings

import (
	"strings"
)

// SplitList splits every value on commas, trims each item and drops empties
// and repeats. Order of first appearance is preserved. It returns nil when
// nothing remains.
//
//	SplitList([]string{"employees.create, cycles.delete", "employees.create", " "})
//	// []string{"employees.create", "cycles.delete"}
func SplitList(values ...string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
