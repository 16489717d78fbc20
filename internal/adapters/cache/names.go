// Package cache holds the CoordinateCache adapters: SQLite, Postgres,
// Redis and a tiered combination of two of them.
package cache

import "strings"

// uniqueNames trims names and drops blanks and duplicates, keeping the
// first-seen order.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
