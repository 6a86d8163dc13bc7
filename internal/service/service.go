// Package service orchestrates reads and writes for places and astro
// records: cache-first lookups, write-through of "kind:id" entries,
// invalidation of "kind:all", and sunrise/sunset enrichment on the record
// write path.
//
// The services apply no locking across "check cache, fetch, populate"; two
// concurrent misses for one key may both hit the store before either
// populates the cache. That stampede window is accepted.
package service

import "time"

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}

// union merges two id sets preserving no particular order.
func union(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, ids := range [][]int{a, b} {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
