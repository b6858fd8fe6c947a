package analytics

import (
	"sort"
	"strings"
)

// NextSegments returns the distinct path segments that follow query in the
// candidate prefixes. A remainder without "/" is returned whole; otherwise the
// segment runs up to and including the first "/".
func NextSegments(query string, candidates []string) []string {
	seen := make(map[string]struct{})
	for _, candidate := range candidates {
		remainder, ok := strings.CutPrefix(candidate, query)
		if !ok || remainder == "" {
			continue
		}
		segment := remainder
		if idx := strings.Index(remainder, "/"); idx >= 0 {
			segment = remainder[:idx+1]
		}
		seen[segment] = struct{}{}
	}

	segments := make([]string, 0, len(seen))
	for segment := range seen {
		segments = append(segments, segment)
	}
	sort.Strings(segments)
	return segments
}
