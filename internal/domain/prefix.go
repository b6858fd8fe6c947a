package domain

import "strings"

// PrefixPredicate reports whether a stored prefix matches a query.
type PrefixPredicate func(prefix string) bool

// NormalizePrefix strips a single trailing slash from a user supplied prefix.
func NormalizePrefix(query string) string {
	return strings.TrimSuffix(query, "/")
}

// MatchPrefix returns a case-sensitive string-prefix predicate for query.
// An empty query (after normalization) matches everything.
func MatchPrefix(query string) PrefixPredicate {
	normalized := NormalizePrefix(query)
	if normalized == "" {
		return func(string) bool { return true }
	}
	return func(prefix string) bool {
		return strings.HasPrefix(prefix, normalized)
	}
}

// FilterByPrefix keeps the records whose prefix matches query.
func FilterByPrefix(records []ErrorRecord, query string) []ErrorRecord {
	match := MatchPrefix(query)
	filtered := make([]ErrorRecord, 0, len(records))
	for _, record := range records {
		if match(record.Prefix) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// FilterByUploads keeps the records belonging to one of uploadIDs. An empty
// set keeps everything.
func FilterByUploads(records []ErrorRecord, uploadIDs []string) []ErrorRecord {
	if len(uploadIDs) == 0 {
		return records
	}
	allowed := make(map[string]struct{}, len(uploadIDs))
	for _, id := range uploadIDs {
		allowed[id] = struct{}{}
	}
	filtered := make([]ErrorRecord, 0, len(records))
	for _, record := range records {
		if _, ok := allowed[record.UploadID]; ok {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
