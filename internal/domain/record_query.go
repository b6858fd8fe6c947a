package domain

// RecordOrder selects the scan order of a record query.
type RecordOrder int

const (
	// OrderByPrefixThenTime orders by (prefix, created_at, id), the order the
	// trend and diff engines partition on.
	OrderByPrefixThenTime RecordOrder = iota
	// OrderByTime orders by (created_at, id).
	OrderByTime
)

// RecordQuery filters the event store. Zero values mean "no restriction".
type RecordQuery struct {
	// Prefix is matched as a string prefix after trailing-slash normalization.
	Prefix string
	// UploadIDs restricts the scan to these uploads when non-empty.
	UploadIDs []string
	Order     RecordOrder
	Limit     int
	Offset    int
}
