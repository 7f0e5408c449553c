package database

// IntakeItem records a feed item that has been run through extraction.
type IntakeItem struct {
	GUID        string
	Source      string
	Title       *string
	EntryCount  int
	Error       *string
	ProcessedAt *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	SchemaVersion int
	Keys          int
	StoredBytes   int64
	IntakeItems   int
	IntakeEntries int
}
