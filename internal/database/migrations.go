package database

import "database/sql"

// Migration is one schema step of the board file.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations run in order; new steps go at the end with the next Version.
var migrations = []Migration{
	{
		Version:     1,
		Description: "local storage",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS local_storage (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT DEFAULT (datetime('now'))
);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "intake ledger",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS intake_items (
    guid TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    title TEXT,
    entry_count INTEGER DEFAULT 0,
    error TEXT,
    processed_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_intake_items_source ON intake_items(source);
`)
			return err
		},
	},
}

// latestVersion is the schema version this build writes.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
