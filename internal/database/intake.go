package database

import "database/sql"

// IsIntakeItemProcessed reports whether a feed item has already been handled.
func (db *DB) IsIntakeItemProcessed(guid string) (bool, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM intake_items WHERE guid = ?", guid).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkIntakeItemProcessed records the outcome of extracting a feed item.
// A failed extraction is recorded with its error so it is not retried on
// every run; delete the row to retry it.
func (db *DB) MarkIntakeItemProcessed(guid, source, title string, entryCount int, extractErr error) error {
	var titlePtr, errPtr *string
	if title != "" {
		titlePtr = &title
	}
	if extractErr != nil {
		msg := extractErr.Error()
		errPtr = &msg
	}
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO intake_items (guid, source, title, entry_count, error) VALUES (?, ?, ?, ?, ?)`,
		guid, source, titlePtr, entryCount, errPtr,
	)
	return err
}

// GetIntakeItem returns a single intake record, or nil if absent.
func (db *DB) GetIntakeItem(guid string) (*IntakeItem, error) {
	row := db.conn.QueryRow(
		`SELECT guid, source, title, entry_count, error, processed_at FROM intake_items WHERE guid = ?`,
		guid,
	)
	var it IntakeItem
	if err := row.Scan(&it.GUID, &it.Source, &it.Title, &it.EntryCount, &it.Error, &it.ProcessedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

// GetRecentIntakeItems returns the most recently processed intake records.
func (db *DB) GetRecentIntakeItems(limit int) ([]IntakeItem, error) {
	rows, err := db.conn.Query(
		`SELECT guid, source, title, entry_count, error, processed_at FROM intake_items
		 ORDER BY processed_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []IntakeItem
	for rows.Next() {
		var it IntakeItem
		if err := rows.Scan(&it.GUID, &it.Source, &it.Title, &it.EntryCount, &it.Error, &it.ProcessedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
