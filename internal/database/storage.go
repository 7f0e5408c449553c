package database

import (
	"database/sql"
	"fmt"
)

// Load returns the value stored under key, or nil if the key is absent.
func (db *DB) Load(key string) ([]byte, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM local_storage WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return []byte(value), nil
}

// Save replaces the value stored under key.
func (db *DB) Save(key string, data []byte) error {
	_, err := db.conn.Exec(
		`INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// Keys returns all stored keys in lexical order.
func (db *DB) Keys() ([]string, error) {
	rows, err := db.conn.Query("SELECT key FROM local_storage ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
