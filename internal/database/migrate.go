package database

import (
	"database/sql"
	"fmt"
	"log"
)

// schemaVersion reads the board file's PRAGMA user_version.
func schemaVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// hasUnversionedStorage reports whether local_storage exists in a file whose
// user_version was never set. Early board files created the table directly.
func hasUnversionedStorage(conn *sql.DB) (bool, error) {
	var n int
	err := conn.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'local_storage'",
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("looking for local_storage: %w", err)
	}
	return n > 0, nil
}

// migrate applies every migration newer than the file's user_version, one
// transaction per step.
func migrate(conn *sql.DB) error {
	current, err := schemaVersion(conn)
	if err != nil {
		return err
	}

	if current == 0 {
		unversioned, err := hasUnversionedStorage(conn)
		if err != nil {
			return err
		}
		if unversioned {
			// local_storage is migration 1; the intake ledger still needs adding.
			log.Printf("Board file has unversioned local storage, marking schema v1")
			if _, err := conn.Exec("PRAGMA user_version = 1"); err != nil {
				return fmt.Errorf("marking schema v1: %w", err)
			}
			current = 1
		}
	}

	latest := latestVersion()
	if current > latest {
		return fmt.Errorf("board file schema v%d is newer than this build (v%d)", current, latest)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(conn, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(conn *sql.DB, m Migration) error {
	log.Printf("Migrating board file to v%d: %s", m.Version, m.Description)

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.Version, err)
	}
	if err := m.Up(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d commit: %w", m.Version, err)
	}

	// modernc sqlite ignores user_version inside a transaction. Every Up is
	// CREATE ... IF NOT EXISTS, so a crash before this line just reruns it.
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("migration %d: setting user_version: %w", m.Version, err)
	}
	return nil
}
