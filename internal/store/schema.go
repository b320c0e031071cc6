// Package store provides the SQLite-backed versioned theme file store and
// the published snapshot manager.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS theme_files (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	theme_id         TEXT NOT NULL,
	path             TEXT NOT NULL,
	file_type        TEXT NOT NULL DEFAULT '',
	current_checksum TEXT NOT NULL DEFAULT '',
	current_version  INTEGER NOT NULL DEFAULT 0,
	deleted          INTEGER NOT NULL DEFAULT 0,
	UNIQUE(theme_id, path)
);

CREATE TABLE IF NOT EXISTS file_versions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id    INTEGER NOT NULL REFERENCES theme_files(id),
	version    INTEGER NOT NULL,
	content    BLOB NOT NULL,
	size       INTEGER NOT NULL,
	checksum   TEXT NOT NULL,
	author     TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(file_id, version)
);

CREATE TABLE IF NOT EXISTS snapshots (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	theme_id     TEXT NOT NULL,
	number       INTEGER NOT NULL,
	published_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	published_by TEXT NOT NULL DEFAULT '',
	UNIQUE(theme_id, number)
);

CREATE TABLE IF NOT EXISTS snapshot_files (
	snapshot_id INTEGER NOT NULL REFERENCES snapshots(id),
	path        TEXT NOT NULL,
	content     BLOB NOT NULL,
	checksum    TEXT NOT NULL,
	UNIQUE(snapshot_id, path)
);

CREATE TABLE IF NOT EXISTS active_snapshots (
	theme_id    TEXT PRIMARY KEY,
	snapshot_id INTEGER NOT NULL REFERENCES snapshots(id)
);

CREATE INDEX IF NOT EXISTS idx_theme_files_theme ON theme_files(theme_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_theme ON snapshots(theme_id);
`

// DB wraps a sql.DB with theme store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// Write transactions take the lock immediately so concurrent writers are
// serialized instead of deadlocking on a deferred lock upgrade.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
