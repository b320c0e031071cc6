package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/railspress/themekit/internal/apperr"
	"github.com/railspress/themekit/internal/checksum"
)

// Snapshot is an immutable, point-in-time copy of a theme's full file set.
type Snapshot struct {
	ID          int64
	ThemeID     string
	Number      int
	PublishedAt time.Time
	PublishedBy string
	Files       []SnapshotFile
}

// SnapshotFile is a frozen copy-by-value of one file at publish time.
type SnapshotFile struct {
	Path     string
	Content  []byte
	Checksum string
}

// File returns the content of a snapshot file, or false when absent.
func (s *Snapshot) File(path string) ([]byte, bool) {
	for i := range s.Files {
		if s.Files[i].Path == path {
			return s.Files[i].Content, true
		}
	}
	return nil, false
}

// SnapshotInfo is snapshot metadata without file contents.
type SnapshotInfo struct {
	Number      int
	PublishedAt time.Time
	PublishedBy string
	FileCount   int
	Active      bool
}

// Publish copies tree by value into a new snapshot numbered max+1 and flips
// the theme's active pointer to it, all inside one transaction. Concurrent
// publishes race on the snapshot number; the loser is retried once and then
// surfaced as ErrPublishConflict. A failed publish leaves the previous
// active snapshot serving.
func (db *DB) Publish(themeID, author string, tree map[string][]byte) (*Snapshot, error) {
	snap, err := db.publishOnce(themeID, author, tree)
	if isUniqueViolation(err) {
		snap, err = db.publishOnce(themeID, author, tree)
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("store: publish %s: %w", themeID, apperr.ErrPublishConflict)
		}
	}
	return snap, err
}

func (db *DB) publishOnce(themeID, author string, tree map[string][]byte) (*Snapshot, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin publish: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var number int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(number), 0) + 1 FROM snapshots WHERE theme_id = ?`, themeID,
	).Scan(&number); err != nil {
		return nil, fmt.Errorf("store: allocate snapshot number: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT INTO snapshots (theme_id, number, published_at, published_by) VALUES (?, ?, ?, ?)`,
		themeID, number, now, author,
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert snapshot: %w", err)
	}
	snapID, _ := res.LastInsertId()

	paths := make([]string, 0, len(tree))
	for p := range tree {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	snap := &Snapshot{
		ID:          snapID,
		ThemeID:     themeID,
		Number:      number,
		PublishedAt: now,
		PublishedBy: author,
		Files:       make([]SnapshotFile, 0, len(paths)),
	}

	stmt, err := tx.Prepare(`INSERT INTO snapshot_files (snapshot_id, path, content, checksum) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("store: prepare snapshot file insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range paths {
		content := tree[p]
		cs := checksum.Sum(content)
		if _, err := stmt.Exec(snapID, p, content, cs); err != nil {
			return nil, fmt.Errorf("store: copy %s into snapshot: %w", p, err)
		}
		snap.Files = append(snap.Files, SnapshotFile{Path: p, Content: content, Checksum: cs})
	}

	if _, err := tx.Exec(
		`INSERT INTO active_snapshots (theme_id, snapshot_id) VALUES (?, ?)
		 ON CONFLICT(theme_id) DO UPDATE SET snapshot_id = excluded.snapshot_id`,
		themeID, snapID,
	); err != nil {
		return nil, fmt.Errorf("store: activate snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit publish: %w", err)
	}
	return snap, nil
}

// Rollback reassigns the active pointer to an existing snapshot. No content
// is copied; snapshots are never deleted by rollback.
func (db *DB) Rollback(themeID string, number int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin rollback: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var snapID int64
	err = tx.QueryRow(`SELECT id FROM snapshots WHERE theme_id = ? AND number = ?`, themeID, number).Scan(&snapID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: snapshot %d of %s: %w", number, themeID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: lookup snapshot: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO active_snapshots (theme_id, snapshot_id) VALUES (?, ?)
		 ON CONFLICT(theme_id) DO UPDATE SET snapshot_id = excluded.snapshot_id`,
		themeID, snapID,
	); err != nil {
		return fmt.Errorf("store: reassign active pointer: %w", err)
	}
	return tx.Commit()
}

// ActiveSnapshot returns the theme's active snapshot with all files loaded.
// The returned value is fully materialized: later publishes or rollbacks
// cannot change what a holder of the value observes.
func (db *DB) ActiveSnapshot(themeID string) (*Snapshot, error) {
	snap := &Snapshot{ThemeID: themeID}
	err := db.conn.QueryRow(
		`SELECT s.id, s.number, s.published_at, s.published_by
		 FROM active_snapshots a JOIN snapshots s ON s.id = a.snapshot_id
		 WHERE a.theme_id = ?`,
		themeID,
	).Scan(&snap.ID, &snap.Number, &snap.PublishedAt, &snap.PublishedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: theme %s: %w", themeID, apperr.ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("store: active snapshot: %w", err)
	}

	rows, err := db.conn.Query(
		`SELECT path, content, checksum FROM snapshot_files WHERE snapshot_id = ? ORDER BY path`,
		snap.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: snapshot files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f SnapshotFile
		if err := rows.Scan(&f.Path, &f.Content, &f.Checksum); err != nil {
			return nil, err
		}
		snap.Files = append(snap.Files, f)
	}
	return snap, rows.Err()
}

// Snapshots lists a theme's snapshots newest first, marking the active one.
func (db *DB) Snapshots(themeID string) ([]SnapshotInfo, error) {
	var activeID int64
	err := db.conn.QueryRow(`SELECT snapshot_id FROM active_snapshots WHERE theme_id = ?`, themeID).Scan(&activeID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: active pointer: %w", err)
	}

	rows, err := db.conn.Query(
		`SELECT s.id, s.number, s.published_at, s.published_by,
		        (SELECT COUNT(*) FROM snapshot_files sf WHERE sf.snapshot_id = s.id)
		 FROM snapshots s WHERE s.theme_id = ? ORDER BY s.number DESC`,
		themeID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var id int64
		var si SnapshotInfo
		if err := rows.Scan(&id, &si.Number, &si.PublishedAt, &si.PublishedBy, &si.FileCount); err != nil {
			return nil, err
		}
		si.Active = id == activeID
		out = append(out, si)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint
}
