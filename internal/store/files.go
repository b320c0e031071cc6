package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/railspress/themekit/internal/apperr"
	"github.com/railspress/themekit/internal/checksum"
)

// FileInfo describes a live file in a theme's draft state.
type FileInfo struct {
	ThemeID   string
	Path      string
	Type      string
	Checksum  string
	Version   int
	UpdatedAt time.Time
}

// Version is one immutable entry in a file's version chain.
type Version struct {
	Path      string
	Version   int
	Content   []byte
	Size      int64
	Checksum  string
	Author    string
	Summary   string
	CreatedAt time.Time
}

// DefaultHistoryLimit bounds History when the caller passes limit <= 0.
const DefaultHistoryLimit = 50

// Write appends content as a new version of (themeID, path). Writing content
// whose checksum equals the file's current checksum is a no-op that returns
// the existing latest version. A write to a soft-deleted file revives it.
func (db *DB) Write(themeID, path string, content []byte, author, summary string) (*Version, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	cs := checksum.Sum(content)

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var fileID int64
	var current string
	var currentVersion, deleted int
	err = tx.QueryRow(
		`SELECT id, current_checksum, current_version, deleted FROM theme_files WHERE theme_id = ? AND path = ?`,
		themeID, path,
	).Scan(&fileID, &current, &currentVersion, &deleted)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(
			`INSERT INTO theme_files (theme_id, path, file_type) VALUES (?, ?, ?)`,
			themeID, path, fileType(path),
		)
		if err != nil {
			return nil, fmt.Errorf("store: insert file record: %w", err)
		}
		fileID, _ = res.LastInsertId()
	case err != nil:
		return nil, fmt.Errorf("store: lookup file record: %w", err)
	case deleted == 0 && current == cs:
		// Unchanged content: return the existing latest version.
		v, err := scanVersion(tx.QueryRow(versionSelectSQL+` WHERE file_id = ? AND version = ?`, fileID, currentVersion), path)
		if err != nil {
			return nil, err
		}
		return v, tx.Commit()
	}

	next := currentVersion + 1
	now := time.Now().UTC()
	if _, err := tx.Exec(
		`INSERT INTO file_versions (file_id, version, content, size, checksum, author, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fileID, next, content, len(content), cs, author, summary, now,
	); err != nil {
		return nil, fmt.Errorf("store: insert version: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE theme_files SET current_checksum = ?, current_version = ?, deleted = 0 WHERE id = ?`,
		cs, next, fileID,
	); err != nil {
		return nil, fmt.Errorf("store: advance file record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit write: %w", err)
	}

	return &Version{
		Path:      path,
		Version:   next,
		Content:   content,
		Size:      int64(len(content)),
		Checksum:  cs,
		Author:    author,
		Summary:   summary,
		CreatedAt: now,
	}, nil
}

// Read returns the content of the latest live version of (themeID, path).
func (db *DB) Read(themeID, path string) ([]byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	var content []byte
	err := db.conn.QueryRow(
		`SELECT v.content FROM theme_files f
		 JOIN file_versions v ON v.file_id = f.id AND v.version = f.current_version
		 WHERE f.theme_id = ? AND f.path = ? AND f.deleted = 0`,
		themeID, path,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	return content, nil
}

// GetFile returns the latest live version of (themeID, path) as metadata
// plus content in one lookup.
func (db *DB) GetFile(themeID, path string) (*FileInfo, []byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, nil, err
	}
	fi := FileInfo{ThemeID: themeID, Path: path}
	var content []byte
	err := db.conn.QueryRow(
		`SELECT f.file_type, f.current_checksum, f.current_version, v.created_at, v.content
		 FROM theme_files f JOIN file_versions v ON v.file_id = f.id AND v.version = f.current_version
		 WHERE f.theme_id = ? AND f.path = ? AND f.deleted = 0`,
		themeID, path,
	).Scan(&fi.Type, &fi.Checksum, &fi.Version, &fi.UpdatedAt, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("store: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("store: get %s: %w", path, err)
	}
	return &fi, content, nil
}

// History returns version metadata for (themeID, path), newest first.
// Content bytes are not loaded; use GetVersion for a full version.
func (db *DB) History(themeID, path string, limit, offset int) ([]Version, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.conn.Query(
		`SELECT v.version, v.size, v.checksum, v.author, v.summary, v.created_at
		 FROM theme_files f JOIN file_versions v ON v.file_id = f.id
		 WHERE f.theme_id = ? AND f.path = ?
		 ORDER BY v.version DESC LIMIT ? OFFSET ?`,
		themeID, path, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("store: history %s: %w", path, err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		v := Version{Path: path}
		if err := rows.Scan(&v.Version, &v.Size, &v.Checksum, &v.Author, &v.Summary, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		// An offset past the end of an existing file's history is an empty
		// page, not a missing file.
		var exists int
		err := db.conn.QueryRow(
			`SELECT 1 FROM theme_files WHERE theme_id = ? AND path = ?`, themeID, path,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: %s: %w", path, apperr.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("store: history %s: %w", path, err)
		}
		return []Version{}, nil
	}
	return out, nil
}

// GetVersion returns one historical version of (themeID, path) with content.
func (db *DB) GetVersion(themeID, path string, version int) (*Version, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	row := db.conn.QueryRow(
		versionSelectSQL+` WHERE file_id = (SELECT id FROM theme_files WHERE theme_id = ? AND path = ?) AND version = ?`,
		themeID, path, version,
	)
	return scanVersion(row, path)
}

// Restore re-writes the content of a historical version as a new version.
// The stored checksum is verified against the content before the write;
// a mismatch indicates corruption and is never silently repaired.
func (db *DB) Restore(themeID, path string, version int, author string) (*Version, error) {
	v, err := db.GetVersion(themeID, path, version)
	if err != nil {
		return nil, err
	}
	if checksum.Sum(v.Content) != v.Checksum {
		return nil, fmt.Errorf("store: version %d of %s: %w", version, path, apperr.ErrChecksumMismatch)
	}
	return db.Write(themeID, path, v.Content, author, fmt.Sprintf("restore of version %d", version))
}

// Delete soft-deletes a file: the live pointer is cleared but every
// version stays in history for audit and restore.
func (db *DB) Delete(themeID, path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	res, err := db.conn.Exec(
		`UPDATE theme_files SET deleted = 1, current_checksum = '' WHERE theme_id = ? AND path = ? AND deleted = 0`,
		themeID, path,
	)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", path, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: %s: %w", path, apperr.ErrNotFound)
	}
	return nil
}

// ListFiles returns every live file of a theme ordered by path.
func (db *DB) ListFiles(themeID string) ([]FileInfo, error) {
	rows, err := db.conn.Query(
		`SELECT f.path, f.file_type, f.current_checksum, f.current_version, v.created_at
		 FROM theme_files f JOIN file_versions v ON v.file_id = f.id AND v.version = f.current_version
		 WHERE f.theme_id = ? AND f.deleted = 0 ORDER BY f.path`,
		themeID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list files: %w", err)
	}
	defer rows.Close()

	var out []FileInfo
	for rows.Next() {
		fi := FileInfo{ThemeID: themeID}
		if err := rows.Scan(&fi.Path, &fi.Type, &fi.Checksum, &fi.Version, &fi.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, fi)
	}
	return out, rows.Err()
}

// Tree materializes path -> latest content for every live file of a theme.
// This is the draft state a publish copies by value.
func (db *DB) Tree(themeID string) (map[string][]byte, error) {
	rows, err := db.conn.Query(
		`SELECT f.path, v.content
		 FROM theme_files f JOIN file_versions v ON v.file_id = f.id AND v.version = f.current_version
		 WHERE f.theme_id = ? AND f.deleted = 0`,
		themeID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: tree: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var p string
		var content []byte
		if err := rows.Scan(&p, &content); err != nil {
			return nil, err
		}
		out[p] = content
	}
	return out, rows.Err()
}

// AllChecksums returns path -> current checksum for every live file of a theme.
func (db *DB) AllChecksums(themeID string) (map[string]string, error) {
	rows, err := db.conn.Query(
		`SELECT path, current_checksum FROM theme_files WHERE theme_id = ? AND deleted = 0`,
		themeID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

const versionSelectSQL = `SELECT version, content, size, checksum, author, summary, created_at FROM file_versions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner, path string) (*Version, error) {
	v := Version{Path: path}
	err := row.Scan(&v.Version, &v.Content, &v.Size, &v.Checksum, &v.Author, &v.Summary, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan version: %w", err)
	}
	return &v, nil
}
