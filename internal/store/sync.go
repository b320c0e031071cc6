package store

import (
	"context"
	"log/slog"

	"github.com/railspress/themekit/internal/source"
)

// SyncAuthor is recorded on versions created by source-tree syncs.
const SyncAuthor = "source-sync"

// SyncFromSource walks a packaged theme source tree and writes every file
// whose checksum differs from the theme's stored current checksum. Unchanged
// files are skipped without touching the store, so a repeated sync over an
// unchanged tree creates zero new versions. The walk checks ctx between
// files and never holds a store-wide lock, so it is safe to interleave with
// unrelated reads and cancel midway.
//
// Sync always targets the draft state; the active published snapshot only
// changes on publish.
func SyncFromSource(ctx context.Context, db *DB, themeID string, src source.Provider, logger *slog.Logger) (int, error) {
	metas, err := src.List("")
	if err != nil {
		return 0, err
	}

	checksums, err := db.AllChecksums(themeID)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := src.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if _, err := db.Write(themeID, m.Path, data, SyncAuthor, "synced from source"); err != nil {
			logger.Warn("sync: write failed", slog.String("theme", themeID), slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		changed++
		logger.Debug("sync: wrote", slog.String("theme", themeID), slog.String("path", m.Path))
	}

	return changed, nil
}
