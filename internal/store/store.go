package store

// ThemeStore defines the interface for versioned file and snapshot operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ThemeStore interface {
	Write(themeID, path string, content []byte, author, summary string) (*Version, error)
	Read(themeID, path string) ([]byte, error)
	GetFile(themeID, path string) (*FileInfo, []byte, error)
	History(themeID, path string, limit, offset int) ([]Version, error)
	GetVersion(themeID, path string, version int) (*Version, error)
	Restore(themeID, path string, version int, author string) (*Version, error)
	Delete(themeID, path string) error
	ListFiles(themeID string) ([]FileInfo, error)
	Tree(themeID string) (map[string][]byte, error)
	AllChecksums(themeID string) (map[string]string, error)

	Publish(themeID, author string, tree map[string][]byte) (*Snapshot, error)
	Rollback(themeID string, number int) error
	ActiveSnapshot(themeID string) (*Snapshot, error)
	Snapshots(themeID string) ([]SnapshotInfo, error)

	Close() error
}

// Verify *DB satisfies ThemeStore at compile time.
var _ ThemeStore = (*DB)(nil)
