package database

import "time"

// Config holds all settings needed to open an embedded database file.
type Config struct {
	// Path is the database file path, or ":memory:" for a transient
	// in-memory database.
	Path string

	// ForeignKeys enables foreign-key enforcement (PRAGMA foreign_keys=ON).
	ForeignKeys bool

	// JournalMode is the SQLite journal mode (e.g. "WAL", "DELETE").
	// Empty means the engine default.
	JournalMode string

	// BusyTimeout is how long a statement waits on a locked database
	// before failing with SQLITE_BUSY.
	BusyTimeout time.Duration

	// ConnectTimeout is the time limit for opening and pinging the database.
	ConnectTimeout time.Duration
}

// DefaultConfig returns sensible settings for the given database path.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:           path,
		ForeignKeys:    true,
		JournalMode:    "WAL",
		BusyTimeout:    5 * time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}
