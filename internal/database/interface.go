package database

import "context"

// DB is the central contract for all database operations.
// Layers above this package talk only to this interface and
// never import the sqlite driver package directly.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection.
	Close()

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Exec executes a statement that returns no rows (DDL, INSERT, ...).
	Exec(ctx context.Context, sql string, args ...any) (Result, error)
}

// Result is the non-row outcome of an executed statement.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set, in the order the
	// engine declared them.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
