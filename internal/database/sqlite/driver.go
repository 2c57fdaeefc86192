package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/schemaforge/litedriver/internal/database"
	"github.com/schemaforge/litedriver/internal/errs"

	_ "modernc.org/sqlite" // register "sqlite" driver (pure Go, no cgo)
)

// Driver is a SQLite implementation of database.DB backed by database/sql
// over modernc.org/sqlite.
type Driver struct {
	db *sql.DB
}

// New opens a SQLite database using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("sqlite", buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid database path", err)
	}

	// One logical connection per driver instance: the runner sequences its
	// statements and tracks BEGIN/COMMIT state, which only holds if every
	// statement runs on the same underlying connection.
	db.SetMaxOpenConns(1)

	d := &Driver{db: db}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// buildDSN constructs the modernc.org/sqlite data source name, applying
// pragmas at connect time so they hold for the connection's lifetime.
func buildDSN(cfg *database.Config) string {
	var params []string
	if cfg.ForeignKeys {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if cfg.JournalMode != "" {
		params = append(params, "_pragma=journal_mode("+cfg.JournalMode+")")
	}
	if cfg.BusyTimeout > 0 {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	}

	dsn := cfg.Path
	if len(params) > 0 {
		dsn += "?" + strings.Join(params, "&")
	}
	return dsn
}

// --- database.DB implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqliteRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return &sqliteRow{row: d.db.QueryRowContext(ctx, query, args...)}
}

func (d *Driver) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return database.Result{}, mapError(err, "exec failed")
	}

	// SQLite always knows both; errors here indicate a driver bug.
	affected, err := res.RowsAffected()
	if err != nil {
		return database.Result{}, mapError(err, "rows affected unavailable")
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return database.Result{}, mapError(err, "last insert id unavailable")
	}

	return database.Result{RowsAffected: affected, LastInsertID: lastID}, nil
}

// --- sqliteRows wraps *sql.Rows ---

type sqliteRows struct{ rows *sql.Rows }

func (r *sqliteRows) Next() bool { return r.rows.Next() }

func (r *sqliteRows) Scan(dest ...any) error {
	return mapError(r.rows.Scan(dest...), "scan failed")
}

func (r *sqliteRows) Columns() ([]string, error) { return r.rows.Columns() }

func (r *sqliteRows) Close() { _ = r.rows.Close() }

func (r *sqliteRows) Err() error { return mapError(r.rows.Err(), "row iteration failed") }

// --- sqliteRow wraps *sql.Row ---

type sqliteRow struct{ row *sql.Row }

func (r *sqliteRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}
	return mapError(err, "scan failed")
}
