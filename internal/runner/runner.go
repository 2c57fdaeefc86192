// Package runner executes schema changes against a SQLite database. SQLite
// only supports adding columns in place; every other structural change is
// emulated by rebuilding the table (see recreate.go). A Runner owns one
// logical connection and sequences its statements; it is not safe for
// concurrent use by multiple goroutines.
package runner

import (
	"context"
	"fmt"

	"github.com/schemaforge/litedriver/internal/database"
	"github.com/schemaforge/litedriver/internal/errs"
	"github.com/schemaforge/litedriver/internal/logger"
	"github.com/schemaforge/litedriver/internal/schema"
	"golang.org/x/sync/errgroup"
)

// State is the runner lifecycle. A released runner rejects every operation;
// there is no way back to Active.
type State int

const (
	StateActive State = iota
	StateReleased
)

// Runner executes catalog reads and structural schema changes over one
// database connection.
type Runner struct {
	db           database.DB
	log          *logger.Logger
	naming       schema.NamingStrategy
	introspector *schema.Introspector

	state    State
	txActive bool
}

// New creates an active Runner. A nil naming strategy falls back to the
// default one; a nil logger falls back to the package default.
func New(db database.DB, log *logger.Logger, naming schema.NamingStrategy) *Runner {
	if naming == nil {
		naming = schema.DefaultNamingStrategy{}
	}
	if log == nil {
		log = logger.New(nil)
	}
	return &Runner{
		db:           db,
		log:          log,
		naming:       naming,
		introspector: schema.NewIntrospector(db, naming),
		state:        StateActive,
	}
}

// Release permanently retires the runner. Connection teardown is the
// owner's concern; Release only flips the lifecycle state.
func (r *Runner) Release() {
	r.state = StateReleased
}

func (r *Runner) checkActive() error {
	if r.state == StateReleased {
		return errs.New(errs.ErrKindAlreadyReleased, "runner has already been released")
	}
	return nil
}

// exec runs one statement and reports it to the query sink.
func (r *Runner) exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	res, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.QueryFailed(query, args, err)
		return res, err
	}
	r.log.QuerySucceeded(query, args)
	return res, nil
}

// query runs one row-returning statement and reports it to the query sink.
func (r *Runner) query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.QueryFailed(query, args, err)
		return nil, err
	}
	r.log.QuerySucceeded(query, args)
	return rows, nil
}

// --- transactions (bookkeeping only; SQLite serializes the statements) ---

// StartTransaction begins a transaction.
func (r *Runner) StartTransaction(ctx context.Context) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	if r.txActive {
		return errs.New(errs.ErrKindTransactionActive, "a transaction is already running")
	}
	if _, err := r.exec(ctx, "BEGIN TRANSACTION"); err != nil {
		return err
	}
	r.txActive = true
	return nil
}

// CommitTransaction commits the running transaction.
func (r *Runner) CommitTransaction(ctx context.Context) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	if !r.txActive {
		return errs.New(errs.ErrKindTransactionNotActive, "no transaction is running")
	}
	if _, err := r.exec(ctx, "COMMIT"); err != nil {
		return err
	}
	r.txActive = false
	return nil
}

// RollbackTransaction rolls back the running transaction.
func (r *Runner) RollbackTransaction(ctx context.Context) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	if !r.txActive {
		return errs.New(errs.ErrKindTransactionNotActive, "no transaction is running")
	}
	if _, err := r.exec(ctx, "ROLLBACK"); err != nil {
		return err
	}
	r.txActive = false
	return nil
}

// --- catalog reads ---

// GetTable introspects one table.
func (r *Runner) GetTable(ctx context.Context, name string) (*schema.TableDescriptor, error) {
	if err := r.checkActive(); err != nil {
		return nil, err
	}
	return r.introspector.GetTable(ctx, name)
}

// GetTables introspects the named tables; unknown names are skipped.
func (r *Runner) GetTables(ctx context.Context, names []string) ([]*schema.TableDescriptor, error) {
	if err := r.checkActive(); err != nil {
		return nil, err
	}
	return r.introspector.GetTables(ctx, names)
}

// ListTableNames returns the names of all user tables.
func (r *Runner) ListTableNames(ctx context.Context) ([]string, error) {
	if err := r.checkActive(); err != nil {
		return nil, err
	}
	rows, err := r.query(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name != 'sqlite_sequence' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// --- table and index DDL ---

// CreateTable creates the table described by the descriptor, then its
// attached indices.
func (r *Runner) CreateTable(ctx context.Context, t *schema.TableDescriptor, ifNotExists bool) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}

	stmt, err := schema.CreateTableSQL(t.Name, t, ifNotExists)
	if err != nil {
		return err
	}
	if _, err := r.exec(ctx, stmt); err != nil {
		return err
	}

	return r.createIndices(ctx, t.Indices)
}

// DropTable drops the named table.
func (r *Runner) DropTable(ctx context.Context, name string) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	_, err := r.exec(ctx, schema.DropTableSQL(name))
	return err
}

// CreateIndex creates one index. Issuing it again for an existing index
// name fails with the engine's error; nothing is suppressed.
func (r *Runner) CreateIndex(ctx context.Context, idx *schema.IndexDescriptor) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	_, err := r.exec(ctx, schema.CreateIndexSQL(idx))
	return err
}

// DropIndex drops one index. The table name only feeds the log; SQLite
// resolves indices by name alone.
func (r *Runner) DropIndex(ctx context.Context, table, name string) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	r.log.With().Str("table", table).Str("index", name).Logger().Debug("dropping index")
	_, err := r.exec(ctx, schema.DropIndexSQL(name))
	return err
}

// createIndices rebuilds the given indices concurrently. They have no
// ordering dependency on each other, and no two may share a name.
func (r *Runner) createIndices(ctx context.Context, indices []schema.IndexDescriptor) error {
	var g errgroup.Group
	for i := range indices {
		idx := indices[i]
		g.Go(func() error {
			_, err := r.exec(ctx, schema.CreateIndexSQL(&idx))
			return err
		})
	}
	return g.Wait()
}

// --- structural changes, all funneled through table recreation ---

// AddColumn appends a column to the table. Like every structural change it
// goes through full recreation: one well-tested path for all edits.
func (r *Runner) AddColumn(ctx context.Context, table string, col schema.ColumnDescriptor) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	current, err := r.introspector.GetTable(ctx, table)
	if err != nil {
		return err
	}
	target := current.Clone()
	target.AddColumn(col)
	return r.RecreateTable(ctx, target)
}

// DropColumn removes a column; its data is not carried forward.
func (r *Runner) DropColumn(ctx context.Context, table, column string) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	current, err := r.introspector.GetTable(ctx, table)
	if err != nil {
		return err
	}
	target := current.Clone()
	if !target.RemoveColumn(column) {
		return errs.New(errs.ErrKindNotFound,
			fmt.Sprintf("column %q does not exist on table %q", column, table))
	}
	return r.RecreateTable(ctx, target)
}

// ChangeColumn replaces a column definition, keeping its position. Data in
// the column survives if the new definition keeps the old name.
func (r *Runner) ChangeColumn(ctx context.Context, table, oldName string, col schema.ColumnDescriptor) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	current, err := r.introspector.GetTable(ctx, table)
	if err != nil {
		return err
	}
	target := current.Clone()
	if !target.ReplaceColumn(oldName, col) {
		return errs.New(errs.ErrKindNotFound,
			fmt.Sprintf("column %q does not exist on table %q", oldName, table))
	}
	return r.RecreateTable(ctx, target)
}

// UpdatePrimaryKeys re-tags the table's primary key to exactly the given
// columns. A generated column keeps its autoincrement clause only while it
// remains the sole member of the key; any other retagging strips it, since
// the rendered clause would amount to a second primary key.
func (r *Runner) UpdatePrimaryKeys(ctx context.Context, table string, columns []string) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	current, err := r.introspector.GetTable(ctx, table)
	if err != nil {
		return err
	}

	target := current.Clone()
	wanted := make(map[string]bool, len(columns))
	for _, c := range columns {
		if !target.HasColumn(c) {
			return errs.New(errs.ErrKindNotFound,
				fmt.Sprintf("column %q does not exist on table %q", c, table))
		}
		wanted[c] = true
	}
	sole := len(columns) == 1
	for i := range target.Columns {
		col := &target.Columns[i]
		col.PrimaryKey = wanted[col.Name]
		if col.Generated && !(sole && wanted[col.Name]) {
			col.Generated = false
		}
	}
	target.PrimaryKeys = nil
	return r.RecreateTable(ctx, target)
}

// CreateForeignKey adds a foreign key. An empty name is synthesized through
// the naming strategy.
func (r *Runner) CreateForeignKey(ctx context.Context, table string, fk schema.ForeignKeyDescriptor) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	current, err := r.introspector.GetTable(ctx, table)
	if err != nil {
		return err
	}

	if fk.Name == "" {
		fk.Name = r.naming.ForeignKeyName(table, fk.Columns)
	}
	target := current.Clone()
	target.ForeignKeys = append(target.ForeignKeys, fk)
	for _, local := range fk.Columns {
		if col := target.Column(local); col != nil {
			col.ForeignKeys = append(col.ForeignKeys, fk.Clone())
		}
	}
	return r.RecreateTable(ctx, target)
}

// DropForeignKey removes the named foreign key.
func (r *Runner) DropForeignKey(ctx context.Context, table, fkName string) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	current, err := r.introspector.GetTable(ctx, table)
	if err != nil {
		return err
	}
	target := current.Clone()
	if !target.RemoveForeignKey(fkName) {
		return errs.New(errs.ErrKindNotFound,
			fmt.Sprintf("foreign key %q does not exist on table %q", fkName, table))
	}
	return r.RecreateTable(ctx, target)
}
