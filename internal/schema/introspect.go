package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/schemaforge/litedriver/internal/database"
	"github.com/schemaforge/litedriver/internal/errs"
)

// autoIndexPrefix marks indices SQLite creates itself to back PRIMARY KEY
// and UNIQUE constraints. They cannot be created or dropped by name.
const autoIndexPrefix = "sqlite_autoindex_"

// sequenceTable tracks autoincrement counters and is never a user table.
const sequenceTable = "sqlite_sequence"

// Introspector reverse-engineers TableDescriptors from the SQLite catalog:
// sqlite_master for the table list and original creation text, and the
// table_info / index_list / index_info / foreign_key_list reflection
// commands for structure. Every call builds descriptors fresh; nothing is
// cached.
type Introspector struct {
	db     database.DB
	naming NamingStrategy
}

// NewIntrospector creates an Introspector over the given connection. The
// naming strategy is used only to synthesize foreign-key names, which the
// engine does not store.
func NewIntrospector(db database.DB, naming NamingStrategy) *Introspector {
	return &Introspector{db: db, naming: naming}
}

// GetTables returns one descriptor per existing table among the given
// names. Unknown names are silently skipped. An empty input yields an
// empty result without touching the catalog.
func (in *Introspector) GetTables(ctx context.Context, names []string) ([]*TableDescriptor, error) {
	if len(names) == 0 {
		return []*TableDescriptor{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	q := `SELECT name, sql FROM sqlite_master WHERE type = 'table' AND name != '` +
		sequenceTable + `' AND name IN (` + placeholders + `)`

	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := in.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	type masterRow struct {
		name string
		sql  string
	}
	var found []masterRow
	for rows.Next() {
		var r masterRow
		var createSQL *string
		if err := rows.Scan(&r.name, &createSQL); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		if createSQL != nil {
			r.sql = *createSQL
		}
		found = append(found, r)
	}
	iterErr := rows.Err()
	rows.Close()
	if iterErr != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", iterErr)
	}

	tables := make([]*TableDescriptor, 0, len(found))
	for _, r := range found {
		t, err := in.loadTable(ctx, r.name, r.sql)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// GetTable returns the descriptor of one table, or a not-found error.
func (in *Introspector) GetTable(ctx context.Context, name string) (*TableDescriptor, error) {
	tables, err := in.GetTables(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("table %q does not exist", name))
	}
	return tables[0], nil
}

// Raw reflection row shapes, matching the PRAGMA result sets.

type tableInfoRow struct {
	cid     int
	name    string
	typ     string
	notNull int
	dflt    *string
	pk      int
}

type indexListRow struct {
	seq     int
	name    string
	unique  int
	origin  string // "c" created, "u" unique constraint, "pk" primary key
	partial int
}

type foreignKeyRow struct {
	id       int
	seq      int
	table    string
	from     string
	to       string
	onDelete string
}

// loadTable builds one TableDescriptor. The three per-table reflection
// queries are independent and run in parallel; any failure aborts the
// whole construction.
func (in *Introspector) loadTable(ctx context.Context, name, createSQL string) (*TableDescriptor, error) {
	var (
		infoRows []tableInfoRow
		idxRows  []indexListRow
		fkRows   []foreignKeyRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		infoRows, err = in.tableInfo(gctx, name)
		return err
	})
	g.Go(func() error {
		var err error
		idxRows, err = in.indexList(gctx, name)
		return err
	})
	g.Go(func() error {
		var err error
		fkRows, err = in.foreignKeyList(gctx, name)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := &TableDescriptor{Name: name}

	for _, r := range infoRows {
		table.Columns = append(table.Columns, ColumnDescriptor{
			Name:       r.name,
			Type:       Raw(strings.ToLower(r.typ)),
			Nullable:   r.notNull == 0,
			Default:    r.dflt,
			PrimaryKey: r.pk > 0,
		})
	}

	if gen := AutoincrementColumn(createSQL); gen != "" {
		if col := table.Column(gen); col != nil {
			col.Generated = true
		}
	}

	in.attachForeignKeys(table, fkRows)

	if err := in.attachIndices(ctx, table, idxRows); err != nil {
		return nil, err
	}

	return table, nil
}

// attachForeignKeys groups the reflected rows by constraint id (one row per
// column, ordered by seq) and attaches one synthesized descriptor per
// constraint to the table and to each of its local columns.
func (in *Introspector) attachForeignKeys(table *TableDescriptor, fkRows []foreignKeyRow) {
	sort.SliceStable(fkRows, func(i, j int) bool {
		if fkRows[i].id != fkRows[j].id {
			return fkRows[i].id < fkRows[j].id
		}
		return fkRows[i].seq < fkRows[j].seq
	})

	for i := 0; i < len(fkRows); {
		j := i
		fk := ForeignKeyDescriptor{
			ReferencedTable: fkRows[i].table,
			OnDelete:        fkRows[i].onDelete,
		}
		for ; j < len(fkRows) && fkRows[j].id == fkRows[i].id; j++ {
			fk.Columns = append(fk.Columns, fkRows[j].from)
			fk.ReferencedColumns = append(fk.ReferencedColumns, fkRows[j].to)
		}
		i = j

		if table.Column(fk.Columns[0]) == nil {
			continue
		}
		fk.Name = in.naming.ForeignKeyName(table.Name, fk.Columns)
		table.ForeignKeys = append(table.ForeignKeys, fk)
		for _, local := range fk.Columns {
			if col := table.Column(local); col != nil {
				col.ForeignKeys = append(col.ForeignKeys, fk.Clone())
			}
		}
	}
}

// attachIndices classifies the reflected index list. Primary-key-backed
// indices expand into PrimaryKeyDescriptor entries. A unique auto-index
// over a single column is an implicit UNIQUE constraint: the column's flag
// is set and no IndexDescriptor is materialized (auto-indexes cannot be
// rebuilt by name anyway). Everything else becomes an ordinary index, with
// column order taken from a second reflection query per index.
func (in *Introspector) attachIndices(ctx context.Context, table *TableDescriptor, idxRows []indexListRow) error {
	seen := make(map[string]bool, len(idxRows))

	for _, ix := range idxRows {
		switch {
		case ix.origin == "pk":
			cols, err := in.indexInfo(ctx, ix.name)
			if err != nil {
				return err
			}
			for _, c := range cols {
				table.PrimaryKeys = append(table.PrimaryKeys, PrimaryKeyDescriptor{
					IndexName: ix.name,
					Column:    c,
				})
			}

		case strings.HasPrefix(ix.name, autoIndexPrefix):
			if ix.unique == 0 {
				continue
			}
			cols, err := in.indexInfo(ctx, ix.name)
			if err != nil {
				return err
			}
			if len(cols) == 1 {
				if col := table.Column(cols[0]); col != nil {
					col.Unique = true
				}
			}

		default:
			if seen[ix.name] {
				continue
			}
			seen[ix.name] = true
			cols, err := in.indexInfo(ctx, ix.name)
			if err != nil {
				return err
			}
			table.Indices = append(table.Indices, IndexDescriptor{
				Table:   table.Name,
				Name:    ix.name,
				Columns: cols,
				Unique:  ix.unique == 1,
			})
		}
	}
	return nil
}

// --- reflection queries ---

// PRAGMA arguments cannot be parameterized, so identifiers are quoted in.

func (in *Introspector) tableInfo(ctx context.Context, table string) ([]tableInfoRow, error) {
	q := "PRAGMA table_info(" + database.QuoteIdent(table) + ")"
	rows, err := in.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var out []tableInfoRow
	for rows.Next() {
		var r tableInfoRow
		if err := rows.Scan(&r.cid, &r.name, &r.typ, &r.notNull, &r.dflt, &r.pk); err != nil {
			return nil, fmt.Errorf("scan table_info row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (in *Introspector) indexList(ctx context.Context, table string) ([]indexListRow, error) {
	q := "PRAGMA index_list(" + database.QuoteIdent(table) + ")"
	rows, err := in.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("index_list %s: %w", table, err)
	}
	defer rows.Close()

	var out []indexListRow
	for rows.Next() {
		var r indexListRow
		if err := rows.Scan(&r.seq, &r.name, &r.unique, &r.origin, &r.partial); err != nil {
			return nil, fmt.Errorf("scan index_list row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (in *Introspector) indexInfo(ctx context.Context, index string) ([]string, error) {
	q := "PRAGMA index_info(" + database.QuoteIdent(index) + ")"
	rows, err := in.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("index_info %s: %w", index, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name *string // NULL for rowid or expression members
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("scan index_info row: %w", err)
		}
		if name != nil {
			cols = append(cols, *name)
		}
	}
	return cols, rows.Err()
}

func (in *Introspector) foreignKeyList(ctx context.Context, table string) ([]foreignKeyRow, error) {
	q := "PRAGMA foreign_key_list(" + database.QuoteIdent(table) + ")"
	rows, err := in.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("foreign_key_list %s: %w", table, err)
	}
	defer rows.Close()

	var out []foreignKeyRow
	for rows.Next() {
		var r foreignKeyRow
		var to *string // NULL when the constraint references the parent's primary key
		var onUpdate, match string
		if err := rows.Scan(&r.id, &r.seq, &r.table, &r.from, &to, &onUpdate, &r.onDelete, &match); err != nil {
			return nil, fmt.Errorf("scan foreign_key_list row: %w", err)
		}
		if to != nil {
			r.to = *to
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
