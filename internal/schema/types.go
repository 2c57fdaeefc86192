// Package schema holds the engine-independent descriptor model for tables,
// columns, keys and indices, the DDL rendering for SQLite, and the catalog
// introspection that reverse-engineers descriptors from a live database.
package schema

import (
	"fmt"
	"strings"

	"github.com/schemaforge/litedriver/internal/errs"
)

// DeclaredType carries a column's type either as a logical type that is
// resolved through the SQLite type mapping, or as the raw declared string
// read back from the catalog, rendered verbatim. The variant is fixed when
// the descriptor is constructed; rendering never inspects where a column
// came from.
type DeclaredType struct {
	Logical ColumnType // set when the column was built from a rich schema
	Raw     string     // set when the column was built from catalog metadata
}

// Mapped returns a DeclaredType resolved through the SQLite type mapping.
func Mapped(t ColumnType) DeclaredType {
	return DeclaredType{Logical: t}
}

// Raw returns a DeclaredType rendered verbatim.
func Raw(s string) DeclaredType {
	return DeclaredType{Raw: s}
}

// IsMapped reports whether the type goes through the logical mapping.
func (t DeclaredType) IsMapped() bool {
	return t.Logical != ""
}

// ColumnDescriptor describes a single column of a table.
type ColumnDescriptor struct {
	// Name is unique within a table.
	Name string

	Type     DeclaredType
	Nullable bool

	// Default is the default-value literal, nil if none.
	Default *string

	// PrimaryKey marks membership in the table's primary key.
	PrimaryKey bool

	Unique bool

	// Generated marks the engine-assigned autoincrement primary key.
	// At most one column per table may carry it.
	Generated bool

	// ForeignKeys are the foreign keys this column participates in as a
	// local column. The authoritative list lives on the TableDescriptor.
	ForeignKeys []ForeignKeyDescriptor
}

// Clone returns a deep copy of the column.
func (c *ColumnDescriptor) Clone() ColumnDescriptor {
	out := *c
	if c.Default != nil {
		v := *c.Default
		out.Default = &v
	}
	out.ForeignKeys = cloneForeignKeys(c.ForeignKeys)
	return out
}

// PrimaryKeyDescriptor is one column of a table's primary key, tagged with
// the catalog index backing it. A composite key is the set of records
// sharing the same index name, in discovery order.
type PrimaryKeyDescriptor struct {
	IndexName string
	Column    string
}

// ForeignKeyDescriptor describes one foreign-key constraint. Local and
// referenced column lists always have equal arity.
type ForeignKeyDescriptor struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string // "", "CASCADE", "SET NULL", ...
}

// Clone returns a deep copy of the foreign key.
func (fk *ForeignKeyDescriptor) Clone() ForeignKeyDescriptor {
	out := *fk
	out.Columns = append([]string(nil), fk.Columns...)
	out.ReferencedColumns = append([]string(nil), fk.ReferencedColumns...)
	return out
}

func cloneForeignKeys(fks []ForeignKeyDescriptor) []ForeignKeyDescriptor {
	if fks == nil {
		return nil
	}
	out := make([]ForeignKeyDescriptor, len(fks))
	for i := range fks {
		out[i] = fks[i].Clone()
	}
	return out
}

// IndexDescriptor describes one ordinary index: not the index backing the
// primary key, and not an auto-index backing a declared single-column
// UNIQUE constraint.
type IndexDescriptor struct {
	Table   string
	Name    string // unique within a table
	Columns []string
	Unique  bool
}

// Clone returns a deep copy of the index.
func (i *IndexDescriptor) Clone() IndexDescriptor {
	out := *i
	out.Columns = append([]string(nil), i.Columns...)
	return out
}

// TableDescriptor is the in-memory representation of one table. The catalog
// reader constructs it fresh on every introspection call; callers wanting a
// modified target schema clone it and edit the clone.
type TableDescriptor struct {
	Name        string
	Columns     []ColumnDescriptor
	PrimaryKeys []PrimaryKeyDescriptor
	ForeignKeys []ForeignKeyDescriptor
	Indices     []IndexDescriptor
}

// Clone returns a deep copy of the table descriptor.
func (t *TableDescriptor) Clone() *TableDescriptor {
	out := &TableDescriptor{Name: t.Name}

	out.Columns = make([]ColumnDescriptor, len(t.Columns))
	for i := range t.Columns {
		out.Columns[i] = t.Columns[i].Clone()
	}

	out.PrimaryKeys = append([]PrimaryKeyDescriptor(nil), t.PrimaryKeys...)
	out.ForeignKeys = cloneForeignKeys(t.ForeignKeys)

	if t.Indices != nil {
		out.Indices = make([]IndexDescriptor, len(t.Indices))
		for i := range t.Indices {
			out.Indices[i] = t.Indices[i].Clone()
		}
	}

	return out
}

// Column returns a pointer to the named column, or nil.
func (t *TableDescriptor) Column(name string) *ColumnDescriptor {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasColumn reports whether the table declares the named column.
func (t *TableDescriptor) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// ColumnNames returns the declared column names in order.
func (t *TableDescriptor) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i := range t.Columns {
		names[i] = t.Columns[i].Name
	}
	return names
}

// AddColumn appends a column.
func (t *TableDescriptor) AddColumn(col ColumnDescriptor) {
	t.Columns = append(t.Columns, col)
}

// RemoveColumn deletes the named column, preserving the order of the rest.
// It reports whether the column existed.
func (t *TableDescriptor) RemoveColumn(name string) bool {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceColumn swaps the named column for a new definition in place,
// keeping its position. It reports whether the column existed.
func (t *TableDescriptor) ReplaceColumn(name string, col ColumnDescriptor) bool {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			t.Columns[i] = col
			return true
		}
	}
	return false
}

// RemoveForeignKey deletes the named foreign key from the table and from
// any column it was attached to. It reports whether the key existed.
func (t *TableDescriptor) RemoveForeignKey(name string) bool {
	found := false
	for i := range t.ForeignKeys {
		if t.ForeignKeys[i].Name == name {
			t.ForeignKeys = append(t.ForeignKeys[:i], t.ForeignKeys[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for i := range t.Columns {
		col := &t.Columns[i]
		for j := range col.ForeignKeys {
			if col.ForeignKeys[j].Name == name {
				col.ForeignKeys = append(col.ForeignKeys[:j], col.ForeignKeys[j+1:]...)
				break
			}
		}
	}
	return true
}

// Validate checks the descriptor's structural invariants: unique column
// names, at most one generated column, and equal arity on every foreign key.
func (t *TableDescriptor) Validate() error {
	seen := make(map[string]bool, len(t.Columns))
	generated := 0
	for i := range t.Columns {
		col := &t.Columns[i]
		if seen[col.Name] {
			return errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("table %q declares column %q twice", t.Name, col.Name))
		}
		seen[col.Name] = true
		if col.Generated {
			generated++
		}
	}
	if generated > 1 {
		return errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("table %q declares %d generated columns, at most one is allowed", t.Name, generated))
	}
	for i := range t.ForeignKeys {
		fk := &t.ForeignKeys[i]
		if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.ReferencedColumns) {
			return errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("foreign key %q on table %q has mismatched column lists", fk.Name, t.Name))
		}
	}
	return nil
}

// NamingStrategy synthesizes names for constraints the engine does not
// name itself.
type NamingStrategy interface {
	// ForeignKeyName names a foreign key by its table and local columns.
	// The result must be deterministic so repeated introspection of the
	// same table yields the same descriptor.
	ForeignKeyName(table string, columns []string) string
}

// DefaultNamingStrategy names foreign keys FK_<table>_<columns joined by _>.
type DefaultNamingStrategy struct{}

func (DefaultNamingStrategy) ForeignKeyName(table string, columns []string) string {
	return "FK_" + table + "_" + strings.Join(columns, "_")
}
