package schema

import (
	"strings"

	"github.com/schemaforge/litedriver/internal/database"
)

// TempPrefix prefixes the staging table used while recreating a table.
const TempPrefix = "temporary_"

// ColumnDefinition renders one column's fragment of a CREATE TABLE
// statement. Rendering is pure: quoted name, type, NOT NULL unless
// nullable, UNIQUE if flagged, PRIMARY KEY AUTOINCREMENT if generated.
// The generated clause wins over a plain UNIQUE and is emitted whether or
// not the column is also marked primary. A generated column never appears
// in a separate composite PRIMARY KEY clause.
func ColumnDefinition(col *ColumnDescriptor) (string, error) {
	var sb strings.Builder
	sb.WriteString(database.QuoteIdent(col.Name))
	sb.WriteString(" ")

	if col.Type.IsMapped() {
		mapped, err := col.Type.Logical.SQLiteType()
		if err != nil {
			return "", err
		}
		sb.WriteString(mapped)
	} else {
		sb.WriteString(col.Type.Raw)
	}

	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if col.Generated {
		sb.WriteString(" PRIMARY KEY AUTOINCREMENT")
	} else if col.Unique {
		sb.WriteString(" UNIQUE")
	}
	if col.Default != nil {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(*col.Default)
	}

	return sb.String(), nil
}

// CreateTableSQL renders the full CREATE TABLE statement for the descriptor
// under the given table name (which differs from t.Name while staging a
// recreation). Non-generated primary-key columns produce one trailing
// composite PRIMARY KEY clause, column list unquoted; each foreign key
// produces one FOREIGN KEY clause.
func CreateTableSQL(name string, t *TableDescriptor, ifNotExists bool) (string, error) {
	parts := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+1)

	var pkColumns []string
	for i := range t.Columns {
		col := &t.Columns[i]
		def, err := ColumnDefinition(col)
		if err != nil {
			return "", err
		}
		parts = append(parts, def)
		if col.PrimaryKey && !col.Generated {
			pkColumns = append(pkColumns, col.Name)
		}
	}

	if len(pkColumns) > 0 {
		parts = append(parts, "PRIMARY KEY("+strings.Join(pkColumns, ", ")+")")
	}

	for i := range t.ForeignKeys {
		fk := &t.ForeignKeys[i]
		clause := "FOREIGN KEY(" + strings.Join(database.QuoteIdents(fk.Columns), ", ") + ")" +
			" REFERENCES " + database.QuoteIdent(fk.ReferencedTable) +
			"(" + strings.Join(database.QuoteIdents(fk.ReferencedColumns), ", ") + ")"
		if fk.OnDelete != "" {
			clause += " ON DELETE " + fk.OnDelete
		}
		parts = append(parts, clause)
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(database.QuoteIdent(name))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(")")

	return sb.String(), nil
}

// CreateIndexSQL renders the CREATE INDEX statement for an index.
func CreateIndexSQL(idx *IndexDescriptor) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return "CREATE " + unique + "INDEX " + database.QuoteIdent(idx.Name) +
		" ON " + database.QuoteIdent(idx.Table) +
		"(" + strings.Join(database.QuoteIdents(idx.Columns), ", ") + ")"
}

// DropIndexSQL renders the DROP INDEX statement. SQLite resolves indices by
// name alone, so no table is involved.
func DropIndexSQL(name string) string {
	return "DROP INDEX " + database.QuoteIdent(name)
}

// DropTableSQL renders the DROP TABLE statement.
func DropTableSQL(name string) string {
	return "DROP TABLE " + database.QuoteIdent(name)
}

// RenameTableSQL renders the ALTER TABLE ... RENAME TO statement.
func RenameTableSQL(from, to string) string {
	return "ALTER TABLE " + database.QuoteIdent(from) + " RENAME TO " + database.QuoteIdent(to)
}

// InsertSelectSQL renders the data-copy statement carrying the intersected
// column list from one table into another.
func InsertSelectSQL(target, source string, columns []string) string {
	cols := strings.Join(database.QuoteIdents(columns), ", ")
	return "INSERT INTO " + database.QuoteIdent(target) + " (" + cols + ")" +
		" SELECT " + cols + " FROM " + database.QuoteIdent(source)
}
