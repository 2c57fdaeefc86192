package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaforge/litedriver/internal/database"
	"github.com/schemaforge/litedriver/internal/database/sqlite"
	"github.com/schemaforge/litedriver/internal/errs"
)

func newTestDB(t *testing.T) database.DB {
	t.Helper()
	db, err := sqlite.New(context.Background(), database.DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func mustExec(t *testing.T, db database.DB, stmt string, args ...any) {
	t.Helper()
	_, err := db.Exec(context.Background(), stmt, args...)
	require.NoError(t, err, stmt)
}

func createFromDescriptor(t *testing.T, db database.DB, table *TableDescriptor) {
	t.Helper()
	stmt, err := CreateTableSQL(table.Name, table, false)
	require.NoError(t, err)
	mustExec(t, db, stmt)
	for i := range table.Indices {
		mustExec(t, db, CreateIndexSQL(&table.Indices[i]))
	}
}

func TestIntrospector_EmptyInputIssuesNoQuery(t *testing.T) {
	in := NewIntrospector(nil, DefaultNamingStrategy{}) // any query would panic on nil DB

	tables, err := in.GetTables(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestIntrospector_UnknownTablesSkipped(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, `CREATE TABLE "known" ("id" integer PRIMARY KEY)`)

	in := NewIntrospector(db, DefaultNamingStrategy{})
	tables, err := in.GetTables(context.Background(), []string{"known", "missing"})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "known", tables[0].Name)
}

func TestIntrospector_GetTable_NotFound(t *testing.T) {
	db := newTestDB(t)
	in := NewIntrospector(db, DefaultNamingStrategy{})

	_, err := in.GetTable(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestIntrospector_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, `CREATE TABLE "users" ("id" integer NOT NULL PRIMARY KEY AUTOINCREMENT)`)

	source := &TableDescriptor{
		Name: "posts",
		Columns: []ColumnDescriptor{
			{Name: "id", Type: Mapped(TypeInteger), PrimaryKey: true, Generated: true},
			{Name: "slug", Type: Mapped(TypeVarchar), Unique: true},
			{Name: "body", Type: Mapped(TypeText), Nullable: true},
			{Name: "author_id", Type: Mapped(TypeInteger)},
		},
		ForeignKeys: []ForeignKeyDescriptor{
			{
				Name:              "FK_posts_author_id",
				Columns:           []string{"author_id"},
				ReferencedTable:   "users",
				ReferencedColumns: []string{"id"},
				OnDelete:          "CASCADE",
			},
		},
		Indices: []IndexDescriptor{
			{Table: "posts", Name: "idx_posts_author", Columns: []string{"author_id"}},
		},
	}
	createFromDescriptor(t, db, source)

	in := NewIntrospector(db, DefaultNamingStrategy{})
	got, err := in.GetTable(context.Background(), "posts")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "slug", "body", "author_id"}, got.ColumnNames())

	id := got.Column("id")
	require.NotNil(t, id)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.Generated)
	assert.False(t, id.Nullable)
	assert.Equal(t, "integer", id.Type.Raw)

	slug := got.Column("slug")
	require.NotNil(t, slug)
	assert.True(t, slug.Unique, "declared UNIQUE must come back as the column flag")
	assert.False(t, slug.Nullable)

	body := got.Column("body")
	require.NotNil(t, body)
	assert.True(t, body.Nullable)
	assert.False(t, body.Unique)

	require.Len(t, got.ForeignKeys, 1)
	fk := got.ForeignKeys[0]
	assert.Equal(t, "FK_posts_author_id", fk.Name)
	assert.Equal(t, []string{"author_id"}, fk.Columns)
	assert.Equal(t, "users", fk.ReferencedTable)
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	assert.Equal(t, "CASCADE", fk.OnDelete)

	author := got.Column("author_id")
	require.NotNil(t, author)
	require.Len(t, author.ForeignKeys, 1)
	assert.Equal(t, "FK_posts_author_id", author.ForeignKeys[0].Name)

	// The declared-unique auto-index must not surface; only the named index does.
	require.Len(t, got.Indices, 1)
	assert.Equal(t, "idx_posts_author", got.Indices[0].Name)
	assert.Equal(t, []string{"author_id"}, got.Indices[0].Columns)
	assert.False(t, got.Indices[0].Unique)
}

func TestIntrospector_CompositePrimaryKey(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db,
		`CREATE TABLE "memberships" ("user_id" integer NOT NULL, "group_id" integer NOT NULL, PRIMARY KEY(user_id, group_id))`)

	in := NewIntrospector(db, DefaultNamingStrategy{})
	got, err := in.GetTable(context.Background(), "memberships")
	require.NoError(t, err)

	assert.True(t, got.Column("user_id").PrimaryKey)
	assert.True(t, got.Column("group_id").PrimaryKey)
	assert.False(t, got.Column("user_id").Generated)

	require.Len(t, got.PrimaryKeys, 2)
	assert.Equal(t, got.PrimaryKeys[0].IndexName, got.PrimaryKeys[1].IndexName,
		"composite key records share the backing index name")
	assert.Equal(t, "user_id", got.PrimaryKeys[0].Column)
	assert.Equal(t, "group_id", got.PrimaryKeys[1].Column)

	// The pk-backed auto-index is not an ordinary index.
	assert.Empty(t, got.Indices)
}

func TestIntrospector_CompositeForeignKeyOnEveryLocalColumn(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db,
		`CREATE TABLE "parent" ("a" integer NOT NULL, "b" integer NOT NULL, PRIMARY KEY(a, b))`)
	mustExec(t, db,
		`CREATE TABLE "child" ("x" integer, "y" integer, FOREIGN KEY(x, y) REFERENCES "parent"(a, b))`)

	in := NewIntrospector(db, DefaultNamingStrategy{})
	got, err := in.GetTable(context.Background(), "child")
	require.NoError(t, err)

	require.Len(t, got.ForeignKeys, 1)
	fk := got.ForeignKeys[0]
	assert.Equal(t, "FK_child_x_y", fk.Name)
	assert.Equal(t, []string{"x", "y"}, fk.Columns)
	assert.Equal(t, []string{"a", "b"}, fk.ReferencedColumns)

	// Every local column carries the constraint, not just the first one.
	for _, name := range []string{"x", "y"} {
		col := got.Column(name)
		require.NotNil(t, col)
		require.Len(t, col.ForeignKeys, 1, "column %s", name)
		assert.Equal(t, "FK_child_x_y", col.ForeignKeys[0].Name)
	}
}

func TestIntrospector_CompositeUniqueNotModeled(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, `CREATE TABLE "cu" ("a" text, "b" text, UNIQUE(a, b))`)

	in := NewIntrospector(db, DefaultNamingStrategy{})
	got, err := in.GetTable(context.Background(), "cu")
	require.NoError(t, err)

	// A table-level UNIQUE over several columns is backed by an auto-index
	// that cannot be rebuilt by name. It surfaces neither as column flags
	// nor as an ordinary index, so a recreation does not carry it.
	assert.False(t, got.Column("a").Unique)
	assert.False(t, got.Column("b").Unique)
	assert.Empty(t, got.Indices)
}

func TestIntrospector_TypeNamesLowercased(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, `CREATE TABLE "t" ("a" VARCHAR(100) NOT NULL, "b" DATETIME)`)

	in := NewIntrospector(db, DefaultNamingStrategy{})
	got, err := in.GetTable(context.Background(), "t")
	require.NoError(t, err)

	assert.Equal(t, "varchar(100)", got.Column("a").Type.Raw)
	assert.Equal(t, "datetime", got.Column("b").Type.Raw)
	assert.False(t, got.Column("a").Type.IsMapped())
}

func TestIntrospector_DefaultValues(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, `CREATE TABLE "t" ("state" varchar DEFAULT 'new', "n" integer DEFAULT 0)`)

	in := NewIntrospector(db, DefaultNamingStrategy{})
	got, err := in.GetTable(context.Background(), "t")
	require.NoError(t, err)

	require.NotNil(t, got.Column("state").Default)
	assert.Equal(t, "'new'", *got.Column("state").Default)
	require.NotNil(t, got.Column("n").Default)
	assert.Equal(t, "0", *got.Column("n").Default)
}

func TestIntrospector_NamedIndexColumnOrder(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, `CREATE TABLE "people" ("first" text, "last" text)`)
	mustExec(t, db, `CREATE UNIQUE INDEX "idx_people_name" ON "people"("last", "first")`)

	in := NewIntrospector(db, DefaultNamingStrategy{})
	got, err := in.GetTable(context.Background(), "people")
	require.NoError(t, err)

	require.Len(t, got.Indices, 1)
	idx := got.Indices[0]
	assert.Equal(t, "idx_people_name", idx.Name)
	assert.Equal(t, "people", idx.Table)
	assert.True(t, idx.Unique)
	assert.Equal(t, []string{"last", "first"}, idx.Columns,
		"index column order comes from the per-index reflection query")
}

func TestIntrospector_FreshDescriptorsPerCall(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, `CREATE TABLE "t" ("id" integer PRIMARY KEY)`)

	in := NewIntrospector(db, DefaultNamingStrategy{})
	first, err := in.GetTable(context.Background(), "t")
	require.NoError(t, err)
	second, err := in.GetTable(context.Background(), "t")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	first.Columns[0].Name = "mutated"
	assert.Equal(t, "id", second.Columns[0].Name)
}
