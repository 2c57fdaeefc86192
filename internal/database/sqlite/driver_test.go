package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaforge/litedriver/internal/database"
	"github.com/schemaforge/litedriver/internal/errs"
)

func openMemory(t *testing.T) *Driver {
	t.Helper()
	d, err := New(context.Background(), database.DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func TestDriver_ExecAndQuery(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()

	_, err := d.Exec(ctx, `CREATE TABLE "kv" ("k" text PRIMARY KEY, "v" text)`)
	require.NoError(t, err)

	res, err := d.Exec(ctx, `INSERT INTO "kv" VALUES (?, ?), (?, ?)`, "a", "1", "b", "2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)

	rows, err := d.Query(ctx, `SELECT "k", "v" FROM "kv" ORDER BY "k"`)
	require.NoError(t, err)
	cols, data, err := database.ScanRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "v"}, cols)
	require.Len(t, data, 2)
	assert.Equal(t, "1", data[0]["v"])
}

func TestDriver_LastInsertID(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()

	_, err := d.Exec(ctx, `CREATE TABLE "seq" ("id" integer PRIMARY KEY AUTOINCREMENT, "v" text)`)
	require.NoError(t, err)

	res, err := d.Exec(ctx, `INSERT INTO "seq" ("v") VALUES ('x')`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.LastInsertID)

	res, err = d.Exec(ctx, `INSERT INTO "seq" ("v") VALUES ('y')`)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.LastInsertID)
}

func TestDriver_ErrorMapping(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()

	_, err := d.Exec(ctx, `CREATE TABLE "u" ("email" text UNIQUE)`)
	require.NoError(t, err)
	_, err = d.Exec(ctx, `INSERT INTO "u" VALUES ('a@b')`)
	require.NoError(t, err)

	_, err = d.Exec(ctx, `INSERT INTO "u" VALUES ('a@b')`)
	require.Error(t, err)
	assert.True(t, errs.IsConstraint(err), "unique violation maps to constraint kind")

	_, err = d.Exec(ctx, `THIS IS NOT SQL`)
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
}

func TestDriver_QueryRowNotFound(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()

	_, err := d.Exec(ctx, `CREATE TABLE "one" ("id" integer)`)
	require.NoError(t, err)

	var id int64
	err = d.QueryRow(ctx, `SELECT "id" FROM "one"`).Scan(&id)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestBuildDSN(t *testing.T) {
	cfg := database.DefaultConfig("app.db")
	dsn := buildDSN(cfg)
	assert.Contains(t, dsn, "app.db?")
	assert.Contains(t, dsn, "_pragma=foreign_keys(1)")
	assert.Contains(t, dsn, "_pragma=journal_mode(WAL)")
	assert.Contains(t, dsn, "_pragma=busy_timeout(5000)")

	bare := buildDSN(&database.Config{Path: "bare.db"})
	assert.Equal(t, "bare.db", bare)
}
