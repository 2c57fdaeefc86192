package runner

import (
	"context"

	"github.com/schemaforge/litedriver/internal/database"
	"github.com/schemaforge/litedriver/internal/schema"
)

// RecreateTable rebuilds the already-existing table target.Name so that it
// matches the target descriptor:
//
//  1. create "temporary_<name>" from the target descriptor
//  2. probe the original's data; an empty table skips migration entirely
//  3. copy the columns present in both the old row shape and the target,
//     in the old order, into the temporary table
//  4. drop the original, rename the temporary table to the original name
//  5. rebuild the target's indices, concurrently
//
// The sequence is not atomic and is never compensated: the first failing
// statement propagates, leaving whatever intermediate state it produced.
// A failure after step 1 leaves both tables; a failure between steps 4
// and 5 leaves the table correct but missing indices. Recovery is the
// operator's responsibility.
func (r *Runner) RecreateTable(ctx context.Context, target *schema.TableDescriptor) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}

	tempName := schema.TempPrefix + target.Name

	// 1. stage
	stmt, err := schema.CreateTableSQL(tempName, target, false)
	if err != nil {
		return err
	}
	if _, err := r.exec(ctx, stmt); err != nil {
		return err
	}

	// 2. probe existing data
	rows, err := r.query(ctx, "SELECT * FROM "+database.QuoteIdent(target.Name))
	if err != nil {
		return err
	}
	oldColumns, data, err := database.ScanRows(rows)
	if err != nil {
		return err
	}

	// 3.+4. copy the intersection, old column order preserved. Columns only
	// in the old shape are dropped; columns only in the target start at
	// their default. An empty table has nothing to carry over, so the copy
	// is skipped outright.
	if len(data) > 0 {
		var carried []string
		for _, c := range oldColumns {
			if target.HasColumn(c) {
				carried = append(carried, c)
			}
		}
		if len(carried) > 0 {
			if _, err := r.exec(ctx, schema.InsertSelectSQL(tempName, target.Name, carried)); err != nil {
				return err
			}
		}
	}

	// 5. swap
	if _, err := r.exec(ctx, schema.DropTableSQL(target.Name)); err != nil {
		return err
	}
	if _, err := r.exec(ctx, schema.RenameTableSQL(tempName, target.Name)); err != nil {
		return err
	}

	// 6. rebuild indices
	return r.createIndices(ctx, target.Indices)
}
