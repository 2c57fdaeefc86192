package sqlite

import (
	"errors"

	gosqlite "modernc.org/sqlite"

	"github.com/schemaforge/litedriver/internal/errs"
)

// SQLite primary result codes
// Full list: https://sqlite.org/rescode.html
const (
	codeError      = 1  // SQL error or missing database object
	codeBusy       = 5  // database file is locked
	codeLocked     = 6  // a table in the database is locked
	codeReadOnly   = 8  // attempt to write a read-only database
	codeIOErr      = 10 // disk I/O error
	codeNotFound   = 12 // unknown opcode / object
	codeCantOpen   = 14 // unable to open the database file
	codeConstraint = 19 // constraint violation (unique, fk, not null, ...)
	codeMisuse     = 21 // library used incorrectly
)

// mapError converts a modernc.org/sqlite error into a litedriver error.
// Extended result codes carry the primary code in their low byte.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case codeConstraint:
			return errs.Wrap(errs.ErrKindConstraint, msg, err)
		case codeCantOpen, codeIOErr, codeReadOnly:
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		case codeNotFound:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case codeError, codeBusy, codeLocked, codeMisuse:
			return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
