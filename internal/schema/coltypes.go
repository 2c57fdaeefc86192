package schema

import (
	"fmt"

	"github.com/schemaforge/litedriver/internal/errs"
)

// ColumnType is a logical column type from the driver's vocabulary.
type ColumnType string

const (
	TypeInt       ColumnType = "int"
	TypeInteger   ColumnType = "integer"
	TypeTinyint   ColumnType = "tinyint"
	TypeSmallint  ColumnType = "smallint"
	TypeMediumint ColumnType = "mediumint"
	TypeBigint    ColumnType = "bigint"
	TypeVarchar   ColumnType = "varchar"
	TypeText      ColumnType = "text"
	TypeChar      ColumnType = "character"
	TypeClob      ColumnType = "clob"
	TypeReal      ColumnType = "real"
	TypeDouble    ColumnType = "double"
	TypeFloat     ColumnType = "float"
	TypeNumeric   ColumnType = "numeric"
	TypeDecimal   ColumnType = "decimal"
	TypeBoolean   ColumnType = "boolean"
	TypeDate      ColumnType = "date"
	TypeTime      ColumnType = "time"
	TypeDatetime  ColumnType = "datetime"
	TypeBlob      ColumnType = "blob"
)

// sqliteTypes maps the logical vocabulary to SQLite declared types.
var sqliteTypes = map[ColumnType]string{
	TypeInt:       "integer",
	TypeInteger:   "integer",
	TypeTinyint:   "tinyint",
	TypeSmallint:  "smallint",
	TypeMediumint: "mediumint",
	TypeBigint:    "bigint",
	TypeVarchar:   "varchar",
	TypeText:      "text",
	TypeChar:      "character",
	TypeClob:      "clob",
	TypeReal:      "real",
	TypeDouble:    "double",
	TypeFloat:     "float",
	TypeNumeric:   "numeric",
	TypeDecimal:   "decimal",
	TypeBoolean:   "boolean",
	TypeDate:      "date",
	TypeTime:      "time",
	TypeDatetime:  "datetime",
	TypeBlob:      "blob",
}

// SQLiteType resolves a logical type to the engine's declared type string.
func (t ColumnType) SQLiteType() (string, error) {
	mapped, ok := sqliteTypes[t]
	if !ok {
		return "", errs.New(errs.ErrKindUnsupportedType,
			fmt.Sprintf("column type %q has no SQLite mapping", string(t)))
	}
	return mapped, nil
}
