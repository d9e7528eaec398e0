package store

import (
	"fmt"
	"strings"

	"github.com/roach88/goby/internal/schema"
)

// TableKind is the name prefix of a table.
type TableKind string

const (
	KindSystem   TableKind = "system"
	KindClass    TableKind = "class"
	KindJunction TableKind = "junction"
)

// TableName returns the deterministic name of a table of the given kind.
func TableName(kind TableKind, name string) string {
	return fmt.Sprintf("%s_%s", kind, name)
}

// ClassTable returns the name of the table holding the items of a class.
func ClassTable(id schema.ClassID) string {
	return TableName(KindClass, fmt.Sprint(id))
}

// DataColumn returns the name of the column holding a data property.
// Columns are named by id so that renaming a property never touches storage.
func DataColumn(id schema.PropID) string {
	return fmt.Sprintf("prop_%d", id)
}

// ColumnType returns the SQLite column type for a data property. Multi-valued
// properties are stored as JSON array text regardless of their data type.
func ColumnType(dataType schema.DataType, max schema.MaxValues) string {
	if max.Multiple() {
		return "TEXT"
	}
	switch dataType {
	case schema.TypeNumber:
		return "REAL"
	case schema.TypeBoolean:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// QuoteIdent quotes an SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
