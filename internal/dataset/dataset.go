// Package dataset describes the row collections the server exposes as
// tables: where the rows live and how their columns are declared.
package dataset

import (
	"strings"

	"github.com/JonMunkholm/tablekit/internal/column"
)

// Field is one data column of a dataset.
type Field struct {
	Prop  string
	Label string

	// DBColumn is the SQL column name. Blank derives it from Prop.
	DBColumn string

	// Searchable fields take part in the free-text search.
	Searchable bool
}

// Column returns the column declaration for f.
func (f Field) Column() column.Column {
	return column.Column{Prop: f.Prop, Label: f.Label}
}

// Dataset is a registered row collection.
type Dataset struct {
	Key   string // Unique identifier: "orders"
	Group string // Menu grouping: "Sales"
	Label string // Display name: "Orders"

	// Table is the SQL table name. Blank uses Key.
	Table string

	Fields []Field

	// RowKey is the prop identifying a row, "id" when blank.
	RowKey string

	// Selectable prepends a selection column.
	Selectable bool

	// Seed produces the in-memory rows served when no database is configured.
	Seed func() []column.Row
}

// TableName returns the SQL table backing d.
func (d Dataset) TableName() string {
	if d.Table != "" {
		return d.Table
	}
	return d.Key
}

// KeyProp returns the row key prop.
func (d Dataset) KeyProp() string {
	if d.RowKey != "" {
		return d.RowKey
	}
	return "id"
}

// Columns returns the config column declarations of d.
func (d Dataset) Columns() column.ConfigSource {
	cols := make(column.ConfigSource, 0, len(d.Fields)+1)
	if d.Selectable {
		cols = append(cols, column.Column{Type: column.TypeSelection})
	}
	for _, f := range d.Fields {
		cols = append(cols, f.Column())
	}
	return cols
}

// Props returns the field props in declaration order.
func (d Dataset) Props() []string {
	props := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		props[i] = f.Prop
	}
	return props
}

// Field returns the field with the given prop, case-insensitively.
func (d Dataset) Field(prop string) (Field, bool) {
	for _, f := range d.Fields {
		if strings.EqualFold(f.Prop, prop) {
			return f, true
		}
	}
	return Field{}, false
}

// DBColumnName returns the SQL column of f.
// "Order Date" -> "order_date"
func (f Field) DBColumnName() string {
	if f.DBColumn != "" {
		return f.DBColumn
	}
	return strings.ToLower(strings.ReplaceAll(f.Prop, " ", "_"))
}
