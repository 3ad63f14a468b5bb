package table

import (
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/filter"
	"github.com/JonMunkholm/tablekit/internal/selection"
)

// DefaultLayout orders the table sections.
const DefaultLayout = "tool, table, extra, pagination"

// Layout sections.
const (
	SectionTool       = "tool"
	SectionTable      = "table"
	SectionExtra      = "extra"
	SectionPagination = "pagination"
)

// DefaultActionLabel is the header of the action column.
const DefaultActionLabel = "Actions"

// DefaultActionWidth is the width of the action column.
const DefaultActionWidth = "100px"

// SortOrder is a widget sort direction.
type SortOrder string

const (
	Ascending  SortOrder = "ascending"
	Descending SortOrder = "descending"
)

// Sort is a column sort.
type Sort struct {
	Prop  string    `json:"prop"`
	Order SortOrder `json:"order"`
}

// ActionButton is one button in the action column.
type ActionButton struct {
	Label string
	// Type is the widget button style; "text" when blank.
	Type    string
	Icon    string
	Props   map[string]any
	Handler func(row column.Row)
}

// ActionColumn is the trailing per-row action column.
type ActionColumn struct {
	Label   string
	Width   string
	Buttons []ActionButton
	// Render is an opaque per-row hook handed to the widget.
	Render any
}

func (a *ActionColumn) shown() bool {
	return a != nil && (len(a.Buttons) > 0 || a.Render != nil)
}

// Options configures a Table.
type Options struct {
	// Name identifies the table in logs.
	Name   string
	Layout string

	Template column.TemplateSource
	Columns  column.ConfigSource

	// RowKey identifies rows for selection. nil reads the "id" field.
	RowKey selection.KeyFunc
	// Selection holds the default selected row keys.
	Selection []string

	// Unpaged turns pagination off for local tables.
	Unpaged          bool
	CurrentPage      int
	PageSize         int
	PageSizes        []int
	PaginationLayout string

	DragSortable bool
	// DragExclude lists label substrings that cannot be dragged.
	DragExclude []string

	AutoHeight     bool
	MinHeight      int
	FixHeight      int
	ResizeDebounce time.Duration

	Filter  filter.Options
	Actions *ActionColumn

	// DefaultSort is re-applied by Reset instead of clearing the sort.
	DefaultSort *Sort

	Logger *slog.Logger
}

func parseLayout(s string) []string {
	if strings.TrimSpace(s) == "" {
		s = DefaultLayout
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasSection(layout []string, section string) bool {
	for _, s := range layout {
		if s == section {
			return true
		}
	}
	return false
}
