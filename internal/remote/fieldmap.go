package remote

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/column"
)

// FieldMap locates the table fields inside a response object. Each value is
// a dotted path such as "result.items".
type FieldMap struct {
	Data        string `json:"data"`
	Total       string `json:"total"`
	PageSize    string `json:"pageSize"`
	CurrentPage string `json:"currentPage"`
}

// DefaultFieldMap maps the flat {data, total, pageSize, currentPage} shape.
var DefaultFieldMap = FieldMap{
	Data:        "data",
	Total:       "total",
	PageSize:    "pageSize",
	CurrentPage: "currentPage",
}

// Validate fills blank fields with defaults. Data and Total are required;
// a map missing either is reported and replaced by DefaultFieldMap.
func (m FieldMap) Validate(logger *slog.Logger) FieldMap {
	if logger == nil {
		logger = slog.Default()
	}
	if m == (FieldMap{}) {
		return DefaultFieldMap
	}
	if strings.TrimSpace(m.Data) == "" || strings.TrimSpace(m.Total) == "" {
		logger.Warn("field map must contain data and total paths, using defaults",
			"data", m.Data,
			"total", m.Total,
		)
		return DefaultFieldMap
	}
	if m.PageSize == "" {
		m.PageSize = DefaultFieldMap.PageSize
	}
	if m.CurrentPage == "" {
		m.CurrentPage = DefaultFieldMap.CurrentPage
	}
	return m
}

// PageSizeKey is the request parameter carrying the page size: the last
// segment of the PageSize path.
func (m FieldMap) PageSizeKey() string { return lastSegment(m.PageSize) }

// CurrentPageKey is the request parameter carrying the current page.
func (m FieldMap) CurrentPageKey() string { return lastSegment(m.CurrentPage) }

// extract maps r into rows and a total. ok is false when the response
// carries no usable total, in which case the caller keeps its own.
func (m FieldMap) extract(r Response) (rows []column.Row, total int, ok bool) {
	if r.IsList() {
		return r.Rows(), 0, false
	}

	if v, found := Lookup(r.Map(), m.Data); found {
		switch d := v.(type) {
		case []column.Row:
			rows = d
		case []map[string]any:
			rows = make([]column.Row, len(d))
			for i, row := range d {
				rows[i] = column.Row(row)
			}
		case []any:
			// Non-object entries are skipped.
			for _, it := range d {
				if row, isMap := it.(map[string]any); isMap {
					rows = append(rows, column.Row(row))
				} else if row, isRow := it.(column.Row); isRow {
					rows = append(rows, row)
				}
			}
		}
	}

	if v, found := Lookup(r.Map(), m.Total); found {
		total, ok = toInt(v)
	}
	return rows, total, ok
}

// Lookup walks a dotted path through nested maps.
func Lookup(m map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = m
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case column.Row:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

// toInt accepts numbers and numeric strings. Fractional values are
// truncated.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}
