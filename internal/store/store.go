// Package store serves pages of dataset rows to the rows endpoint.
//
// Sources never clamp the requested page: a page past the end comes back
// empty together with the real total, which is what lets a remote table
// notice that its current page vanished and step back.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/column"
)

// ErrUnknownDataset is returned for a key the source does not serve.
var ErrUnknownDataset = errors.New("unknown dataset")

// ErrUnknownField is returned when a query sorts by a field the dataset
// does not declare.
var ErrUnknownField = errors.New("unknown field")

// Query selects one page of a dataset.
type Query struct {
	Page     int
	PageSize int

	// Sort is a field prop; blank sorts by the row key.
	Sort string
	Desc bool

	// Search matches searchable fields, case-insensitively.
	Search string
}

// Normalize clamps Page and PageSize to at least 1 and trims the text fields.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 1
	}
	q.Sort = strings.TrimSpace(q.Sort)
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Offset is the index of the first row of the page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Page is one page of rows plus the size of the whole result.
type Page struct {
	Rows        []column.Row `json:"data"`
	Total       int          `json:"total"`
	PageSize    int          `json:"pageSize"`
	CurrentPage int          `json:"currentPage"`
}

// RowSource loads pages of dataset rows.
type RowSource interface {
	Page(ctx context.Context, key string, q Query) (Page, error)
}

func unknown(key string) error {
	return fmt.Errorf("%w: %s", ErrUnknownDataset, key)
}
