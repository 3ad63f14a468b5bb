package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/dataset"
)

// Memory serves rows held in memory.
type Memory struct {
	mu   sync.RWMutex
	sets map[string]memorySet
}

type memorySet struct {
	def  dataset.Dataset
	rows []column.Row
}

// NewMemory returns an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{sets: make(map[string]memorySet)}
}

// Load replaces the rows of d.
func (m *Memory) Load(d dataset.Dataset, rows []column.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[d.Key] = memorySet{def: d, rows: append([]column.Row(nil), rows...)}
}

// LoadSeeds loads every dataset that has a Seed. It returns the number
// of datasets loaded.
func (m *Memory) LoadSeeds(sets ...dataset.Dataset) int {
	n := 0
	for _, d := range sets {
		if d.Seed == nil {
			continue
		}
		m.Load(d, d.Seed())
		n++
	}
	return n
}

// Page filters, sorts and slices the rows of key.
func (m *Memory) Page(ctx context.Context, key string, q Query) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	m.mu.RLock()
	set, ok := m.sets[key]
	m.mu.RUnlock()
	if !ok {
		return Page{}, unknown(key)
	}

	q = q.Normalize()
	rows := set.rows
	if q.Search != "" {
		rows = search(set.def, rows, q.Search)
	}

	sortProp := set.def.KeyProp()
	if q.Sort != "" {
		f, ok := set.def.Field(q.Sort)
		if !ok {
			return Page{}, fmt.Errorf("sort %q in %s: %w", q.Sort, key, ErrUnknownField)
		}
		sortProp = f.Prop
	}
	sorted := append([]column.Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		c := compare(sorted[i][sortProp], sorted[j][sortProp])
		if q.Desc {
			return c > 0
		}
		return c < 0
	})

	page := Page{Total: len(sorted), PageSize: q.PageSize, CurrentPage: q.Page}
	from := q.Offset()
	if from >= len(sorted) {
		page.Rows = []column.Row{}
		return page, nil
	}
	to := min(from+q.PageSize, len(sorted))
	page.Rows = sorted[from:to]
	return page, nil
}

func search(d dataset.Dataset, rows []column.Row, term string) []column.Row {
	term = strings.ToLower(term)
	var out []column.Row
	for _, row := range rows {
		for _, f := range d.Fields {
			if !f.Searchable {
				continue
			}
			if strings.Contains(strings.ToLower(fmt.Sprint(row[f.Prop])), term) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// compare orders numbers numerically and everything else by its text.
// nil sorts first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
