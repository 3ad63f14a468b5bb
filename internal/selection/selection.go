// Package selection keeps a table's row selection stable across page turns.
//
// The selection is an ordered set of row keys plus the row data last
// reported by the widget. Whenever the visible rows change the reconciler
// re-marks them through a [Toggler].
package selection

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/event"
)

// KeyFunc derives a row's identity.
type KeyFunc func(row column.Row) string

// PathKey returns a KeyFunc reading a dotted path such as "meta.id". A
// missing value yields the empty key.
func PathKey(path string) KeyFunc {
	segs := strings.Split(path, ".")
	return func(row column.Row) string {
		var cur any = map[string]any(row)
		for _, s := range segs {
			switch m := cur.(type) {
			case map[string]any:
				cur = m[s]
			case column.Row:
				cur = m[s]
			default:
				return ""
			}
		}
		if cur == nil {
			return ""
		}
		return fmt.Sprint(cur)
	}
}

// Toggler marks a single row selected or not.
type Toggler interface {
	ToggleRowSelection(row column.Row, selected bool)
}

// TogglerFunc adapts a function to Toggler.
type TogglerFunc func(row column.Row, selected bool)

// ToggleRowSelection calls f.
func (f TogglerFunc) ToggleRowSelection(row column.Row, selected bool) { f(row, selected) }

// Clearer drops every selection mark at once.
type Clearer interface {
	ClearSelection()
}

// Change is the selection-changed payload.
type Change struct {
	Keys []string
	Rows []column.Row
}

// Reconciler is not safe for concurrent use.
type Reconciler struct {
	key  KeyFunc
	keys []string
	set  map[string]struct{}
	rows []column.Row
	emit event.Emitter
}

// New creates a Reconciler. A nil key uses PathKey("id").
func New(key KeyFunc, emit event.Emitter) *Reconciler {
	if key == nil {
		key = PathKey("id")
	}
	if emit == nil {
		emit = event.Discard
	}
	return &Reconciler{key: key, set: map[string]struct{}{}, emit: emit}
}

// Key returns the identity of row.
func (r *Reconciler) Key(row column.Row) string {
	return r.key(row)
}

// Apply adds keys to the selection and re-marks the visible rows.
func (r *Reconciler) Apply(keys []string, visible []column.Row, t Toggler) {
	for _, k := range keys {
		r.add(k)
	}
	r.Mark(visible, t)
}

// Mark toggles every visible row according to membership.
func (r *Reconciler) Mark(visible []column.Row, t Toggler) {
	if t == nil {
		return
	}
	for _, row := range visible {
		_, selected := r.set[r.key(row)]
		t.ToggleRowSelection(row, selected)
	}
}

// Changed records the rows the widget reports as selected and recomputes
// the keys from them.
func (r *Reconciler) Changed(rows []column.Row) {
	r.rows = append([]column.Row(nil), rows...)
	r.keys = r.keys[:0]
	r.set = make(map[string]struct{}, len(rows))
	for _, row := range rows {
		r.add(r.key(row))
	}
	r.emit.Emit(event.Event{Signal: event.SelectionChanged, Payload: Change{
		Keys: r.Keys(),
		Rows: r.Rows(),
	}})
}

// Reset restores the default selection. Without defaults the selection is
// cleared, through t's ClearSelection when it has one.
func (r *Reconciler) Reset(defaults []string, visible []column.Row, t Toggler) {
	r.keys = nil
	r.rows = nil
	r.set = map[string]struct{}{}

	if len(defaults) > 0 {
		r.Apply(defaults, visible, t)
		return
	}
	if c, ok := t.(Clearer); ok {
		c.ClearSelection()
		return
	}
	r.Mark(visible, t)
}

// Keys returns the selected keys in insertion order.
func (r *Reconciler) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Rows returns the selected row data last reported by the widget.
func (r *Reconciler) Rows() []column.Row {
	return append([]column.Row(nil), r.rows...)
}

// Has reports whether key is selected.
func (r *Reconciler) Has(key string) bool {
	_, ok := r.set[key]
	return ok
}

func (r *Reconciler) add(k string) {
	if _, ok := r.set[k]; ok {
		return
	}
	r.set[k] = struct{}{}
	r.keys = append(r.keys, k)
}
