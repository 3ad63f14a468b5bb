package table

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/tablekit/internal/column"
)

// ErrUnsupported is returned when the attached widget lacks a capability.
var ErrUnsupported = errors.New("widget does not support operation")

// Widget is the rendering collaborator. Its capabilities are discovered
// through the optional interfaces in this file.
type Widget any

type SelectionClearer interface {
	ClearSelection()
}

type RowSelectionToggler interface {
	ToggleRowSelection(row column.Row, selected bool)
}

type AllSelectionToggler interface {
	ToggleAllSelection()
}

type RowExpansionToggler interface {
	ToggleRowExpansion(row column.Row, expanded bool)
}

type CurrentRowSetter interface {
	SetCurrentRow(row column.Row)
}

type SortClearer interface {
	ClearSort()
}

type FilterClearer interface {
	ClearFilter()
}

// LayoutRefresher re-measures the widget, typically after a resize.
type LayoutRefresher interface {
	DoLayout()
}

type Sorter interface {
	Sort(prop string, order SortOrder)
}

// ClearSelection forwards to the widget.
func (t *Table) ClearSelection() error {
	w, ok := t.attached().(SelectionClearer)
	if !ok {
		return unsupported("clear-selection")
	}
	w.ClearSelection()
	return nil
}

// ToggleRowSelection forwards to the widget.
func (t *Table) ToggleRowSelection(row column.Row, selected bool) error {
	w, ok := t.attached().(RowSelectionToggler)
	if !ok {
		return unsupported("toggle-row-selection")
	}
	w.ToggleRowSelection(row, selected)
	return nil
}

// ToggleAllSelection forwards to the widget.
func (t *Table) ToggleAllSelection() error {
	w, ok := t.attached().(AllSelectionToggler)
	if !ok {
		return unsupported("toggle-all-selection")
	}
	w.ToggleAllSelection()
	return nil
}

// ToggleRowExpansion forwards to the widget.
func (t *Table) ToggleRowExpansion(row column.Row, expanded bool) error {
	w, ok := t.attached().(RowExpansionToggler)
	if !ok {
		return unsupported("toggle-row-expansion")
	}
	w.ToggleRowExpansion(row, expanded)
	return nil
}

// SetCurrentRow forwards to the widget.
func (t *Table) SetCurrentRow(row column.Row) error {
	w, ok := t.attached().(CurrentRowSetter)
	if !ok {
		return unsupported("set-current-row")
	}
	w.SetCurrentRow(row)
	return nil
}

// ClearSort forwards to the widget.
func (t *Table) ClearSort() error {
	w, ok := t.attached().(SortClearer)
	if !ok {
		return unsupported("clear-sort")
	}
	w.ClearSort()
	return nil
}

// ClearFilter forwards to the widget.
func (t *Table) ClearFilter() error {
	w, ok := t.attached().(FilterClearer)
	if !ok {
		return unsupported("clear-filter")
	}
	w.ClearFilter()
	return nil
}

// DoLayout forwards to the widget.
func (t *Table) DoLayout() error {
	w, ok := t.attached().(LayoutRefresher)
	if !ok {
		return unsupported("do-layout")
	}
	w.DoLayout()
	return nil
}

// Sort forwards to the widget.
func (t *Table) Sort(prop string, order SortOrder) error {
	w, ok := t.attached().(Sorter)
	if !ok {
		return unsupported("sort")
	}
	w.Sort(prop, order)
	return nil
}

func (t *Table) attached() Widget {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.widget
}

func unsupported(op string) error {
	return fmt.Errorf("%s: %w", op, ErrUnsupported)
}

// widgetOps collects widget calls made while the table lock is held. They
// run after the lock is released.
type widgetOps struct {
	t *Table
}

func (o widgetOps) ToggleRowSelection(row column.Row, selected bool) {
	o.t.ops = append(o.t.ops, func(w Widget) {
		if x, ok := w.(RowSelectionToggler); ok {
			x.ToggleRowSelection(row, selected)
		}
	})
}

func (o widgetOps) ClearSelection() {
	o.t.ops = append(o.t.ops, func(w Widget) {
		if x, ok := w.(SelectionClearer); ok {
			x.ClearSelection()
		}
	})
}

func (o widgetOps) ClearFilter() {
	o.t.ops = append(o.t.ops, func(w Widget) {
		if x, ok := w.(FilterClearer); ok {
			x.ClearFilter()
		}
	})
}

func (o widgetOps) ClearSort() {
	o.t.ops = append(o.t.ops, func(w Widget) {
		if x, ok := w.(SortClearer); ok {
			x.ClearSort()
		}
	})
}

func (o widgetOps) Sort(prop string, order SortOrder) {
	o.t.ops = append(o.t.ops, func(w Widget) {
		if x, ok := w.(Sorter); ok {
			x.Sort(prop, order)
		}
	})
}

func (o widgetOps) DoLayout() {
	o.t.ops = append(o.t.ops, func(w Widget) {
		if x, ok := w.(LayoutRefresher); ok {
			x.DoLayout()
		}
	})
}
