// Package adapter holds reference input adapters: a header drag reorderer
// and a viewport-driven height calculator. Adapters only report intents;
// the owning table applies them.
package adapter

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultSeparator splits rendered header labels such as "2.Name".
const DefaultSeparator = "."

// DragOptions configures a Drag.
type DragOptions struct {
	// Exclude lists substrings; a label containing any of them cannot be
	// dragged.
	Exclude   []string
	Separator string

	// OnSort receives the label sequence after each drop.
	OnSort func(labels []string)
}

// Drag swaps header labels on drop. It is safe for concurrent use.
type Drag struct {
	exclude   []string
	separator string
	onSort    func([]string)

	mu     sync.Mutex
	labels []string
}

// NewDrag creates a Drag with no bound labels.
func NewDrag(opts DragOptions) *Drag {
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return &Drag{exclude: opts.Exclude, separator: sep, onSort: opts.OnSort}
}

// Rebind refreshes the draggable header set from rendered labels.
func (d *Drag) Rebind(rendered []string) {
	labels := make([]string, 0, len(rendered))
	for _, l := range rendered {
		if d.excluded(l) {
			continue
		}
		labels = append(labels, d.plain(l))
	}

	d.mu.Lock()
	d.labels = labels
	d.mu.Unlock()
}

// Labels returns the current draggable label sequence.
func (d *Drag) Labels() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.labels...)
}

// Drop swaps the labels at from and to and reports the new sequence.
func (d *Drag) Drop(from, to int) error {
	d.mu.Lock()
	n := len(d.labels)
	if from < 0 || from >= n || to < 0 || to >= n {
		d.mu.Unlock()
		return fmt.Errorf("drop %d onto %d: index out of range [0,%d)", from, to, n)
	}
	d.labels[from], d.labels[to] = d.labels[to], d.labels[from]
	sorted := append([]string(nil), d.labels...)
	d.mu.Unlock()

	if d.onSort != nil {
		d.onSort(sorted)
	}
	return nil
}

func (d *Drag) excluded(label string) bool {
	for _, ex := range d.exclude {
		if ex != "" && strings.Contains(label, ex) {
			return true
		}
	}
	return false
}

// plain strips a "n." prefix: the second part when present, else the first.
func (d *Drag) plain(label string) string {
	parts := strings.Split(label, d.separator)
	if len(parts) > 1 && parts[1] != "" {
		return parts[1]
	}
	return parts[0]
}
