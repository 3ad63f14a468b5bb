// Package filter holds the column-visibility state behind a table's column
// picker.
//
// Candidates are the root columns with a non-blank label. The checked set
// always stays within [MinColumnNum, resolved max]; structural columns
// (selection, index, expand) are visible regardless of it.
package filter

import (
	"log/slog"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/event"
)

const (
	// DefaultRowNum is the number of checkboxes per picker row.
	DefaultRowNum = 4

	// DefaultButtonLayout lists the picker buttons in display order.
	DefaultButtonLayout = "cancel, all, reset"

	// DefaultWidth is the picker width in pixels.
	DefaultWidth = 400

	gridColumns = 24
)

// Button is a picker action.
type Button string

const (
	ButtonCancel Button = "cancel"
	ButtonAll    Button = "all"
	ButtonReset  Button = "reset"
)

// Options configures a filter State.
type Options struct {
	// Enabled turns on column filtering. When false every column is visible.
	Enabled bool

	// Selected is the caller-supplied default selection. nil means all
	// candidate columns.
	Selected []string

	MinColumnNum int
	// MaxColumnNum caps the visible candidates. nil means all candidates.
	MaxColumnNum *int

	RowNum       int
	ButtonLayout string
	Width        int

	CancelLabel string
	AllLabel    string
	ResetLabel  string

	Logger *slog.Logger
}

// Change is the filter-changed payload.
type Change struct {
	Checked []string
}

// State is the checked set plus the picker UI state. It is not safe for
// concurrent use.
type State struct {
	opts       Options
	candidates []column.Column
	checked    []string
	open       bool
	buttons    []Button
	rowNum     int
	emit       event.Emitter
	logger     *slog.Logger
}

// New creates a State for the given tree. Invalid RowNum or ButtonLayout
// values are reported and replaced with defaults.
func New(tree column.Tree, opts Options, emit event.Emitter) *State {
	if emit == nil {
		emit = event.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MinColumnNum <= 0 {
		opts.MinColumnNum = 1
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.CancelLabel == "" {
		opts.CancelLabel = "Cancel"
	}
	if opts.AllLabel == "" {
		opts.AllLabel = "Select all"
	}
	if opts.ResetLabel == "" {
		opts.ResetLabel = "Reset"
	}

	s := &State{
		opts:   opts,
		emit:   emit,
		logger: logger,
	}
	s.rowNum = s.resolveRowNum(opts.RowNum)
	s.buttons = s.parseButtons(opts.ButtonLayout)
	s.setCandidates(tree)
	s.checked = s.clamp(s.defaults(), nil)
	return s
}

// Rebuild recomputes the candidates after the column tree was rebuilt and
// restores the default selection.
func (s *State) Rebuild(tree column.Tree) {
	s.setCandidates(tree)
	s.checked = s.clamp(s.defaults(), nil)
	s.emit.Emit(event.Event{Signal: event.FilterChanged, Payload: Change{Checked: s.Checked()}})
}

func (s *State) setCandidates(tree column.Tree) {
	s.candidates = s.candidates[:0]
	for _, c := range tree.Columns {
		if c.Filterable() {
			s.candidates = append(s.candidates, c)
		}
	}
}

// Enabled reports whether filtering is on.
func (s *State) Enabled() bool {
	return s.opts.Enabled
}

// Candidates returns the filterable columns in declaration order.
func (s *State) Candidates() []column.Column {
	out := make([]column.Column, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Checked returns a copy of the checked props.
func (s *State) Checked() []string {
	out := make([]string, len(s.checked))
	copy(out, s.checked)
	return out
}

// IsChecked reports whether prop is in the checked set.
func (s *State) IsChecked(prop string) bool {
	for _, p := range s.checked {
		if p == prop {
			return true
		}
	}
	return false
}

// MinColumnNum is the lower bound on the checked set, limited to the
// resolved maximum.
func (s *State) MinColumnNum() int {
	if limit := s.MaxColumnNum(); s.opts.MinColumnNum > limit {
		return limit
	}
	return s.opts.MinColumnNum
}

// MaxColumnNum is the resolved upper bound on the checked set.
func (s *State) MaxColumnNum() int {
	if s.opts.MaxColumnNum != nil && *s.opts.MaxColumnNum > 0 {
		return *s.opts.MaxColumnNum
	}
	return len(s.candidates)
}

// SetChecked replaces the checked set, clamped into the column bounds, and
// emits filter-changed when the set changed.
func (s *State) SetChecked(next []string) {
	s.apply(s.clamp(next, s.checked))
}

// SelectAll checks the first MaxColumnNum candidates in declaration order.
func (s *State) SelectAll() {
	limit := s.MaxColumnNum()
	props := make([]string, 0, limit)
	for _, c := range s.candidates {
		if len(props) == limit {
			break
		}
		props = append(props, c.Prop)
	}
	s.apply(s.clamp(props, s.checked))
}

// Reset restores the caller-supplied selection, or all candidates.
func (s *State) Reset() {
	s.apply(s.clamp(s.defaults(), s.checked))
}

// Open shows the picker.
func (s *State) Open() {
	s.open = true
}

// Cancel closes the picker without touching the checked set.
func (s *State) Cancel() {
	s.open = false
}

// IsOpen reports whether the picker is showing.
func (s *State) IsOpen() bool {
	return s.open
}

// Visible returns the roots of tree that should be rendered.
func (s *State) Visible(tree column.Tree) column.Tree {
	if !s.opts.Enabled || len(s.checked) == 0 {
		return tree
	}
	return tree.Filter(func(c column.Column) bool {
		return c.Type != column.TypeNone || s.IsChecked(c.Prop)
	})
}

// RowNum is the number of checkboxes per picker row.
func (s *State) RowNum() int {
	return s.rowNum
}

// CellSpan is the grid span of one checkbox on a 24-column grid.
func (s *State) CellSpan() int {
	return gridColumns / s.rowNum
}

// Buttons returns the picker buttons in display order.
func (s *State) Buttons() []Button {
	out := make([]Button, len(s.buttons))
	copy(out, s.buttons)
	return out
}

// ButtonLabel returns the display text for b.
func (s *State) ButtonLabel(b Button) string {
	switch b {
	case ButtonCancel:
		return s.opts.CancelLabel
	case ButtonAll:
		return s.opts.AllLabel
	case ButtonReset:
		return s.opts.ResetLabel
	default:
		return string(b)
	}
}

// Width is the picker width in pixels.
func (s *State) Width() int {
	return s.opts.Width
}

func (s *State) apply(next []string) {
	if equal(next, s.checked) {
		return
	}
	s.checked = next
	s.emit.Emit(event.Event{Signal: event.FilterChanged, Payload: Change{Checked: s.Checked()}})
}

func (s *State) defaults() []string {
	if s.opts.Selected != nil {
		return s.opts.Selected
	}
	return s.candidateProps()
}

func (s *State) candidateProps() []string {
	props := make([]string, len(s.candidates))
	for i, c := range s.candidates {
		props[i] = c.Prop
	}
	return props
}

// clamp keeps known candidate props only, drops duplicates and enforces the
// bounds. When next is too small it is padded from prev, then from the
// defaults, then from the candidates in declaration order.
func (s *State) clamp(next, prev []string) []string {
	known := make(map[string]bool, len(s.candidates))
	for _, c := range s.candidates {
		known[c.Prop] = true
	}

	seen := make(map[string]bool, len(next))
	out := make([]string, 0, len(next))
	for _, p := range next {
		if !known[p] || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}

	if limit := s.MaxColumnNum(); len(out) > limit {
		out = out[:limit]
	}

	floor := s.MinColumnNum()
	pad := func(from []string) {
		for _, p := range from {
			if len(out) >= floor {
				return
			}
			if known[p] && !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	pad(prev)
	pad(s.defaults())
	pad(s.candidateProps())
	return out
}

func (s *State) resolveRowNum(n int) int {
	if n == 0 {
		return DefaultRowNum
	}
	if n < 0 || gridColumns%n != 0 {
		s.logger.Warn("column filter row num must divide 24, using default",
			"row_num", n,
			"default", DefaultRowNum,
		)
		return DefaultRowNum
	}
	return n
}

func (s *State) parseButtons(layout string) []Button {
	if strings.TrimSpace(layout) == "" {
		layout = DefaultButtonLayout
	}
	var out []Button
	for _, part := range strings.Split(layout, ",") {
		b := Button(strings.ToLower(strings.TrimSpace(part)))
		switch b {
		case ButtonCancel, ButtonAll, ButtonReset:
			out = append(out, b)
		case "":
		default:
			s.logger.Warn("unknown column filter button", "button", string(b))
		}
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
