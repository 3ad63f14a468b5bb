package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/event"
	"github.com/JonMunkholm/tablekit/internal/filter"
	"github.com/JonMunkholm/tablekit/internal/remote"
)

type fakeWidget struct {
	mu    sync.Mutex
	marks map[string]bool
	calls []string
}

func newFakeWidget() *fakeWidget {
	return &fakeWidget{marks: map[string]bool{}}
}

func (w *fakeWidget) ToggleRowSelection(row column.Row, selected bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.marks[fmt.Sprint(row["id"])] = selected
}

func (w *fakeWidget) ClearSelection() { w.record("clear-selection") }
func (w *fakeWidget) ClearSort()      { w.record("clear-sort") }
func (w *fakeWidget) ClearFilter()    { w.record("clear-filter") }
func (w *fakeWidget) DoLayout()       { w.record("do-layout") }

func (w *fakeWidget) Sort(prop string, order SortOrder) {
	w.record("sort:" + prop + ":" + string(order))
}

func (w *fakeWidget) record(call string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, call)
}

func (w *fakeWidget) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

func (w *fakeWidget) Marked(id string) (selected, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	selected, ok = w.marks[id]
	return selected, ok
}

func makeRows(n int) []column.Row {
	rows := make([]column.Row, n)
	for i := range rows {
		rows[i] = column.Row{"id": i + 1, "name": fmt.Sprintf("row %d", i+1)}
	}
	return rows
}

func peopleColumns() column.ConfigSource {
	return column.ConfigSource{
		{Prop: "name", Label: "Name"},
		{Prop: "age", Label: "Age"},
		{Type: column.TypeSelection},
	}
}

func TestLocal_SetCurrentPageClampsToLastPage(t *testing.T) {
	tbl := NewLocal(Options{PageSize: 10, Columns: peopleColumns()}, makeRows(25))
	var rec event.Recorder
	tbl.Subscribe(event.PaginationChanged, rec.Emit)

	tbl.SetCurrentPage(5)

	if got := tbl.PageState().CurrentPage; got != 3 {
		t.Errorf("CurrentPage = %d, want 3", got)
	}
	if got := len(tbl.Rows()); got != 5 {
		t.Errorf("len(Rows()) = %d, want 5", got)
	}
	if n := rec.Count(event.PaginationChanged); n != 1 {
		t.Errorf("pagination-changed emitted %d times, want 1", n)
	}
}

func TestView_SelectionColumnFirstAndFiltered(t *testing.T) {
	tbl := NewLocal(Options{
		Columns: peopleColumns(),
		Filter:  filter.Options{Enabled: true, Selected: []string{"age"}},
	}, makeRows(3))

	v := tbl.View()
	var got []string
	for _, c := range v.Columns {
		got = append(got, c.Prop+string(c.Type))
	}
	if diff := cmp.Diff([]string{"selection", "age"}, got); diff != "" {
		t.Errorf("visible columns (-want +got):\n%s", diff)
	}
	if v.ColspanFix != 1 {
		t.Errorf("ColspanFix = %d, want 1", v.ColspanFix)
	}

	tbl.SelectAllColumns()
	if n := len(tbl.View().Columns); n != 3 {
		t.Errorf("after SelectAllColumns %d columns visible, want 3", n)
	}
}

func TestSelection_SurvivesPageTurns(t *testing.T) {
	tbl := NewLocal(Options{PageSize: 10, Columns: peopleColumns()}, makeRows(25))
	w := newFakeWidget()
	tbl.Attach(w)

	tbl.SetSelection([]string{"3", "15"})
	if sel, ok := w.Marked("3"); !ok || !sel {
		t.Errorf("row 3 marked = %v (seen %v), want selected", sel, ok)
	}

	tbl.SetCurrentPage(2)
	if sel, _ := w.Marked("15"); !sel {
		t.Error("row 15 not re-marked on page 2")
	}
	if sel, ok := w.Marked("11"); !ok || sel {
		t.Errorf("row 11 marked = %v (seen %v), want unselected", sel, ok)
	}
	if diff := cmp.Diff([]string{"3", "15"}, tbl.Selection()); diff != "" {
		t.Errorf("Selection() (-want +got):\n%s", diff)
	}
}

func TestWidgetForwarding(t *testing.T) {
	tbl := NewLocal(Options{}, nil)

	if err := tbl.ClearSort(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ClearSort() without widget = %v, want ErrUnsupported", err)
	}

	w := newFakeWidget()
	tbl.Attach(w)
	if err := tbl.ClearSort(); err != nil {
		t.Errorf("ClearSort() = %v", err)
	}
	if err := tbl.ToggleRowExpansion(column.Row{}, true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ToggleRowExpansion() = %v, want ErrUnsupported", err)
	}
	if diff := cmp.Diff([]string{"clear-sort"}, w.Calls()); diff != "" {
		t.Errorf("widget calls (-want +got):\n%s", diff)
	}
}

func TestColumnsReordered(t *testing.T) {
	tbl := NewLocal(Options{
		DragSortable: true,
		Columns: column.ConfigSource{
			{Type: column.TypeIndex},
			{Prop: "a", Label: "A"},
			{Prop: "b", Label: "B"},
			{Prop: "c", Label: "C"},
		},
	}, nil)

	var order []event.Signal
	record := func(e event.Event) { order = append(order, e.Signal) }
	tbl.Subscribe(event.ColumnReordered, record)
	tbl.Subscribe(event.ColumnOrderCommitted, record)

	if err := tbl.DropColumn(0, 2); err != nil {
		t.Fatalf("DropColumn() error = %v", err)
	}

	want := []event.Signal{event.ColumnReordered, event.ColumnOrderCommitted}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("event order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"", "c", "b", "a"}, tbl.Columns().Props()); diff != "" {
		t.Errorf("column order (-want +got):\n%s", diff)
	}
}

func TestReset(t *testing.T) {
	tbl := NewLocal(Options{
		PageSize:    20,
		Selection:   []string{"2"},
		DefaultSort: &Sort{Prop: "name", Order: Descending},
	}, makeRows(100))
	w := newFakeWidget()
	tbl.Attach(w)

	tbl.SetPageSize(50)
	tbl.SetCurrentPage(2)
	tbl.Reset()

	st := tbl.PageState()
	if st.CurrentPage != 1 || st.PageSize != 20 {
		t.Errorf("PageState() = %+v, want page 1 size 20", st)
	}
	if diff := cmp.Diff([]string{"clear-filter", "sort:name:descending"}, w.Calls()); diff != "" {
		t.Errorf("widget calls (-want +got):\n%s", diff)
	}
	if sel, _ := w.Marked("2"); !sel {
		t.Error("default selection not re-marked")
	}
}

func TestReset_ClearsWithoutDefaults(t *testing.T) {
	tbl := NewLocal(Options{}, makeRows(3))
	w := newFakeWidget()
	tbl.Attach(w)
	tbl.SetSelection([]string{"1"})

	tbl.Reset()

	if diff := cmp.Diff([]string{"clear-filter", "clear-sort", "clear-selection"}, w.Calls()); diff != "" {
		t.Errorf("widget calls (-want +got):\n%s", diff)
	}
	if n := len(tbl.Selection()); n != 0 {
		t.Errorf("Selection() has %d keys after Reset", n)
	}
}

func TestSubscriberMayCallBack(t *testing.T) {
	tbl := NewLocal(Options{PageSize: 10}, makeRows(30))
	var seen int
	tbl.Subscribe(event.CurrentPageChanged, func(event.Event) {
		seen = tbl.PageState().CurrentPage
		_ = tbl.View()
	})

	done := make(chan struct{})
	go func() {
		tbl.SetCurrentPage(2)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SetCurrentPage deadlocked with a re-entrant subscriber")
	}
	if seen != 2 {
		t.Errorf("subscriber saw page %d, want 2", seen)
	}
}

func TestColspanFix(t *testing.T) {
	cols := column.ConfigSource{
		{Prop: "a", Label: "A"},
		{Label: "G", Children: []column.Column{{Prop: "g1"}, {Prop: "g2"}}},
	}
	plain := NewLocal(Options{Columns: cols}, nil)
	if got := plain.ColspanFix(); got != 2 {
		t.Errorf("ColspanFix() = %d, want 2", got)
	}

	withActions := NewLocal(Options{
		Columns: cols,
		Actions: &ActionColumn{Buttons: []ActionButton{{Label: "Edit"}}},
	}, nil)
	if got := withActions.ColspanFix(); got != 3 {
		t.Errorf("ColspanFix() with actions = %d, want 3", got)
	}
	v := withActions.View()
	if v.Actions == nil || v.Actions.Label != DefaultActionLabel || v.Actions.Prop == "" {
		t.Errorf("Actions = %+v, want default label and a generated prop", v.Actions)
	}
}

func TestTriggerAction(t *testing.T) {
	var got column.Row
	tbl := NewLocal(Options{Actions: &ActionColumn{Buttons: []ActionButton{
		{Label: "Open", Handler: func(r column.Row) { got = r }},
	}}}, nil)

	if err := tbl.TriggerAction(0, column.Row{"id": 9}); err != nil {
		t.Fatalf("TriggerAction() error = %v", err)
	}
	if got["id"] != 9 {
		t.Errorf("handler got %v", got)
	}
	if err := tbl.TriggerAction(1, nil); err == nil {
		t.Error("TriggerAction() out of range should fail")
	}
}

func TestView_PaginationShown(t *testing.T) {
	tbl := NewLocal(Options{PageSize: 10}, makeRows(12))
	v := tbl.View()
	if !v.Pagination.Show || v.Pagination.Pages != 2 {
		t.Errorf("Pagination = %+v, want shown with 2 pages", v.Pagination)
	}

	empty := NewLocal(Options{PageSize: 10}, nil)
	if empty.View().Pagination.Show {
		t.Error("pager shown for an empty table")
	}

	noPager := NewLocal(Options{PageSize: 10, Layout: "table"}, makeRows(12))
	if noPager.View().Pagination.Show {
		t.Error("pager shown without a pagination section")
	}
}

func TestUnpaged_ShowsAllRows(t *testing.T) {
	tbl := NewLocal(Options{Unpaged: true}, makeRows(42))
	if got := len(tbl.Rows()); got != 42 {
		t.Errorf("len(Rows()) = %d, want 42", got)
	}
}

func TestRemote_ForwardsDataChanged(t *testing.T) {
	fetcher := remote.FetchFunc(func(ctx context.Context, p remote.Params, _ remote.Intent) (remote.Response, error) {
		data := make([]any, 0, 5)
		for _, r := range makeRows(5) {
			data = append(data, map[string]any(r))
		}
		return remote.Object(map[string]any{"data": data, "total": 5}), nil
	})

	tbl, err := NewRemote(Options{Name: "people", PageSize: 10, Selection: []string{"2"}},
		remote.Options{Fetcher: fetcher, CoalesceWindow: time.Millisecond})
	if err != nil {
		t.Fatalf("NewRemote() error = %v", err)
	}
	defer tbl.Close()

	w := newFakeWidget()
	tbl.Attach(w)
	tbl.SetSelection([]string{"4"})

	var rec event.Recorder
	tbl.Subscribe(event.DataChanged, rec.Emit)

	tbl.Reload()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tbl.Coordinator().Settle(ctx); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	if rec.Count(event.DataChanged) != 1 {
		t.Errorf("data-changed forwarded %d times, want 1", rec.Count(event.DataChanged))
	}
	if got := len(tbl.Rows()); got != 5 {
		t.Errorf("len(Rows()) = %d, want 5", got)
	}
	if sel, _ := w.Marked("4"); !sel {
		t.Error("row 4 not marked after remote data arrived")
	}
	if got := tbl.View().Pagination.State.Total; got != 5 {
		t.Errorf("Total = %d, want 5", got)
	}
	if err := tbl.SetData(nil); err == nil {
		t.Error("SetData on a remote table should fail")
	}
}
