package column

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuild_MergesTemplateBeforeConfig(t *testing.T) {
	b := NewBuilder(BuilderOptions{})
	tree := b.Build(
		TemplateSource{
			{Props: map[string]any{"prop": "t1", "label": "T1"}},
			{Props: map[string]any{"prop": "t2"}, Attrs: map[string]any{"label": "T2", "width": "80"}},
		},
		ConfigSource{
			{Prop: "c1", Label: "C1"},
			{Prop: "c2", Label: "C2"},
		},
	)

	want := []string{"t1", "t2", "c1", "c2"}
	if diff := cmp.Diff(want, tree.Props()); diff != "" {
		t.Errorf("Props() mismatch (-want +got):\n%s", diff)
	}

	t2, _ := tree.Find("t2")
	if t2.Label != "T2" {
		t.Errorf("t2 label = %q, want %q", t2.Label, "T2")
	}
	if t2.Attrs["width"] != "80" {
		t.Errorf("t2 width attr = %v, want 80", t2.Attrs["width"])
	}
}

func TestBuild_TypeColumnsSortFirst(t *testing.T) {
	b := NewBuilder(BuilderOptions{})
	tree := b.Build(nil, ConfigSource{
		{Prop: "name", Label: "Name"},
		{Prop: "age", Label: "Age"},
		{Type: TypeSelection},
		{Type: TypeIndex},
	})

	got := make([]string, 0, tree.Len())
	for _, c := range tree.Columns {
		got = append(got, c.Prop+string(c.Type))
	}
	want := []string{"selection", "index", "name", "age"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	if tree.Columns[0].LabelClassName != TypeColumnClass {
		t.Errorf("type column class = %q, want %q", tree.Columns[0].LabelClassName, TypeColumnClass)
	}
}

func TestBuild_ExplicitOrderIsStable(t *testing.T) {
	b := NewBuilder(BuilderOptions{})
	tree := b.Build(nil, ConfigSource{
		{Prop: "c", Order: OrderOf(3)},
		{Prop: "a", Order: OrderOf(1)},
		{Prop: "b1", Order: OrderOf(2)},
		{Prop: "b2", Order: OrderOf(2)},
		{Prop: "sel", Type: TypeSelection, Order: OrderOf(10)},
	})

	want := []string{"a", "b1", "b2", "c", "sel"}
	if diff := cmp.Diff(want, tree.Props()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_DefaultOrdersAreMonotonicAcrossBuilds(t *testing.T) {
	b := NewBuilder(BuilderOptions{})
	first := b.Build(nil, ConfigSource{{Prop: "a"}})
	second := b.Build(nil, ConfigSource{{Prop: "a"}})

	if first.Columns[0].OrderValue() != DefaultBaseOrder+1 {
		t.Errorf("first order = %d, want %d", first.Columns[0].OrderValue(), DefaultBaseOrder+1)
	}
	if second.Columns[0].OrderValue() <= first.Columns[0].OrderValue() {
		t.Errorf("second order %d not greater than first %d",
			second.Columns[0].OrderValue(), first.Columns[0].OrderValue())
	}
}

func TestBuild_DoesNotMutateDeclarations(t *testing.T) {
	decl := ConfigSource{{Prop: "a", Children: []Column{{Prop: "a1"}}}}
	NewBuilder(BuilderOptions{}).Build(nil, decl)

	if decl[0].Order != nil || decl[0].Children[0].Order != nil {
		t.Error("Build assigned orders on the caller's declarations")
	}
}

func TestBuild_LeafCount(t *testing.T) {
	tests := []struct {
		name string
		cfg  ConfigSource
		want int
	}{
		{"empty", nil, 0},
		{"flat", ConfigSource{{Prop: "a"}, {Prop: "b"}, {Type: TypeIndex}}, 3},
		{
			"nested",
			ConfigSource{
				{Prop: "a"},
				{Label: "Group", Children: []Column{
					{Prop: "g1"},
					{Label: "Inner", Children: []Column{{Prop: "i1"}, {Prop: "i2"}}},
				}},
			},
			4,
		},
		{"empty children slice is a leaf", ConfigSource{{Prop: "a", Children: []Column{}}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewBuilder(BuilderOptions{}).Build(nil, tt.cfg)
			if got := tree.LeafCount(); got != tt.want {
				t.Errorf("LeafCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuild_TemplateChildrenAndOrder(t *testing.T) {
	tree := NewBuilder(BuilderOptions{}).Build(TemplateSource{
		{
			Props: map[string]any{"label": "Address", "order": "5"},
			Children: []TemplateColumn{
				{Props: map[string]any{"prop": "city", "order": 2.0}},
				{Props: map[string]any{"prop": "street", "order": 1}},
			},
		},
		{Props: map[string]any{"prop": "name", "order": 1}},
	}, nil)

	if diff := cmp.Diff([]string{"name", ""}, tree.Props()); diff != "" {
		t.Errorf("root order mismatch (-want +got):\n%s", diff)
	}
	addr := tree.Columns[1]
	if addr.OrderValue() != 5 {
		t.Errorf("address order = %d, want 5", addr.OrderValue())
	}
	if addr.Children[0].Prop != "street" || addr.Children[1].Prop != "city" {
		t.Errorf("children not sorted by order: %+v", addr.Children)
	}
	if tree.LeafCount() != 3 {
		t.Errorf("LeafCount() = %d, want 3", tree.LeafCount())
	}
}

func TestBuild_WarnsOnMissingPropWhenFilterable(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	NewBuilder(BuilderOptions{Filterable: true, Logger: logger}).
		Build(nil, ConfigSource{{Label: "No prop"}, {Type: TypeIndex}})

	if !strings.Contains(buf.String(), "unique prop") {
		t.Errorf("expected diagnostic, got log %q", buf.String())
	}

	buf.Reset()
	NewBuilder(BuilderOptions{Filterable: false, Logger: logger}).
		Build(nil, ConfigSource{{Label: "No prop"}})
	if buf.Len() != 0 {
		t.Errorf("unexpected diagnostic with filtering disabled: %q", buf.String())
	}
}

func TestTree_Reorder(t *testing.T) {
	tree := NewBuilder(BuilderOptions{}).Build(nil, ConfigSource{
		{Type: TypeSelection},
		{Prop: "a", Label: "A"},
		{Prop: "b", Label: "B"},
		{Prop: "c", Label: "C"},
	})

	reordered := tree.Reorder([]string{"C", "A", "B"})

	want := []string{"", "c", "a", "b"}
	if diff := cmp.Diff(want, reordered.Props()); diff != "" {
		t.Errorf("Reorder mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"", "a", "b", "c"}, tree.Props()); diff != "" {
		t.Errorf("Reorder modified the receiver (-want +got):\n%s", diff)
	}
	if reordered.LeafCount() != tree.LeafCount() {
		t.Errorf("LeafCount changed: %d != %d", reordered.LeafCount(), tree.LeafCount())
	}
}

func TestTree_Leaves(t *testing.T) {
	tree := NewTree([]Column{
		{Prop: "a"},
		{Label: "G", Children: []Column{{Prop: "g1"}, {Prop: "g2"}}},
	})

	var got []string
	for _, c := range tree.Leaves() {
		got = append(got, c.Prop)
	}
	if diff := cmp.Diff([]string{"a", "g1", "g2"}, got); diff != "" {
		t.Errorf("Leaves mismatch (-want +got):\n%s", diff)
	}
}

func TestParseType(t *testing.T) {
	tests := map[string]Type{
		"selection": TypeSelection,
		" Index ":   TypeIndex,
		"expand":    TypeExpand,
		"":          TypeNone,
		"bogus":     TypeNone,
	}
	for in, want := range tests {
		if got := ParseType(in); got != want {
			t.Errorf("ParseType(%q) = %q, want %q", in, got, want)
		}
	}
}
