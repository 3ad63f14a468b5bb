package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/tablekit/internal/column"
)

func TestRegistry(t *testing.T) {
	Clear()
	defer Clear()

	Register(Dataset{Key: "b", Group: "Z"})
	Register(Dataset{Key: "a", Group: "Z"})
	Register(Dataset{Key: "c", Group: "A"})

	if Count() != 3 {
		t.Fatalf("Count() = %d, want 3", Count())
	}

	var keys []string
	for _, d := range All() {
		keys = append(keys, d.Key)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, keys); diff != "" {
		t.Errorf("All() order mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"A", "Z"}, Groups()); diff != "" {
		t.Errorf("Groups() mismatch (-want +got):\n%s", diff)
	}
	if got := len(ByGroup("Z")); got != 2 {
		t.Errorf("len(ByGroup(Z)) = %d, want 2", got)
	}

	if _, ok := Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	Clear()
	defer Clear()

	Register(Dataset{Key: "orders"})
	defer func() {
		if recover() == nil {
			t.Error("Register() did not panic on duplicate key")
		}
	}()
	Register(Dataset{Key: "orders"})
}

func TestDataset_Columns(t *testing.T) {
	d := Dataset{
		Key:        "orders",
		Selectable: true,
		Fields: []Field{
			{Prop: "id", Label: "Order"},
			{Prop: "Order Date", Label: "Date"},
		},
	}

	want := column.ConfigSource{
		{Type: column.TypeSelection},
		{Prop: "id", Label: "Order"},
		{Prop: "Order Date", Label: "Date"},
	}
	if diff := cmp.Diff(want, d.Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}

	f, ok := d.Field("order date")
	if !ok {
		t.Fatal("Field(order date) not found")
	}
	if got := f.DBColumnName(); got != "order_date" {
		t.Errorf("DBColumnName() = %q, want %q", got, "order_date")
	}
	if d.TableName() != "orders" || d.KeyProp() != "id" {
		t.Errorf("TableName()/KeyProp() = %q/%q, want orders/id", d.TableName(), d.KeyProp())
	}
}

func TestRegisterDemo_Idempotent(t *testing.T) {
	Clear()
	defer Clear()

	RegisterDemo()
	RegisterDemo()

	d, ok := Get(DemoOrders)
	if !ok {
		t.Fatal("orders demo not registered")
	}
	rows := d.Seed()
	if len(rows) != 137 {
		t.Errorf("len(orders) = %d, want 137", len(rows))
	}
	if rows[0]["id"] != 1001 {
		t.Errorf("first order id = %v, want 1001", rows[0]["id"])
	}
}
