package dataset

import (
	"fmt"

	"github.com/JonMunkholm/tablekit/internal/column"
)

// Demo dataset keys.
const (
	DemoOrders    = "orders"
	DemoCustomers = "customers"
)

var regions = []string{"North", "South", "East", "West"}

var statuses = []string{"open", "shipped", "invoiced", "closed"}

// DemoDatasets returns the built-in datasets served without a database.
// Row values are deterministic so that pages are stable across restarts.
func DemoDatasets() []Dataset {
	return []Dataset{
		{
			Key:        DemoCustomers,
			Group:      "Sales",
			Label:      "Customers",
			Selectable: true,
			Fields: []Field{
				{Prop: "id", Label: "ID"},
				{Prop: "name", Label: "Name", Searchable: true},
				{Prop: "region", Label: "Region", Searchable: true},
				{Prop: "email", Label: "Email", Searchable: true},
			},
			Seed: func() []column.Row {
				rows := make([]column.Row, 0, 42)
				for i := 1; i <= 42; i++ {
					rows = append(rows, column.Row{
						"id":     i,
						"name":   fmt.Sprintf("Customer %02d", i),
						"region": regions[i%len(regions)],
						"email":  fmt.Sprintf("customer%02d@example.com", i),
					})
				}
				return rows
			},
		},
		{
			Key:        DemoOrders,
			Group:      "Sales",
			Label:      "Orders",
			Selectable: true,
			Fields: []Field{
				{Prop: "id", Label: "Order"},
				{Prop: "customer", Label: "Customer", Searchable: true},
				{Prop: "status", Label: "Status", Searchable: true},
				{Prop: "amount", Label: "Amount"},
			},
			Seed: func() []column.Row {
				rows := make([]column.Row, 0, 137)
				for i := 1; i <= 137; i++ {
					rows = append(rows, column.Row{
						"id":       1000 + i,
						"customer": fmt.Sprintf("Customer %02d", 1+i%42),
						"status":   statuses[i%len(statuses)],
						"amount":   (i * 7919) % 10000,
					})
				}
				return rows
			},
		},
	}
}

// RegisterDemo registers every demo dataset that is not registered yet.
func RegisterDemo() {
	for _, d := range DemoDatasets() {
		if _, ok := Get(d.Key); !ok {
			Register(d)
		}
	}
}
