package domain

import (
	"reflect"
	"testing"
	"time"
)

func mustOrder(t *testing.T, o Order) Order {
	t.Helper()
	out, err := NewOrder(o)
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	return out
}

func TestConsolidateMergesLines(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	lines := []Order{
		mustOrder(t, Order{ID: 7, OrderDate: day, Destination: "Girona", Quantity: 10, Revenue: 100, LeadTimeHours: 24, ShelfLifeDays: 10}),
		mustOrder(t, Order{ID: 7, OrderDate: day, Destination: "Girona", Quantity: 5, Revenue: 40.5, LeadTimeHours: 72, ShelfLifeDays: 3}),
		mustOrder(t, Order{ID: 7, OrderDate: day, Destination: "Girona", Quantity: 1, Revenue: 9.5, LeadTimeHours: 0, ShelfLifeDays: 20}),
	}

	got := Consolidate([][]Order{lines, {}})
	if len(got) != 1 {
		t.Fatalf("expected 1 consolidated order, got %d", len(got))
	}

	o := got[0]
	if o.ID != 7 {
		t.Errorf("ID = %d, want 7", o.ID)
	}
	if o.Quantity != 16 {
		t.Errorf("Quantity = %d, want 16", o.Quantity)
	}
	if o.Revenue != 150 {
		t.Errorf("Revenue = %v, want 150", o.Revenue)
	}
	if o.ShelfLifeDays != 3 {
		t.Errorf("ShelfLifeDays = %d, want 3", o.ShelfLifeDays)
	}
	if o.LeadTimeHours != 72 {
		t.Errorf("LeadTimeHours = %d, want 72", o.LeadTimeHours)
	}

	// line 2: 1 + 3 + 3 = 7 days, the earliest expiry
	wantExpiry := day.AddDate(0, 0, 7)
	if !o.FinalExpiryDate.Equal(wantExpiry) {
		t.Errorf("FinalExpiryDate = %v, want %v", o.FinalExpiryDate, wantExpiry)
	}
	// line 3: 1 + 0 + 20 = 21 days, the largest total
	if o.TotalShelfLifeDays != 21 {
		t.Errorf("TotalShelfLifeDays = %d, want 21", o.TotalShelfLifeDays)
	}
	if o.Product != "Order_7_Consolidated" {
		t.Errorf("Product = %q", o.Product)
	}
}

func TestConsolidateIsIdempotentOnSingleLines(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	orders := []Order{
		mustOrder(t, Order{ID: 1, OrderDate: day, Product: "Milk", Destination: "Lleida", Quantity: 3, Revenue: 12, ShelfLifeDays: 4}),
		mustOrder(t, Order{ID: 2, OrderDate: day, Product: "Cheese", Destination: "Reus", Quantity: 8, Revenue: 80, ShelfLifeDays: 30}),
	}

	once := Consolidate(GroupByID(orders))
	twice := Consolidate(GroupByID(once))

	if !reflect.DeepEqual(orders, once) {
		t.Fatalf("first consolidation changed orders:\n got %+v\nwant %+v", once, orders)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("consolidation is not idempotent:\n got %+v\nwant %+v", twice, once)
	}
}

func TestGroupByIDKeepsFirstSeenOrder(t *testing.T) {
	lines := []Order{{ID: 3}, {ID: 1}, {ID: 3}, {ID: 2}, {ID: 1}}

	groups := GroupByID(lines)

	var ids []int
	var sizes []int
	for _, g := range groups {
		ids = append(ids, g[0].ID)
		sizes = append(sizes, len(g))
	}
	if !reflect.DeepEqual(ids, []int{3, 1, 2}) {
		t.Fatalf("group ids = %v, want [3 1 2]", ids)
	}
	if !reflect.DeepEqual(sizes, []int{2, 2, 1}) {
		t.Fatalf("group sizes = %v, want [2 2 1]", sizes)
	}
}
