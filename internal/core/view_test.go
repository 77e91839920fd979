package core

import (
	"reflect"
	"testing"
)

func sampleRecords() []Transaction {
	return []Transaction{
		{ID: "1", Title: "Groceries", Amount: Money{Cents: 10000}, Date: NewDate(2024, 1, 5), Category: "Food", Type: TypeExpense},
		{ID: "2", Title: "Restaurant", Amount: Money{Cents: 5000}, Date: NewDate(2024, 2, 10), Category: "Food", Type: TypeExpense},
		{ID: "3", Title: "Salary", Amount: Money{Cents: 250000}, Date: NewDate(2024, 1, 31), Category: "Salary", Type: TypeIncome},
		{ID: "4", Title: "Index fund", Amount: Money{Cents: 30000}, Date: NewDate(2024, 2, 1), Category: "Stocks", Type: TypeInvestment, Notes: "monthly savings plan"},
		{ID: "5", Title: "Bus pass", Amount: Money{Cents: 4500}, Date: NewDate(2024, 1, 2), Category: "Transport", Type: TypeExpense},
	}
}

func ids(v View) []string {
	out := make([]string, len(v.Transactions))
	for i, t := range v.Transactions {
		out[i] = t.ID
	}
	return out
}

func TestComputeViewMonthFilter(t *testing.T) {
	records := []Transaction{
		{ID: "a", Title: "x", Amount: Money{Cents: 10000}, Date: NewDate(2024, 1, 5), Category: "Food", Type: TypeExpense},
		{ID: "b", Title: "y", Amount: Money{Cents: 5000}, Date: NewDate(2024, 2, 10), Category: "Food", Type: TypeExpense},
	}
	v := ComputeView(records, ViewParams{Month: "01"})
	if len(v.Transactions) != 1 || v.Transactions[0].ID != "a" {
		t.Fatalf("unexpected view: %v", ids(v))
	}
	if v.TotalAmount.Cents != 10000 {
		t.Fatalf("total=%d want 10000", v.TotalAmount.Cents)
	}
	if len(v.ByCategory) != 1 || v.ByCategory[0].Category != "Food" || v.ByCategory[0].Amount.Cents != 10000 {
		t.Fatalf("unexpected byCategory: %+v", v.ByCategory)
	}
}

func TestComputeViewTypeFilterAndSearch(t *testing.T) {
	v := ComputeView(sampleRecords(), ViewParams{Type: TypeExpense, Sort: SortByDate, Dir: SortAsc})
	if got := ids(v); !reflect.DeepEqual(got, []string{"5", "1", "2"}) {
		t.Fatalf("type filter order: %v", got)
	}

	// Search hits notes and category too, case-insensitively.
	v = ComputeView(sampleRecords(), ViewParams{Search: "SAVINGS"})
	if got := ids(v); !reflect.DeepEqual(got, []string{"4"}) {
		t.Fatalf("notes search: %v", got)
	}
	v = ComputeView(sampleRecords(), ViewParams{Search: "transport"})
	if got := ids(v); !reflect.DeepEqual(got, []string{"5"}) {
		t.Fatalf("category search: %v", got)
	}
}

func TestComputeViewSortStability(t *testing.T) {
	records := []Transaction{
		{ID: "first", Title: "Same", Amount: Money{Cents: 100}, Date: NewDate(2024, 3, 1), Category: "Food", Type: TypeExpense},
		{ID: "second", Title: "Same", Amount: Money{Cents: 100}, Date: NewDate(2024, 3, 1), Category: "Food", Type: TypeExpense},
		{ID: "third", Title: "Same", Amount: Money{Cents: 100}, Date: NewDate(2024, 3, 1), Category: "Food", Type: TypeExpense},
	}
	for _, dir := range []SortDir{SortAsc, SortDesc} {
		for _, field := range []SortField{SortByDate, SortByAmount, SortByTitle} {
			v := ComputeView(records, ViewParams{Sort: field, Dir: dir})
			if got := ids(v); !reflect.DeepEqual(got, []string{"first", "second", "third"}) {
				t.Fatalf("sort %s/%s broke insertion order: %v", field, dir, got)
			}
		}
	}
}

func TestComputeViewSortFields(t *testing.T) {
	v := ComputeView(sampleRecords(), ViewParams{Sort: SortByAmount, Dir: SortAsc})
	if got := ids(v); !reflect.DeepEqual(got, []string{"5", "2", "1", "4", "3"}) {
		t.Fatalf("amount asc: %v", got)
	}
	v = ComputeView(sampleRecords(), ViewParams{Sort: SortByTitle, Dir: SortAsc})
	if got := ids(v); !reflect.DeepEqual(got, []string{"5", "1", "4", "2", "3"}) {
		t.Fatalf("title asc: %v", got)
	}
	// Default is date descending.
	v = ComputeView(sampleRecords(), ViewParams{})
	if got := ids(v); !reflect.DeepEqual(got, []string{"2", "4", "3", "1", "5"}) {
		t.Fatalf("default order: %v", got)
	}
}

func TestComputeViewAggregates(t *testing.T) {
	v := ComputeView(sampleRecords(), ViewParams{Sort: SortByDate, Dir: SortAsc})

	if v.TotalAmount.Cents != 299500 {
		t.Fatalf("total=%d", v.TotalAmount.Cents)
	}
	// income - expenses - investments
	if want := int64(250000 - 19500 - 30000); v.NetBalance.Cents != want {
		t.Fatalf("net=%d want %d", v.NetBalance.Cents, want)
	}

	// Categories in first-seen order over the sorted view.
	wantCats := []CategoryTotal{
		{Category: "Transport", Amount: Money{Cents: 4500}},
		{Category: "Food", Amount: Money{Cents: 15000}},
		{Category: "Salary", Amount: Money{Cents: 250000}},
		{Category: "Stocks", Amount: Money{Cents: 30000}},
	}
	if !reflect.DeepEqual(v.ByCategory, wantCats) {
		t.Fatalf("byCategory: %+v", v.ByCategory)
	}

	wantMonths := []MonthTotal{
		{Month: "2024-01", Expense: Money{Cents: 14500}, Income: Money{Cents: 250000}},
		{Month: "2024-02", Expense: Money{Cents: 5000}, Investment: Money{Cents: 30000}},
	}
	if !reflect.DeepEqual(v.ByMonth, wantMonths) {
		t.Fatalf("byMonth: %+v", v.ByMonth)
	}
}

func TestComputeViewEmptyAndMalformedDates(t *testing.T) {
	v := ComputeView(nil, ViewParams{})
	if len(v.Transactions) != 0 || v.TotalAmount.Cents != 0 || len(v.ByCategory) != 0 || len(v.ByMonth) != 0 {
		t.Fatalf("empty input should yield empty aggregates: %+v", v)
	}

	records := []Transaction{
		{ID: "dated", Title: "a", Amount: Money{Cents: 100}, Date: NewDate(2024, 1, 1), Category: "Food", Type: TypeExpense},
		{ID: "undated", Title: "b", Amount: Money{Cents: 200}, Category: "Food", Type: TypeExpense},
	}
	v = ComputeView(records, ViewParams{Sort: SortByDate, Dir: SortAsc})
	// The undated record stays in the raw view and in the running totals,
	// but gets no month bucket.
	if len(v.Transactions) != 2 {
		t.Fatalf("undated record dropped from view")
	}
	if v.TotalAmount.Cents != 300 {
		t.Fatalf("total=%d", v.TotalAmount.Cents)
	}
	if len(v.ByMonth) != 1 || v.ByMonth[0].Month != "2024-01" || v.ByMonth[0].Expense.Cents != 100 {
		t.Fatalf("byMonth: %+v", v.ByMonth)
	}
}

func TestComputeViewIsPure(t *testing.T) {
	records := sampleRecords()
	params := ViewParams{Type: TypeExpense, Search: "r", Sort: SortByAmount, Dir: SortDesc}
	first := ComputeView(records, params)
	second := ComputeView(records, params)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different views")
	}
	// Input order untouched.
	if records[0].ID != "1" || records[4].ID != "5" {
		t.Fatalf("ComputeView mutated its input")
	}
}
