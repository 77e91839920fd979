package services

import (
	"context"
	"testing"

	"findash/internal/core"
	"findash/internal/store"
)

func budgetStore(t *testing.T, budgetCents int64, txs ...core.Transaction) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if budgetCents > 0 {
		if err := s.SetBudget(ctx, core.Money{Cents: budgetCents}); err != nil {
			t.Fatalf("set budget: %v", err)
		}
	}
	s.ReplaceAll(ctx, txs)
	return s
}

func expense(id string, cents int64, y int, m, d int) core.Transaction {
	return core.Transaction{
		ID:       id,
		Title:    "Expense " + id,
		Amount:   core.Money{Cents: cents},
		Date:     core.NewDate(y, m, d),
		Category: "Food",
		Type:     core.TypeExpense,
	}
}

func TestEvaluateMonthLevels(t *testing.T) {
	tests := []struct {
		name        string
		budgetCents int64
		spentCents  int64
		wantLevel   string
	}{
		{"well under budget", 100000, 50000, BudgetOK},
		{"just under warning line", 100000, 79999, BudgetOK},
		{"at warning line", 100000, 80000, BudgetWarning},
		{"at exactly budget", 100000, 100000, BudgetWarning},
		{"over budget", 100000, 100001, BudgetExceeded},
		{"no budget configured", 0, 500000, BudgetOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := budgetStore(t, tt.budgetCents, expense("1", tt.spentCents, 2024, 3, 10))
			status := NewBudgetService(s).EvaluateMonth("2024-03")
			if status.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", status.Level, tt.wantLevel)
			}
			if status.Spent.Cents != tt.spentCents {
				t.Errorf("spent = %d, want %d", status.Spent.Cents, tt.spentCents)
			}
		})
	}
}

func TestEvaluateMonthOnlyCountsExpensesInMonth(t *testing.T) {
	s := budgetStore(t, 100000,
		expense("1", 30000, 2024, 3, 1),
		expense("2", 20000, 2024, 3, 15),
		expense("3", 99999, 2024, 4, 1), // other month
		core.Transaction{
			ID:       "4",
			Title:    "Salary",
			Amount:   core.Money{Cents: 250000},
			Date:     core.NewDate(2024, 3, 1),
			Category: "Salary",
			Type:     core.TypeIncome,
		},
		core.Transaction{
			ID:       "5",
			Title:    "Undated",
			Amount:   core.Money{Cents: 10000},
			Category: "Food",
			Type:     core.TypeExpense,
		},
	)

	status := NewBudgetService(s).EvaluateMonth("2024-03")
	if status.Spent.Cents != 50000 {
		t.Errorf("spent = %d, want 50000", status.Spent.Cents)
	}
	if status.Level != BudgetOK {
		t.Errorf("level = %s, want %s", status.Level, BudgetOK)
	}
}
