package worker

import (
	"context"
	"testing"
	"time"

	"findash/internal/core"
	"findash/internal/services"
	"findash/internal/store"
)

// settableBackend serves whatever snapshot the test assigns.
type settableBackend struct {
	snap store.Snapshot
}

func (b *settableBackend) Load(context.Context) (store.Snapshot, error) { return b.snap, nil }
func (b *settableBackend) Insert(context.Context, core.Transaction) error {
	return nil
}
func (b *settableBackend) Update(context.Context, core.Transaction) error     { return nil }
func (b *settableBackend) Delete(context.Context, string) error               { return nil }
func (b *settableBackend) Clear(context.Context) error                        { return nil }
func (b *settableBackend) ReplaceAll(context.Context, []core.Transaction) error {
	return nil
}
func (b *settableBackend) SaveBudget(context.Context, core.Money) error { return nil }
func (b *settableBackend) SaveTheme(context.Context, string) error      { return nil }
func (b *settableBackend) Close() error                                 { return nil }

func TestEvaluateSeesWritesFromOtherProcess(t *testing.T) {
	ctx := context.Background()
	backend := &settableBackend{}

	st, err := store.Open(ctx, backend)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	budget := services.NewBudgetService(st)
	s := NewAlertScheduler(budget, st)
	s.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }

	// The server process records spending after this worker started.
	backend.snap = store.Snapshot{
		Transactions: []core.Transaction{
			{ID: "1", Title: "Rent", Amount: core.Money{Cents: 9500}, Date: core.NewDate(2024, 1, 3), Category: "Housing", Type: core.TypeExpense},
		},
		MonthlyBudget: core.Money{Cents: 10000},
	}

	s.Evaluate(ctx)

	status := budget.EvaluateMonth("2024-01")
	if status.Spent.Cents != 9500 {
		t.Fatalf("spent=%d, want 9500 (evaluation ran on stale data)", status.Spent.Cents)
	}
	if status.Level != services.BudgetWarning {
		t.Fatalf("level=%q, want warning", status.Level)
	}
}
