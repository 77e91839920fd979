package services

import (
	"log/slog"

	"findash/internal/core"
	"findash/internal/store"
)

// Alert levels for a month's spending against the configured budget.
const (
	BudgetOK       = "ok"
	BudgetWarning  = "warning"
	BudgetExceeded = "exceeded"
)

// warningRatio is the share of the budget at which spending starts to warn.
const warningRatio = 0.8

// BudgetStatus describes one month's expense total against the budget.
type BudgetStatus struct {
	Month     string     `json:"month"`
	Spent     core.Money `json:"-"`
	Budget    core.Money `json:"-"`
	SpentUnit float64    `json:"spent"`
	Limit     float64    `json:"budget"`
	Ratio     float64    `json:"ratio"`
	Level     string     `json:"level"`
}

// BudgetService evaluates monthly spending against the configured ceiling.
type BudgetService struct {
	store *store.Store
}

func NewBudgetService(s *store.Store) *BudgetService {
	return &BudgetService{store: s}
}

// EvaluateMonth sums expense transactions for the given month key
// ("2006-01") and grades the total against the budget. A zero budget means
// no ceiling is configured and always grades ok.
func (s *BudgetService) EvaluateMonth(month string) BudgetStatus {
	budget := s.store.Budget()

	var spent core.Money
	for _, t := range s.store.List() {
		if t.Type != core.TypeExpense {
			continue
		}
		if t.Date.IsZero() || t.Date.MonthKey() != month {
			continue
		}
		spent.Cents += t.Amount.Cents
	}

	status := BudgetStatus{
		Month:     month,
		Spent:     spent,
		Budget:    budget,
		SpentUnit: spent.Units(),
		Limit:     budget.Units(),
		Level:     BudgetOK,
	}
	if budget.Cents <= 0 {
		return status
	}

	status.Ratio = float64(spent.Cents) / float64(budget.Cents)
	switch {
	case spent.Cents > budget.Cents:
		status.Level = BudgetExceeded
	case status.Ratio >= warningRatio:
		status.Level = BudgetWarning
	}
	return status
}

// LogAlert writes a structured alert for any month over the warning line.
// Used by the scheduled evaluation in the worker.
func (s *BudgetService) LogAlert(status BudgetStatus) {
	switch status.Level {
	case BudgetExceeded:
		slog.Warn("Monthly budget exceeded",
			"month", status.Month,
			"spent_cents", status.Spent.Cents,
			"budget_cents", status.Budget.Cents)
	case BudgetWarning:
		slog.Warn("Monthly budget warning threshold reached",
			"month", status.Month,
			"spent_cents", status.Spent.Cents,
			"budget_cents", status.Budget.Cents,
			"ratio", status.Ratio)
	}
}
