package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"findash/internal/services"
)

// StoreReloader refreshes an in-memory collection from durable storage.
type StoreReloader interface {
	Reload(ctx context.Context) error
}

// AlertScheduler runs the budget evaluation for the current month on a cron
// schedule and logs an alert when spending crosses the warning line.
type AlertScheduler struct {
	budget *services.BudgetService
	store  StoreReloader
	cron   *cron.Cron
	now    func() time.Time
}

func NewAlertScheduler(budget *services.BudgetService, store StoreReloader) *AlertScheduler {
	return &AlertScheduler{
		budget: budget,
		store:  store,
		cron:   cron.New(),
		now:    time.Now,
	}
}

// Start registers the evaluation job and starts the scheduler.
func (s *AlertScheduler) Start(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() { s.Evaluate(ctx) })
	if err != nil {
		return fmt.Errorf("register alert job: %w", err)
	}
	s.cron.Start()
	slog.InfoContext(ctx, "Budget alert scheduler started", "spec", spec)
	return nil
}

// Evaluate grades the current month and logs an alert if warranted.
// Mutations land in the server process, so the collection is refreshed from
// the backend before grading.
func (s *AlertScheduler) Evaluate(ctx context.Context) {
	if s.store != nil {
		if err := s.store.Reload(ctx); err != nil {
			slog.WarnContext(ctx, "Reload before budget evaluation failed", "error", err)
		}
	}
	month := s.now().UTC().Format("2006-01")
	status := s.budget.EvaluateMonth(month)
	s.budget.LogAlert(status)
	slog.DebugContext(ctx, "Budget evaluated",
		"month", month,
		"level", status.Level,
		"spent_cents", status.Spent.Cents)
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *AlertScheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
