package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"findash/internal/amqp"
	"findash/internal/cli"
	applog "findash/internal/log"
	"findash/internal/services"
	"findash/internal/sheets"
	gsheet "findash/internal/sheets/google"
	mem "findash/internal/sheets/memory"
	"findash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(applog.ComponentWorker)
	logger.Info("Starting findash-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup := cli.OpenStore(ctx, logger, cfg)
	defer func() {
		_ = st.Close()
		if cleanup != nil {
			_ = cleanup()
		}
	}()

	// The worker exists to consume change events; without a broker there is
	// nothing to react to.
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	var appender sheets.TransactionAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		appender = mem.New()
		logger.Info("Google Sheets disabled, mirroring to memory sink")
	}

	mirror := worker.NewMirrorWorker(appender)
	alerts := worker.NewAlertScheduler(services.NewBudgetService(st), st)
	if err := alerts.Start(ctx, cfg.AlertCronSpec); err != nil {
		logger.Error("Failed to start alert scheduler", "error", err)
		os.Exit(1)
	}
	defer alerts.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeTransactionEvents(gctx, func(event *amqp.TransactionEvent) error {
			return mirror.HandleEvent(gctx, event)
		})
	})

	// One immediate evaluation so a long cron interval doesn't delay the
	// first budget check past a restart.
	alerts.Evaluate(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-gctx.Done():
		logger.Info("Worker context cancelled")
	}

	cancel()

	waitCh := make(chan error, 1)
	go func() { waitCh <- g.Wait() }()

	select {
	case err := <-waitCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker stopped with error", "error", err)
		} else {
			logger.Info("Worker shutdown complete")
		}
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
