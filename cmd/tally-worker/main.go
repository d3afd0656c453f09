package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"tally/internal/backend"
	"tally/internal/cli"
	"tally/internal/core"
	"tally/internal/ledger"
	applog "tally/internal/log"
	"tally/internal/schedule"
)

// tally-worker materializes due recurring transactions on a cron
// schedule. It shares the SQLite database with the server and announces
// every created transaction over AMQP so the server drops its cached
// read models.
func main() {
	cli.LoadEnv()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.MustConfig(logger)

	logger.Info("Starting tally-worker")

	if cfg.DataBackend != "sqlite" {
		logger.Error("tally-worker requires the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	be, err := backend.Open(cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", applog.FieldError, err)
		os.Exit(1)
	}
	defer be.Close()

	var publisher ledger.Publisher
	if be.AMQP != nil {
		publisher = be.AMQP
	}
	scheduler := schedule.NewScheduler(be.Stores.Recurrences,
		ledger.NewService(be.Stores.Transactions, publisher))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scan := func() {
		today := core.Today()
		users, err := be.Repo.RecurrenceUserIDs(ctx)
		if err != nil {
			logger.Error("Failed to list recurrence users", applog.FieldError, err)
			return
		}
		total := 0
		for _, user := range users {
			count, err := scheduler.RunDueScan(ctx, user, today)
			total += count
			if err != nil {
				logger.Error("Due scan failed", applog.FieldUserID, user, applog.FieldError, err)
			}
		}
		logger.Info("Due scan complete", "users", len(users), "transactions_created", total)
	}

	logger.Info("Due scan configured", "schedule", cfg.DueScanSchedule, "sqlite_db", cfg.SQLiteDBPath)

	// Catch up on anything that came due while the worker was down.
	scan()

	c := cron.New()
	if _, err := c.AddFunc(cfg.DueScanSchedule, scan); err != nil {
		logger.Error("Invalid due scan schedule", applog.FieldError, err, "schedule", cfg.DueScanSchedule)
		os.Exit(1)
	}
	c.Start()

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	<-c.Stop().Done()
	logger.Info("Worker stopped gracefully")
}
