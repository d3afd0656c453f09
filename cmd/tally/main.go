package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/backend"
	"tally/internal/cli"
	apphttp "tally/internal/http"
	"tally/internal/ledger"
	applog "tally/internal/log"
)

func main() {
	cli.LoadEnv()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.MustConfig(logger)

	be, err := backend.Open(cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", applog.FieldError, err)
		os.Exit(1)
	}
	defer be.Close()

	// AMQP is optional. With it, local writes are announced to other
	// processes and their writes invalidate our cached read models.
	var publisher ledger.Publisher
	if be.AMQP != nil {
		publisher = be.AMQP
	}
	ledgerService := ledger.NewService(be.Stores.Transactions, publisher)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:                ":" + cfg.Port,
		CacheSize:           cfg.CacheSize,
		CacheTTL:            cfg.CacheTTL,
		UpcomingHorizonDays: cfg.UpcomingHorizonDays,
	}, be.Stores, ledgerService, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting tally server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if be.AMQP != nil {
		g.Go(func() error {
			err := be.AMQP.ConsumeLedgerEvents(gctx, func(msg *amqp.LedgerEventMessage) error {
				logger.Debug("Ledger event received",
					applog.FieldUserID, msg.UserID, "action", msg.Action)
				srv.InvalidateUser(msg.UserID)
				return nil
			})
			if err != nil && gctx.Err() == nil {
				logger.Warn("Ledger event consumer stopped", applog.FieldError, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
