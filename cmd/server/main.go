package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"golang.org/x/sync/errgroup"

	"github.com/algobytes/assembler/internal/auth"
	"github.com/algobytes/assembler/internal/config"
	"github.com/algobytes/assembler/internal/database"
	"github.com/algobytes/assembler/internal/logging"
	"github.com/algobytes/assembler/internal/migrations"
	"github.com/algobytes/assembler/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	printBanner(stdout)

	logger, closeLog := logging.New(stdout, cfg.LogLevel, cfg.LogFile)
	defer closeLog.Close()

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.RunContext(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	store := server.NewSQLiteStore(db)
	if cfg.Seed {
		if err := server.SeedCatalogue(ctx, logger, store, time.Now().In(loc)); err != nil {
			return fmt.Errorf("seeding catalogue: %w", err)
		}
	}

	// --- HTTP Server ---
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	srv := server.New(cfg.HTTPAddr, logger, store, tokens, server.Options{
		Location:           loc,
		StartingCredits:    cfg.StartingCredits,
		UnlockCost:         cfg.UnlockCost,
		DailyRewardCredits: cfg.DailyRewardCredits,
		SubmitRatePerMin:   cfg.SubmitRatePerMin,
		Checks:             server.HealthChecks(db),
		WebDir:             cfg.WebDir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "timezone", loc.String())
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, figure.NewFigure("AlgoBytes", "", true).String())
	fmt.Fprintln(w, "======================================================")
}
