package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/annabel-goldman/aquarium/internal/config"
	"github.com/annabel-goldman/aquarium/internal/game"
	"github.com/annabel-goldman/aquarium/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	cfg, err := config.LoadMigrateFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	dryRun := flag.Bool("dry-run", cfg.DryRun, "report legacy accounts without rewriting them")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	econ := game.DefaultEconomy()
	if cfg.EconomyFile != "" {
		econ, err = game.LoadEconomyFile(cfg.EconomyFile)
		if err != nil {
			logger.Error("load economy failed", "err", err, "path", cfg.EconomyFile)
			os.Exit(1)
		}
	}

	accounts, closeStore, err := store.Open(ctx, store.Config{
		Driver:        cfg.StoreDriver,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		Migrate:       !*dryRun,
	}, logger)
	if err != nil {
		logger.Error("store connect failed", "err", err, "driver", cfg.StoreDriver)
		os.Exit(1)
	}
	defer closeStore()

	svc := game.NewService(accounts, logger, game.Options{Economy: econ})
	report, err := svc.MigrateAll(ctx, *dryRun)
	logger.Info("account migration finished",
		"scanned", report.Scanned,
		"upgraded", report.Upgraded,
		"failed", report.Failed,
		"dry_run", *dryRun)
	if err != nil {
		logger.Error("account migration aborted", "err", err)
		os.Exit(1)
	}
	if report.Failed > 0 {
		os.Exit(2)
	}
}
