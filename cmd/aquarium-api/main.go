package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annabel-goldman/aquarium/internal/api"
	"github.com/annabel-goldman/aquarium/internal/auth"
	"github.com/annabel-goldman/aquarium/internal/config"
	"github.com/annabel-goldman/aquarium/internal/game"
	"github.com/annabel-goldman/aquarium/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

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
		Migrate:       true,
	}, logger)
	if err != nil {
		logger.Error("store connect failed", "err", err, "driver", cfg.StoreDriver)
		os.Exit(1)
	}
	defer closeStore()

	secret := []byte(cfg.JWTSecret)
	gameSvc := game.NewService(accounts, logger, game.Options{
		Economy: econ,
		Hasher:  auth.Bcrypt{},
		Tickets: auth.NewTickets(secret, cfg.TicketTTL),
	})

	server := api.New(cfg, logger, auth.NewSessions(secret, cfg.SessionTTL), gameSvc)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("aquarium api listening", "addr", cfg.Addr, "store", cfg.StoreDriver)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
