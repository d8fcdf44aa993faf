package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/matchhedge/internal/api"
	"github.com/rewired-gh/matchhedge/internal/config"
	"github.com/rewired-gh/matchhedge/internal/engine"
	"github.com/rewired-gh/matchhedge/internal/logger"
	"github.com/rewired-gh/matchhedge/internal/telegram"
)

var configPath = flag.String("config", "", "Path to configuration file (optional)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if *configPath != "" {
		logger.Info("Configuration loaded from %s", *configPath)
	} else {
		logger.Info("Configuration loaded from defaults and environment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notifier api.Notifier
	if cfg.Telegram.Enabled {
		telegramClient, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelay)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
		telegramClient.ListenForCommands(ctx)
		notifier = telegramClient
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	sessions := api.NewRegistry(engine.Options{
		Bankroll:     cfg.Engine.DefaultBankroll,
		GridMaxGoals: cfg.Engine.GridMaxGoals,
	}, cfg.Server.MaxSessions, cfg.Server.SessionTTL)
	defer sessions.CloseAll()
	go sessions.Run(ctx)

	handler := api.NewHandler(sessions, notifier, cfg.Engine.RecentOperations)
	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewRouter(handler, api.RouterConfig{
			RequestTimeout: cfg.Server.RequestTimeout,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}),
		ReadHeaderTimeout: cfg.Server.RequestTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server on %s (default bankroll: %.2f, max sessions: %d)",
			cfg.Server.Addr, cfg.Engine.DefaultBankroll, cfg.Server.MaxSessions)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, cleaning up...")
	case err, ok := <-serverErr:
		if ok {
			logger.Error("Server error: %v", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}

	logger.Info("Service stopped")
}
