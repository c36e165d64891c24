package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/suspectuso/ton-mintgate/internal/api"
	"github.com/suspectuso/ton-mintgate/internal/auth"
	"github.com/suspectuso/ton-mintgate/internal/config"
	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/issuer"
	"github.com/suspectuso/ton-mintgate/internal/journal"
	"github.com/suspectuso/ton-mintgate/internal/minter"
	"github.com/suspectuso/ton-mintgate/internal/notifier"
	"github.com/suspectuso/ton-mintgate/internal/storage"
	"github.com/suspectuso/ton-mintgate/internal/telegram"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load config
	cfg := config.Load()

	// Setup logger
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(log)
	if envErr != nil {
		log.Debug("no .env file found")
	}

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	opts, err := serviceOptions(cfg)
	if err != nil {
		log.Error("parse platform admins", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Error("init storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "path", cfg.DBPath)

	receipts, err := journal.Open(cfg.JournalPath)
	if err != nil {
		log.Error("open journal", "error", err)
		os.Exit(1)
	}
	defer receipts.Close()
	log.Info("journal opened", "path", cfg.JournalPath)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize issuer
	var iss minter.Issuer
	if cfg.IssuerURL != "" {
		client := issuer.NewClient(cfg.IssuerURL, cfg.IssuerAPIKey)
		if err := client.Ping(ctx); err != nil {
			log.Warn("issuer not reachable yet", "base_url", cfg.IssuerURL, "error", err)
		}
		iss = client
		log.Info("remote issuer initialized", "base_url", cfg.IssuerURL)
	} else {
		iss = issuer.NewLocal()
		log.Info("issuing locally")
	}

	svc := minter.New(store, iss, receipts, nil, opts, log)

	// Initialize telegram bot
	var bot *telegram.Bot
	if cfg.BotToken != "" {
		bot, err = telegram.New(cfg, svc, log)
		if err != nil {
			log.Error("init telegram bot", "error", err)
			os.Exit(1)
		}
		log.Info("telegram bot initialized", "admin_chats", len(cfg.AdminChatIDs))

		notify := notifier.New(cfg, bot, log)
		svc.SetNotifier(notify)

		watcher := notifier.NewPhaseWatcher(store, notify, log)
		go watcher.Start(ctx, time.Duration(cfg.PhaseWatchSeconds)*time.Second)
	} else {
		log.Info("telegram disabled: BOT_TOKEN not set")
	}

	// Start API server
	server := api.NewServer(svc, auth.NewVerifier(cfg.JWTSecret), log)
	go func() {
		if err := server.Start(ctx, cfg.HTTPPort); err != nil && err != http.ErrServerClosed {
			log.Error("api server", "error", err)
			cancel()
		}
	}()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	if bot != nil {
		log.Info("starting bot polling...")
		bot.Start(ctx)
		return
	}
	<-ctx.Done()
}

func serviceOptions(cfg *config.Config) (minter.Options, error) {
	primary, err := controls.ParseAddress(cfg.PrimaryAdmin)
	if err != nil {
		return minter.Options{}, err
	}
	secondary, err := controls.ParseAddress(cfg.SecondaryAdmin)
	if err != nil {
		return minter.Options{}, err
	}
	return minter.Options{
		PrimaryAdmin:      primary,
		SecondaryAdmin:    secondary,
		DefaultPriceToken: cfg.DefaultPriceToken,
	}, nil
}
