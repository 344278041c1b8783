package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jw6ventures/calbot/internal/bot"
	"github.com/jw6ventures/calbot/internal/config"
	"github.com/jw6ventures/calbot/internal/http"
	"github.com/jw6ventures/calbot/internal/http/ratelimit"
	"github.com/jw6ventures/calbot/internal/keyboard"
	"github.com/jw6ventures/calbot/internal/store"
)

const pollingWorkers = 4

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	setupLogging(cfg)
	logrus.Info("Starting calbot...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stor := store.Disabled()
	if cfg.JournalEnabled() {
		pool, err := pgxpool.New(ctx, cfg.DB.DSN)
		if err != nil {
			logrus.Fatalf("failed to create db pool: %v", err)
		}
		defer pool.Close()

		if err := store.ApplyMigrations(ctx, pool); err != nil {
			logrus.Fatalf("failed to apply migrations: %v", err)
		}
		stor = store.New(pool, []byte(cfg.Journal.Key))
		logrus.Info("interaction journal enabled")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logrus.Fatalf("failed to connect to the bot api: %v", err)
	}
	api.Debug = cfg.Telegram.Debug
	log := logrus.WithField("bot", api.Self.UserName)

	if err := bot.RegisterCommands(api); err != nil {
		log.WithError(err).Warn("failed to register commands")
	}

	pressLimiter := ratelimit.New(rate.Limit(cfg.Callbacks.Rate), cfg.Callbacks.Burst, 10*time.Minute, nil)
	defer pressLimiter.Close()

	opts := []bot.Option{bot.WithLimiter(pressLimiter), bot.WithLogger(log)}
	if stor.Enabled() {
		opts = append(opts, bot.WithJournal(stor.Journal, stor.ChatKey))
	}
	b := bot.New(api, keyboard.NewRenderer(time.Now), opts...)

	var updates http.Handler
	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		if err := bot.UseWebhook(api, cfg.WebhookURL()); err != nil {
			log.Fatalf("failed to register webhook: %v", err)
		}
		updates = b
		log.Info("receiving updates via webhook")
	default:
		if err := bot.UsePolling(api); err != nil {
			log.Fatalf("failed to clear webhook: %v", err)
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		ch := api.GetUpdatesChan(u)
		go b.Run(ctx, ch, pollingWorkers)
		defer api.StopReceivingUpdates()
		log.Info("receiving updates via long polling")
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      httpserver.NewRouter(cfg, stor, updates),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if err := tgbotapi.SetLogger(logrus.StandardLogger()); err != nil {
		logrus.WithError(err).Warn("failed to route bot api logs")
	}
}
