package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketing-captain/internal/burst"
	"marketing-captain/internal/config"
	"marketing-captain/internal/handlers"
	"marketing-captain/internal/httpclient"
	"marketing-captain/internal/llm/providers"
	"marketing-captain/internal/session"
	"marketing-captain/internal/telegram"
	"marketing-captain/internal/wizard"
)

// Telegram rate-limits edits, so the bot reveals in larger steps than the
// web view.
const (
	botRevealChunk = 120
	botRevealDelay = 40 * time.Millisecond
	botEditEvery   = 1500 * time.Millisecond
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		panic(err)
	}

	logger := newLogger(cfg)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: httpClient,
		Logger:     logger,
		Debug:      cfg.Debug,
	})
	if err != nil {
		logger.Error("telegram init failed", "err", err)
		os.Exit(1)
	}

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		logger.Warn("settings file unreadable, using defaults", "path", cfg.SettingsFile, "err", err)
	}
	holder := providers.NewHolder(cfg.SeedSettings(settings), providers.OptionsFromConfig(cfg, httpClient, logger))

	pacing := wizard.Pacing{Chunk: cfg.RevealChunk, Delay: cfg.RevealDelay}
	if pacing.Chunk <= 0 {
		pacing.Chunk = botRevealChunk
	}
	if pacing.Delay <= 0 {
		pacing.Delay = botRevealDelay
	}

	sessions := session.NewStore(session.Options{
		New: func() *wizard.Session {
			return wizard.New(wizard.Options{
				Client: holder,
				Logger: logger,
				Pacing: pacing,
			})
		},
	})
	defer sessions.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessions.Run(ctx, 10*time.Minute)

	handler := handlers.New(handlers.Options{
		Telegram:     tg,
		Sessions:     sessions,
		Providers:    holder,
		SettingsFile: cfg.SettingsFile,
		Logger:       logger,
		Admins:       cfg.AdminUserIDs,
		Context:      ctx,
		EditInterval: botEditEvery,
	})

	sem := make(chan struct{}, cfg.MaxConcurrent)
	onBurstFlush := func(m burst.Message) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-sem }()

			reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()

			handler.HandleBurst(reqCtx, m)
		}()
	}

	aggregator := burst.New(burst.Options{
		Debounce: cfg.BurstDebounce,
		OnFlush:  onBurstFlush,
	})
	handler.SetBurstAggregator(aggregator)

	logger.Info("bot started", "username", tg.Username(), "provider", holder.Active())

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("updates channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			go func(update telegram.Update) {
				defer func() { <-sem }()

				reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()

				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update failed", "err", err)
				}
			}(update)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
