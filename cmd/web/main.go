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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"marketing-captain/internal/config"
	"marketing-captain/internal/httpclient"
	"marketing-captain/internal/llm/providers"
	"marketing-captain/internal/session"
	"marketing-captain/internal/web"
	"marketing-captain/internal/wizard"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		logger.Warn("settings file unreadable, using defaults", "path", cfg.SettingsFile, "err", err)
	}
	holder := providers.NewHolder(cfg.SeedSettings(settings), providers.OptionsFromConfig(cfg, httpClient, logger))

	sessions := session.NewStore(session.Options{
		New: func() *wizard.Session {
			return wizard.New(wizard.Options{
				Client: holder,
				Logger: logger,
				Pacing: wizard.Pacing{Chunk: cfg.RevealChunk, Delay: cfg.RevealDelay},
			})
		},
	})
	defer sessions.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessions.Run(ctx, 10*time.Minute)

	s := web.New(web.Options{
		Sessions:       sessions,
		Providers:      holder,
		SettingsFile:   cfg.SettingsFile,
		ExportDir:      cfg.ExportDir,
		AllowedOrigins: cfg.WebAllowedOrigins,
		AdminToken:     cfg.WebAdminToken,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	}()

	logger.Info("web started", "addr", cfg.WebAddr, "provider", holder.Active())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
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
