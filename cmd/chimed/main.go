// Command chimed is the alarm and reminder daemon. It owns the schedule,
// rings through the voice satellite, and serves the HTTP API the CLI and
// MCP adapter talk to.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ringdown/chimed/internal/announcer"
	"github.com/ringdown/chimed/internal/bridge"
	"github.com/ringdown/chimed/internal/config"
	"github.com/ringdown/chimed/internal/coordinator"
	"github.com/ringdown/chimed/internal/httpapi"
	"github.com/ringdown/chimed/internal/satellite"
	"github.com/ringdown/chimed/internal/sound"
	"github.com/ringdown/chimed/internal/store"
	"github.com/ringdown/chimed/pkg/logger"
)

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "Path to configuration file")
	httpAddr := flag.String("http", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	time.Local = cfg.Location()

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		log.WithError(err).Fatal("failed to create data directory")
	}

	st, err := store.New(cfg.Store.Path, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer st.Close()

	sat := satellite.NewHTTPClient(cfg.Satellite.BaseURL, cfg.SatellitePollInterval())
	sounds := sound.NewLibrary(cfg.Sounds.Dir)
	ann := announcer.New(sat, log)

	coord := coordinator.New(st, ann, sounds, log,
		coordinator.WithMaxAttempts(cfg.Ring.MaxAttempts))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Telegram.BotToken != "" {
		tg, err := bridge.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, coord, cfg.Ring.SnoozeMinutes, log)
		if err != nil {
			log.WithError(err).Warn("telegram bridge disabled")
		} else {
			coord.SetNotifier(tg)
			go tg.Run(ctx)
		}
	}

	api := httpapi.NewServer(coord, log)
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: api.Handler(),
	}

	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("http api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server failed")
			cancel()
		}
	}()

	if err := coord.Run(ctx); err != nil {
		log.WithError(err).Error("coordinator failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown failed")
	}

	log.Info("chimed stopped")
}
