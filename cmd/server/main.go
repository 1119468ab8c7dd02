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
	"github.com/pagevoice/pagevoice/internal/api"
	"github.com/pagevoice/pagevoice/internal/audiocache"
	"github.com/pagevoice/pagevoice/internal/config"
	"github.com/pagevoice/pagevoice/internal/document"
	"github.com/pagevoice/pagevoice/internal/playback"
	"github.com/pagevoice/pagevoice/internal/tts"
)

func main() {
	// A missing .env is fine; env vars may come from the environment.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the speech engine client and fetch the voice catalog.
	// The catalog seeds session defaults, so startup fails without it.
	ttsClient := tts.NewClient(cfg.TTSBaseURL, cfg.TTSAPIKey)
	voices, err := fetchVoices(ctx, ttsClient, log)
	if err != nil {
		log.Error("failed to fetch voice catalog", "error", err)
		os.Exit(1)
	}
	log.Info("voice catalog loaded", "voices", len(voices))

	// Initialize stores.
	docs := document.NewStore(cfg.DocumentTTL)
	sessions := playback.NewRegistry(cfg.SessionTTL)
	cache := audiocache.New(cfg.AudioCacheTTL)

	// Periodic TTL sweep across all stores.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				docs.Cleanup()
				sessions.Cleanup()
				cache.Cleanup()
			}
		}
	}()

	// Initialize HTTP server.
	srv := api.NewServer(docs, sessions, cache, ttsClient, voices, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		ttsClient.Close()
		cancel()
	}()

	log.Info("starting pagevoice", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// fetchVoices retrieves the voice catalog, retrying transient failures
// with backoff.
func fetchVoices(ctx context.Context, client *tts.Client, log *slog.Logger) ([]tts.Voice, error) {
	var lastErr error
	for attempt := 0; attempt <= tts.MaxRetries; attempt++ {
		voices, err := client.Voices(ctx)
		if err == nil {
			return voices, nil
		}
		lastErr = err
		if !tts.IsRetryable(err) || attempt == tts.MaxRetries {
			break
		}
		wait := tts.Backoff(attempt)
		log.Warn("voice catalog fetch failed, retrying", "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}
