package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Speech engine connection
	TTSBaseURL string
	TTSAPIKey  string

	// Auth
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Document ingestion
	BatchSize    int
	WordsPerPage int

	// Playback
	ChunkSize          int
	AdvanceSettleDelay time.Duration

	// Lifetimes
	AudioCacheTTL time.Duration
	SessionTTL    time.Duration
	DocumentTTL   time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		TTSBaseURL: envOr("TTS_BASE_URL", "http://localhost:5002"),
		TTSAPIKey:  os.Getenv("TTS_API_KEY"),

		APIKey: os.Getenv("PAGEVOICE_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		BatchSize:    envInt("BATCH_SIZE", 5),
		WordsPerPage: envInt("WORDS_PER_PAGE", 300),

		ChunkSize:          envInt("CHUNK_SIZE", 40),
		AdvanceSettleDelay: envDuration("ADVANCE_SETTLE_DELAY", 2*time.Second),

		AudioCacheTTL: envDuration("AUDIO_CACHE_TTL", 30*time.Minute),
		SessionTTL:    envDuration("SESSION_TTL", 1*time.Hour),
		DocumentTTL:   envDuration("DOCUMENT_TTL", 24*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.WordsPerPage <= 0 {
		cfg.WordsPerPage = 300
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 40
	}
	if cfg.AdvanceSettleDelay <= 0 {
		cfg.AdvanceSettleDelay = 2 * time.Second
	}
	if cfg.AudioCacheTTL <= 0 {
		cfg.AudioCacheTTL = 30 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}
	if cfg.DocumentTTL <= 0 {
		cfg.DocumentTTL = 24 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.TTSBaseURL == "" {
		return fmt.Errorf("TTS_BASE_URL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("PAGEVOICE_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
