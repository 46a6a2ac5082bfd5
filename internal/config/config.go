package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Claude answer generation
	AnthropicAPIKey string
	AnthropicModel  string

	// Upload limits and raw-bytes storage
	MaxUploadBytes int64
	UploadDir      string

	// Processing knobs
	SegmentSentences int
	SummarySentences int
	SnippetRadius    int
	ContextBudget    int
	HistoryTurns     int

	// Per-stage deadline; 0 disables any timeout on a stuck stage.
	StageTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		UploadDir:      envOr("UPLOAD_DIR", "uploads"),

		SegmentSentences: envInt("SEGMENT_SENTENCES", 4),
		SummarySentences: envInt("SUMMARY_SENTENCES", 5),
		SnippetRadius:    envInt("SNIPPET_RADIUS", 160),
		ContextBudget:    envInt("CONTEXT_BUDGET", 2000),
		HistoryTurns:     envInt("HISTORY_TURNS", 6),

		StageTimeout: envDuration("STAGE_TIMEOUT", 0),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.SegmentSentences <= 0 {
		cfg.SegmentSentences = 4
	}
	if cfg.SummarySentences <= 0 {
		cfg.SummarySentences = 5
	}
	if cfg.SnippetRadius <= 0 {
		cfg.SnippetRadius = 160
	}
	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = 2000
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 6
	}

	return cfg
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
