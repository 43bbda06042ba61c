package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	GeminiAPIKey  string
	GeminiBaseURL string
	ImageModel    string
	VideoModel    string
	OutputDir     string

	// Generation pipeline knobs. The defaults match the tuned values the
	// booth ships with; tests override them with millisecond timings.
	ImageConcurrency int
	VideoConcurrency int
	RetryAttempts    int
	RetryBaseDelay   time.Duration
	AttemptTimeout   time.Duration
	VideoPollEvery   time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ImageModel:       getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image-preview"),
		VideoModel:       getEnv("GEMINI_VIDEO_MODEL", "veo-2.0-generate-001"),
		OutputDir:        getEnv("OUTPUT_DIR", "./output"),
		ImageConcurrency: getEnvInt("IMAGE_CONCURRENCY", 2),
		VideoConcurrency: getEnvInt("VIDEO_CONCURRENCY", 1),
		RetryAttempts:    getEnvInt("RETRY_ATTEMPTS", 5),
		RetryBaseDelay:   time.Millisecond * time.Duration(getEnvInt("RETRY_BASE_DELAY_MS", 1233)),
		AttemptTimeout:   time.Second * time.Duration(getEnvInt("ATTEMPT_TIMEOUT_SECONDS", 123)),
		VideoPollEvery:   time.Second * time.Duration(getEnvInt("VIDEO_POLL_SECONDS", 10)),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
