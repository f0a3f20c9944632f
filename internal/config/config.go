package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// GeminiAPIKey is a startup snapshot only; the Gemini client reads the
	// key again on every request.
	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiAPIVersion string
	AnalysisModel    string
	ImageModel       string

	WebAddr        string
	MaxUploadBytes int64

	LogLevel string
	Debug    bool

	PreferIPv4     bool
	RequestTimeout time.Duration
	HTTPTimeout    time.Duration

	TelegramToken      string
	TelegramOwnerID    int64
	MediaGroupDebounce time.Duration
	MaxConcurrent      int
}

// Load reads .env (when present) and the environment. It never fails on a
// missing Gemini key.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:      strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		GeminiAPIVersion:   strings.TrimSpace(getEnv("GEMINI_API_VERSION", "v1beta")),
		AnalysisModel:      getEnv("GEMINI_ANALYSIS_MODEL", "gemini-3-flash-preview"),
		ImageModel:         getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		WebAddr:            getEnv("WEB_ADDR", ":8080"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 25)) << 20,
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Debug:              getEnvBool("DEBUG", false),
		PreferIPv4:         getEnvBool("PREFER_IPV4", true),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		HTTPTimeout:        time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		TelegramToken:      strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		MediaGroupDebounce: time.Duration(getEnvInt("MEDIA_GROUP_DEBOUNCE_MS", 1200)) * time.Millisecond,
		MaxConcurrent:      getEnvInt("MAX_CONCURRENT", 4),
	}

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_OWNER_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, errors.New("TELEGRAM_OWNER_ID must be a numeric chat id")
		}
		cfg.TelegramOwnerID = id
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.MediaGroupDebounce <= 0 {
		cfg.MediaGroupDebounce = 1200 * time.Millisecond
	}

	return cfg, nil
}

// LoadBot is Load plus the settings the Telegram front-end cannot run
// without.
func LoadBot() (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}

	switch {
	case cfg.TelegramToken == "":
		return Config{}, errors.New("TELEGRAM_BOT_TOKEN is required")
	case cfg.TelegramOwnerID == 0:
		return Config{}, errors.New("TELEGRAM_OWNER_ID is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
