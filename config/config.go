package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	DatabaseURL    string // whatsmeow device store
	AppDatabaseURL string // session -> device routing

	QRTimeout     time.Duration
	QRFreshness   time.Duration
	PairTimeout   time.Duration
	CreateTimeout time.Duration
	DeviceName    string

	CORSAllowOrigins []string
	RateLimit        int
	RateBurst        int
	RateWindow       time.Duration

	JWTSecret string

	EnableWebsocket bool
	WebhookURL      string
	WebhookSecret   string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "2121"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AppDatabaseURL: getEnv("APP_DATABASE_URL", ""),

		QRTimeout:     time.Duration(getEnvAsInt("QR_TIMEOUT_SECONDS", 25)) * time.Second,
		QRFreshness:   time.Duration(getEnvAsInt("QR_TTL_SECONDS", 20)) * time.Second,
		PairTimeout:   time.Duration(getEnvAsInt("PAIR_TIMEOUT_SECONDS", 60)) * time.Second,
		CreateTimeout: time.Duration(getEnvAsInt("CREATE_TIMEOUT_SECONDS", 30)) * time.Second,
		DeviceName:    getEnv("DEVICE_NAME", "GOWA Pairing"),

		CORSAllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
		RateLimit:        getEnvAsInt("RATE_LIMIT_PER_SECOND", 10),
		RateBurst:        getEnvAsInt("RATE_LIMIT_BURST", 10),
		RateWindow:       time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 3)) * time.Minute,

		JWTSecret: getEnv("JWT_SECRET", ""),

		EnableWebsocket: getEnvAsBool("ENABLE_WEBSOCKET", true),
		WebhookURL:      getEnv("WEBHOOK_URL", ""),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// routing table ikut DB whatsmeow kalau tidak diset terpisah
	if cfg.AppDatabaseURL == "" {
		cfg.AppDatabaseURL = cfg.DatabaseURL
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt returns fallback when the value is missing, malformed or not positive.
func getEnvAsInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
