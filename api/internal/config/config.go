package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string

	// История решений (Postgres); пусто: хранение выключено.
	DatabaseURL string

	// Экспорт в PDF через headless Chrome. ChromeURL: DevTools удалённого браузера,
	// пусто: запускаем локальный.
	ExportEnabled bool
	ChromeURL     string
	ExportTimeout time.Duration

	TelegramBotToken string
	WebhookURL       string

	OTelStdout bool
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: bad bool %s=%q, using %v", k, v, def)
		return def
	}
	return b
}

func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("config: bad duration %s=%q, using %v", k, v, def)
		return def
	}
	return d
}

// Load читает окружение (и .env, если он есть рядом).
// Отсутствующий GEMINI_API_KEY не фатален: решение упадёт в момент вызова.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env: %v", err)
	}

	cfg := &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		ExportEnabled: getBool("EXPORT_ENABLED", true),
		ChromeURL:     getEnv("CHROME_URL", ""),
		ExportTimeout: getDuration("EXPORT_TIMEOUT", 45*time.Second),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		OTelStdout: getBool("OTEL_STDOUT", false),
	}
	if cfg.GeminiAPIKey == "" {
		log.Printf("config: GEMINI_API_KEY is empty; solve requests will fail")
	}
	return cfg
}
