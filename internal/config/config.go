package config

import (
	"fmt"
	"strconv"
	"time"

	"os"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Location    *time.Location

	SchoolName string
	Language   string // язык шаблонов по умолчанию

	// Шлюз сообщений
	GatewayDriver    string // http|telegram
	GatewayBaseURL   string
	GatewayToken     string
	GatewaySecret    string
	GatewayDeviceID  string
	TelegramBotToken string
	WebhookToken     string

	// Ретраи и свипы
	MaxRetries      int
	RetrySweepEvery time.Duration
	ProbeEvery      time.Duration
	RetentionKeep   time.Duration

	// Почта (send_email)
	SendGridKey   string
	EmailFrom     string
	EmailFromName string
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Europe/Moscow")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	maxRetries, err := parseInt(getenv("MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("MAX_RETRIES: %w", err)
	}
	retentionDays, err := parseInt(getenv("LOG_RETENTION_DAYS", "90"))
	if err != nil {
		return nil, fmt.Errorf("LOG_RETENTION_DAYS: %w", err)
	}

	cfg := &Config{
		DatabaseURL: mustEnv("DATABASE_URL"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Location:    loc,

		SchoolName: getenv("SCHOOL_NAME", "Школа"),
		Language:   getenv("TEMPLATE_LANG", "ru"),

		GatewayDriver:    getenv("GATEWAY_DRIVER", "http"),
		GatewayBaseURL:   os.Getenv("GATEWAY_BASE_URL"),
		GatewayToken:     os.Getenv("GATEWAY_TOKEN"),
		GatewaySecret:    os.Getenv("GATEWAY_SECRET"),
		GatewayDeviceID:  getenv("GATEWAY_DEVICE_ID", "default"),
		TelegramBotToken: os.Getenv("BOT_TOKEN"),
		WebhookToken:     mustEnv("WEBHOOK_TOKEN"),

		MaxRetries:      maxRetries,
		RetrySweepEvery: getDuration("RETRY_SWEEP_EVERY", time.Minute),
		ProbeEvery:      getDuration("PROBE_EVERY", 5*time.Minute),
		RetentionKeep:   time.Duration(retentionDays) * 24 * time.Hour,

		SendGridKey:   os.Getenv("SENDGRID_KEY"),
		EmailFrom:     getenv("EMAIL_FROM", "noreply@school.local"),
		EmailFromName: getenv("EMAIL_FROM_NAME", "School Notify"),
	}

	switch cfg.GatewayDriver {
	case "http":
		if cfg.GatewayBaseURL == "" {
			return nil, fmt.Errorf("GATEWAY_BASE_URL обязателен для драйвера http")
		}
	case "telegram":
		if cfg.TelegramBotToken == "" {
			return nil, fmt.Errorf("BOT_TOKEN обязателен для драйвера telegram")
		}
	default:
		return nil, fmt.Errorf("неизвестный GATEWAY_DRIVER %q", cfg.GatewayDriver)
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}

func getDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
