package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            int
	NatsURL         string
	NatsToken       string
	DatabaseURL     string
	RedisAddr       string
	LogLevel        string
	LanguageAPIKey  string
	LanguageAPIURL  string
	LanguageTimeout time.Duration
	FitnessAPIURL   string
	SlackBotToken   string
	SlackChannel    string
	JWTSecret       string
}

func Load() Config {
	return Config{
		Port:            envInt("WELLCHECK_PORT", 8760),
		NatsURL:         envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:       envStr("NATS_TOKEN", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		RedisAddr:       envStr("REDIS_ADDR", "localhost:6379"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		LanguageAPIKey:  envStr("LANGUAGE_API_KEY", ""),
		LanguageAPIURL:  envStr("LANGUAGE_API_URL", "https://language.googleapis.com/v1"),
		LanguageTimeout: envDuration("LANGUAGE_TIMEOUT", 10*time.Second),
		FitnessAPIURL:   envStr("FITNESS_API_URL", "https://www.googleapis.com/fitness/v1"),
		SlackBotToken:   envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:    envStr("SLACK_ALERT_CHANNEL", ""),
		JWTSecret:       envStr("WELLCHECK_JWT_SECRET", ""),
	}
}

func envStr(key, fallback string) string {
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

// envDuration accepts Go duration strings ("15s", "2m").
func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
