package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// HS512 keys shorter than this are rejected at startup.
const minJWTSecretLength = 32

type Config struct {
	HTTPAddr             string
	PostgresDSN          string
	RedisAddr            string
	KafkaBrokers         []string
	KafkaMemberTopic     string
	KafkaRevocationTopic string
	KafkaGroupID         string
	JWTSecret            string
	JWTIssuer            string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRedirectURL    string
	OTLPEndpoint         string
	LogLevel             string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using environment and defaults", "error", err)
	}

	accessTTL, err := duration("ACCESS_TOKEN_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := duration("REFRESH_TOKEN_TTL", 14*24*time.Hour)
	if err != nil {
		return nil, err
	}
	if accessTTL >= refreshTTL {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL (%s) must be shorter than REFRESH_TOKEN_TTL (%s)", accessTTL, refreshTTL)
	}

	secret := os.Getenv("JWT_SECRET")
	if len(secret) < minJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be set to at least %d bytes (got %d)", minJWTSecretLength, len(secret))
	}

	cfg := &Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		PostgresDSN:          getenv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=boo sslmode=disable"),
		RedisAddr:            getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:         []string{getenv("KAFKA_BROKER", "localhost:9092")},
		KafkaMemberTopic:     getenv("KAFKA_MEMBER_TOPIC", "members"),
		KafkaRevocationTopic: getenv("KAFKA_REVOCATION_TOPIC", "token-revocations"),
		KafkaGroupID:         getenv("KAFKA_GROUP_ID", "boo-review-audit"),
		JWTSecret:            secret,
		JWTIssuer:            getenv("JWT_ISSUER", "boo-review"),
		AccessTokenTTL:       accessTTL,
		RefreshTokenTTL:      refreshTTL,
		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:    getenv("GOOGLE_REDIRECT_URL", "http://localhost:8080/accounts/login/"),
		OTLPEndpoint:         getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
	}

	slog.Info("config loaded",
		"http_addr", cfg.HTTPAddr,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"access_token_ttl", cfg.AccessTokenTTL,
		"refresh_token_ttl", cfg.RefreshTokenTTL,
	)
	return cfg, nil
}
