package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "profast/pkg/platform/strings"
)

// Server captures process-level configuration. Empty DatabaseURL selects the
// in-memory stores, empty Redis.URL disables the role cache, and empty
// Kafka.Brokers disables the outbox publisher.
type Server struct {
	Addr           string
	LogLevel       string
	RequestTimeout time.Duration
	Database       DatabaseConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Auth           AuthConfig
	Stripe         StripeConfig
	Outbox         OutboxConfig
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RoleCacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type AuthConfig struct {
	SigningKey string
	Issuer     string
	// AdminToken is the operator credential for admin routes; empty disables it.
	AdminToken string
}

type StripeConfig struct {
	SecretKey string
	Currency  string
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           envString("PROFAST_ADDR", ":"+envString("PORT", "3000")),
		LogLevel:       envString("LOG_LEVEL", "info"),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 30*time.Second),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			RoleCacheTTL: envDuration("ROLE_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_TOPIC", "profast.events"),
		},
		Auth: AuthConfig{
			// Development default; override in production.
			SigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     envString("JWT_ISSUER", "profast"),
			AdminToken: os.Getenv("PROFAST_ADMIN_TOKEN"),
		},
		Stripe: StripeConfig{
			SecretKey: os.Getenv("STRIPE_SECRET_KEY"),
			Currency:  envString("STRIPE_CURRENCY", "usd"),
		},
		Outbox: OutboxConfig{
			PollInterval: envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize:    envInt("OUTBOX_BATCH_SIZE", 100),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	return pstrings.DedupeAndTrim(strings.Split(v, ","))
}
