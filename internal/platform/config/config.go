package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr           string
	JWTSigningKey  string
	RequestTimeout time.Duration

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// PostgresConfig selects the durable store. Empty DSN means in-memory stores.
type PostgresConfig struct {
	DSN string
}

// RedisConfig configures the optional compliance-check cache. Empty URL means
// no cache.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// KafkaConfig configures the audit mirror. Empty Brokers means the mirror is
// not started.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables, loading .env
// first when present.
func FromEnv() Server {
	_ = godotenv.Load()

	addr := os.Getenv("TUTELA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	timeout := 5 * time.Second
	if v := os.Getenv("TUTELA_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	cacheTTL := 30 * time.Second
	if v := os.Getenv("TUTELA_CHECK_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cacheTTL = d
		}
	}

	var brokers []string
	if v := os.Getenv("TUTELA_KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}
	topic := os.Getenv("TUTELA_AUDIT_TOPIC")
	if topic == "" {
		topic = "tutela.audit.compliance"
	}

	return Server{
		Addr:           addr,
		JWTSigningKey:  jwtSigningKey,
		RequestTimeout: timeout,
		Postgres:       PostgresConfig{DSN: os.Getenv("TUTELA_POSTGRES_DSN")},
		Redis: RedisConfig{
			URL:      os.Getenv("TUTELA_REDIS_URL"),
			CacheTTL: cacheTTL,
		},
		Kafka: KafkaConfig{Brokers: brokers, Topic: topic},
	}
}
