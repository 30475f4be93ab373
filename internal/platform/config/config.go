package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything main needs to wire the server. Values come from
// the environment so deployment stays twelve-factor; a local .env file is
// honored when present.
type Config struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string

	DatabaseURL    string
	MigrationsPath string

	Redis RedisConfig

	Kafka KafkaConfig

	ShutdownTimeout time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis
// and the incentive store falls back to Postgres (or memory).
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds event stream settings. Empty brokers disable publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := Config{
		Addr:            getEnv("CAMPUSPULSE_ADDR", ":8080"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:       getEnv("JWT_ISSUER", "campuspulse"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "migrations"),
		ShutdownTimeout: 10 * time.Second,
	}

	cfg.Redis = RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka = KafkaConfig{
			Brokers: splitCSV(brokers),
			Topic:   getEnv("KAFKA_PARTICIPATION_TOPIC", "campuspulse.participation"),
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
