package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	// ServerAddr is the listen address for the HTTP API.
	ServerAddr string
	// KafkaBrokers enables event publishing when non-empty.
	KafkaBrokers []string
	KafkaTopic   string
	// AuditDatabaseURL enables the Postgres audit archive when set.
	AuditDatabaseURL string
}

// Load reads configuration from a .env file (if present) and the
// process environment. Every setting has a working default, so an
// empty environment yields a runnable in-memory-only server.
func Load() Config {
	// Missing .env is fine; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := Config{
		ServerAddr:       getEnv("SERVER_ADDR", ":8080"),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "ledger.transactions"),
		AuditDatabaseURL: os.Getenv("AUDIT_DATABASE_URL"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
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
