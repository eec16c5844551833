package main

import (
	"os"
	"strconv"
	"time"

	"github.com/openpitch/scoreroom/go/internal/events"
)

// Config holds the server's runtime settings, read from the environment.
type Config struct {
	Port          string
	HostKey       string
	CriteriaPath  string // empty means the built-in table
	MemoryStore   bool   // run without Postgres
	NATSEnabled   bool
	NATSURL       string
	Retention     time.Duration
	PruneInterval time.Duration
}

func loadConfig() Config {
	return Config{
		Port:          getEnv("PORT", "8080"),
		HostKey:       getEnv("ROOM_HOST_KEY", ""),
		CriteriaPath:  getEnv("CRITERIA_PATH", ""),
		MemoryStore:   getEnvAsBool("MEMORY_STORE", false),
		NATSEnabled:   getEnvAsBool("NATS_ENABLED", false),
		NATSURL:       getEnv("NATS_URL", events.DefaultConfig().URL),
		Retention:     getEnvAsDuration("ROOM_RETENTION", 24*time.Hour),
		PruneInterval: getEnvAsDuration("ROOM_PRUNE_INTERVAL", time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
