// Package config centralizes server and world settings. Values come
// from environment variables with safe defaults; no other part of the
// codebase reads the environment directly.
package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int           // API listen port
	SnapshotEvery time.Duration // WebSocket world broadcast cadence
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:          3000,
		SnapshotEvery: 250 * time.Millisecond,
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if ms := getEnvInt("SNAPSHOT_INTERVAL_MS", 0); ms > 0 {
		cfg.SnapshotEvery = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

// WorldConfig holds the settings for the hosted world.
type WorldConfig struct {
	ManagerID    int    // identifier of this world's manager
	TickRate     int    // tick broadcasts per second, 0 disables the loop
	BootstrapLua string // path to a Lua script run at startup, empty skips
	EventLogPath string // lifecycle log file, empty disables
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		ManagerID:    1,
		TickRate:     4,
		EventLogPath: "world.jsonl",
	}
}

// WorldFromEnv returns world configuration with environment overrides.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if id := getEnvInt("MANAGER_ID", -1); id >= 0 {
		cfg.ManagerID = id
	}
	if tr := getEnvInt("TICK_RATE", -1); tr >= 0 {
		cfg.TickRate = tr
	}
	if path := os.Getenv("BOOTSTRAP_LUA"); path != "" {
		cfg.BootstrapLua = path
	}
	if path, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = path
	}
	return cfg
}

// RegistryConfig holds the player-registry collaborator settings.
type RegistryConfig struct {
	URL     string        // base URL of the registry service, empty selects in-memory
	Timeout time.Duration // per-call timeout
}

// DefaultRegistry returns the default registry configuration.
func DefaultRegistry() RegistryConfig {
	return RegistryConfig{
		Timeout: 10 * time.Second,
	}
}

// RegistryFromEnv returns registry configuration with environment
// overrides.
func RegistryFromEnv() RegistryConfig {
	cfg := DefaultRegistry()

	if url := os.Getenv("REGISTRY_URL"); url != "" {
		cfg.URL = url
	}
	if ms := getEnvInt("REGISTRY_TIMEOUT_MS", 0); ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server   ServerConfig
	World    WorldConfig
	Registry RegistryConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server:   ServerFromEnv(),
		World:    WorldFromEnv(),
		Registry: RegistryFromEnv(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
