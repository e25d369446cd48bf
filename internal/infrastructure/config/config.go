package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Addr serves the ingest bridge, health and metrics endpoints.
	Addr     string
	LogLevel string
	// OutputDir is the root under which per-session export directories are
	// created.
	OutputDir string
	// PollIntervalMs drives the fallback buffer drain cadence.
	PollIntervalMs int
	// BufferCap bounds the polled delivery queue.
	BufferCap int
	// ArchiveDB enables the SQLite archive when non-empty.
	ArchiveDB string
}

func FromEnv() Config {
	return Config{
		Addr:           getEnv("ADDR", ":9280"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		OutputDir:      getEnv("OUTPUT_DIR", "logs"),
		PollIntervalMs: getEnvInt("POLL_INTERVAL_MS", 500),
		BufferCap:      getEnvInt("BUFFER_CAP", 1024),
		ArchiveDB:      getEnv("ARCHIVE_DB", ""),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
