// Package config reads service settings from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the settings of the leaguebracket service
type Config struct {
	DBPath         string
	Addr           string
	LogLevel       logrus.Level
	RedisURL       string // empty uses in-process locks
	LockTTL        time.Duration
	CandidateDates int
}

// Load reads a .env file when one is present, then the environment
func Load() (Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv
func FromEnv(getenv func(string) string) (Config, error) {
	c := Config{
		DBPath:         "leaguebracket.db",
		Addr:           ":8080",
		LogLevel:       logrus.InfoLevel,
		LockTTL:        30 * time.Second,
		CandidateDates: 7,
	}
	if v := strings.TrimSpace(getenv("DB_PATH")); v != "" {
		c.DBPath = v
	}
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		c.Addr = ":" + v
	}
	if v := strings.TrimSpace(getenv("LISTEN_ADDR")); v != "" {
		c.Addr = v
	}
	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return c, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		c.LogLevel = level
	}
	c.RedisURL = strings.TrimSpace(getenv("REDIS_URL"))
	if v := strings.TrimSpace(getenv("LOCK_TTL")); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return c, fmt.Errorf("invalid LOCK_TTL: %w", err)
		}
		c.LockTTL = ttl
	}
	if v := strings.TrimSpace(getenv("CANDIDATE_DATES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c, fmt.Errorf("invalid CANDIDATE_DATES %q", v)
		}
		c.CandidateDates = n
	}
	return c, nil
}
