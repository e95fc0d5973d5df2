package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const DefaultDatabaseURL = "database.db"

type Config struct {
	DatabaseURL string

	LogLevel  logrus.Level
	LogFormat string
}

// FromEnv reads the process environment. Values from a .env file in the
// working directory fill in anything the environment leaves unset. A
// missing .env is fine; an unreadable or malformed one is an error.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		DatabaseURL: getenv("DATABASE_URL", DefaultDatabaseURL),
		LogFormat:   strings.ToLower(getenv("LOG_FORMAT", "text")),
	}

	lvl, err := logrus.ParseLevel(getenv("LOG_LEVEL", "warn"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = lvl

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q (want text or json)", cfg.LogFormat)
	}

	return cfg, nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
