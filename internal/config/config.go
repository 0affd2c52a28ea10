package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env              string
	Host             string
	Port             int
	DatabaseDriver   string
	DatabaseURL      string
	OperationTimeout time.Duration
	LogLevel         string
	SeedDemo         bool
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) Development() bool {
	return c.Env == EnvDevelopment
}

// Load reads .env files (when present) and then the process environment.
// Variables already set in the environment win over .env entries.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Env:            getenv("APP_ENV", EnvDevelopment),
		Host:           getenv("HOST", "0.0.0.0"),
		DatabaseDriver: strings.ToLower(getenv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    getenv("DATABASE_URL", "clinic.db"),
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
	}

	port, err := strconv.Atoi(getenv("PORT", "8000"))
	if err != nil {
		return Config{}, errors.New("invalid PORT env variable")
	}
	cfg.Port = port

	cfg.OperationTimeout, err = time.ParseDuration(getenv("OPERATION_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid OPERATION_TIMEOUT: %w", err)
	}

	if v := os.Getenv("SEED_DEMO"); v != "" {
		cfg.SeedDemo, err = strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SEED_DEMO: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (use sqlite or postgres)", c.DatabaseDriver)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.OperationTimeout < 0 {
		return errors.New("OPERATION_TIMEOUT cannot be negative")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
