package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"APP_ENV", "HOST", "PORT", "DATABASE_DRIVER", "DATABASE_URL", "OPERATION_TIMEOUT", "LOG_LEVEL", "SEED_DEMO"} {
		// Setenv registers the restore; godotenv only fills variables that are unset.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8000 || cfg.DatabaseDriver != "sqlite" || cfg.OperationTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Development() || cfg.SeedDemo {
		t.Fatalf("unexpected env defaults: %+v", cfg)
	}
	if cfg.Addr() != "0.0.0.0:8000" {
		t.Fatalf("unexpected addr: %s", cfg.Addr())
	}
}

func TestLoadReadsDotEnvButEnvironmentWins(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "PORT=9100\nDATABASE_DRIVER=postgres\nDATABASE_URL=postgres://clinic@localhost/clinic\nSEED_DEMO=true\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("PORT", "9200")

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9200 {
		t.Fatalf("expected environment PORT to win, got %d", cfg.Port)
	}
	if cfg.DatabaseDriver != "postgres" || cfg.DatabaseURL != "postgres://clinic@localhost/clinic" || !cfg.SeedDemo {
		t.Fatalf("expected .env values, got %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"PORT":              "eighty",
		"DATABASE_DRIVER":   "mysql",
		"OPERATION_TIMEOUT": "soon",
		"SEED_DEMO":         "maybe",
	}
	for key, value := range cases {
		clearEnv(t)
		t.Setenv(key, value)
		if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
			t.Fatalf("%s=%s: expected error", key, value)
		}
	}
}
