package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/lims_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default DB_MAX_CONNS 20, got %d", cfg.DBMaxConns)
	}
	if cfg.LabEmail == "" {
		t.Error("expected a default lab email")
	}
	if !cfg.IsDev() {
		t.Error("expected IsDev to be true by default")
	}
}

func TestLoad_DatabaseURLRequired(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestLoad_JWTSecretRequiredInProduction(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/lims_test")
	setEnv(t, "ENV", "production")
	setEnv(t, "JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing JWT_SECRET in production")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/lims_test")
	setEnv(t, "PORT", "9100")
	setEnv(t, "LAB_EMAIL", "qc@example.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("expected port 9100, got %s", cfg.Port)
	}
	if cfg.LabEmail != "qc@example.org" {
		t.Errorf("expected lab email override, got %s", cfg.LabEmail)
	}
}
