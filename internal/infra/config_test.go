package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("QUOTA_TIMEZONE", "")
	t.Setenv("PLAN_RESOLVE_TIMEOUT_SECONDS", "")
	t.Setenv("PLAN_OVERRIDE_ENABLED", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.QuotaTimezone != "UTC" {
		t.Fatalf("QuotaTimezone = %q, want UTC", cfg.QuotaTimezone)
	}
	if cfg.PlanResolveTimeout != 5*time.Second {
		t.Fatalf("PlanResolveTimeout = %v, want 5s", cfg.PlanResolveTimeout)
	}
	if !cfg.PlanOverrideEnabled {
		t.Fatalf("PlanOverrideEnabled = false, want true by default")
	}
	if cfg.RefreshInterval != 5*time.Minute {
		t.Fatalf("RefreshInterval = %v, want 5m", cfg.RefreshInterval)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("Location() = %v, want UTC", cfg.Location())
	}
}

func TestLoadConfigRequiredValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error without JWT_SECRET")
	}
}

func TestLoadConfigRejectsBadTimezone(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("QUOTA_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error for invalid timezone")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("QUOTA_TIMEZONE", "Asia/Jakarta")
	t.Setenv("PLAN_RESOLVE_TIMEOUT_SECONDS", "2")
	t.Setenv("PLAN_OVERRIDE_ENABLED", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.QuotaTimezone != "Asia/Jakarta" {
		t.Fatalf("QuotaTimezone = %q, want Asia/Jakarta", cfg.QuotaTimezone)
	}
	if cfg.PlanResolveTimeout != 2*time.Second {
		t.Fatalf("PlanResolveTimeout = %v, want 2s", cfg.PlanResolveTimeout)
	}
	if cfg.PlanOverrideEnabled {
		t.Fatalf("PlanOverrideEnabled = true, want false")
	}
}
