package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.DatabaseDriver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %s", cfg.DatabaseDriver)
	}
	if cfg.StaffTokenTTL != 12*time.Hour {
		t.Errorf("expected 12h staff token ttl, got %v", cfg.StaffTokenTTL)
	}
	if cfg.CouponIssueAttempts != 5 {
		t.Errorf("expected 5 coupon attempts, got %d", cfg.CouponIssueAttempts)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STATS_CACHE_TTL", "1m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.StatsCacheTTL != time.Minute {
		t.Errorf("expected 1m stats ttl, got %v", cfg.StatsCacheTTL)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("unexpected redis url %q", cfg.RedisURL)
	}
}

func TestLoadRejectsBadDriver(t *testing.T) {
	t.Run("UnknownDriver", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "mysql")
		if _, err := load(viper.New()); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})

	t.Run("PostgresWithoutURL", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "postgres")
		if _, err := load(viper.New()); err == nil {
			t.Fatal("expected error for postgres without DATABASE_URL")
		}
	})
}
