package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DBDriver:           DriverPostgres,
		DatabaseURL:        "postgres://localhost/leave",
		Timezone:           "UTC",
		MaxBodyBytes:       4096,
		RateLimitPerMinute: 60,
		RetentionSchedule:  "0 3 * * *",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing url", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "TIMEZONE"},
		{"small body", func(c *Config) { c.MaxBodyBytes = 10 }, "MAX_BODY_BYTES"},
		{"rate limit", func(c *Config) { c.RateLimitPerMinute = 0 }, "RATE_LIMIT_PER_MINUTE"},
		{"cron", func(c *Config) { c.RetentionSchedule = "every tuesday" }, "RETENTION_SCHEDULE"},
		{"wildcard cors", func(c *Config) {
			c.Environment = "production"
			c.CORSAllowedOrigins = []string{"*"}
		}, "CORS_ALLOWED_ORIGINS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestSQLiteAllowsEmptyURLOutsideProduction(t *testing.T) {
	cfg := validConfig()
	cfg.DBDriver = DriverSQLite
	cfg.DatabaseURL = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected sqlite in-memory config to be valid, got %v", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ADDR", ":9000")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("RETENTION_DAYS", "30")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	if cfg.Addr != ":9000" {
		t.Fatalf("expected addr :9000, got %s", cfg.Addr)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %s", cfg.DBDriver)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RetentionDays != 30 {
		t.Fatalf("expected 30 retention days, got %d", cfg.RetentionDays)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected fallback rate limit, got %d", cfg.RateLimitPerMinute)
	}
}

func TestLocation(t *testing.T) {
	cfg := Config{Timezone: "UTC"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC location")
	}
	cfg.Timezone = "local"
	if cfg.Location() != time.Local {
		t.Fatalf("expected local location")
	}
}
