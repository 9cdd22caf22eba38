package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		DataDir:            "./data",
		DatabaseFile:       "./data/database/ledger.db",
		TransactionPattern: "transactions*.csv",
		BudgetPattern:      "budget_*.csv",
		LookbackDays:       30,
		ReportCategory:     "Variable Spending",
		RetryAttempts:      3,
		RetryDelay:         3 * time.Minute,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.TransactionPattern != "transactions*.csv" {
		t.Fatalf("unexpected default transaction pattern: %q", cfg.TransactionPattern)
	}
	if cfg.BudgetPattern != "budget_*.csv" {
		t.Fatalf("unexpected default budget pattern: %q", cfg.BudgetPattern)
	}
	if cfg.RetryAttempts != 3 || cfg.RetryDelay != 3*time.Minute {
		t.Fatalf("unexpected retry defaults: %d / %v", cfg.RetryAttempts, cfg.RetryDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BUDGETWATCH_DATA_DIR", "/tmp/bw")
	t.Setenv("BUDGETWATCH_LOOKBACK_DAYS", "7")
	t.Setenv("BUDGETWATCH_RETRY_DELAY", "30s")

	cfg := Load()
	if cfg.DataDir != "/tmp/bw" {
		t.Fatalf("expected /tmp/bw, got %q", cfg.DataDir)
	}
	if cfg.RawDir() != filepath.Join("/tmp/bw", "raw") {
		t.Fatalf("unexpected raw dir: %q", cfg.RawDir())
	}
	if cfg.LookbackDays != 7 {
		t.Fatalf("expected 7, got %d", cfg.LookbackDays)
	}
	if cfg.RetryDelay != 30*time.Second {
		t.Fatalf("expected 30s, got %v", cfg.RetryDelay)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data directory"},
		{"empty pattern", func(c *Config) { c.TransactionPattern = "" }, "file pattern"},
		{"malformed pattern", func(c *Config) { c.BudgetPattern = "budget_[*.csv" }, "budget file pattern"},
		{"zero lookback", func(c *Config) { c.LookbackDays = 0 }, "lookback days"},
		{"empty category", func(c *Config) { c.ReportCategory = "" }, "report category"},
		{"zero attempts", func(c *Config) { c.RetryAttempts = 0 }, "retry attempts"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"amqp without queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPQueue = "" }, "queue name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.message)
			}
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	cfg := validConfig()
	cfg.DataDir = base
	cfg.DatabaseFile = filepath.Join(base, "database", "ledger.db")

	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	for _, dir := range []string{cfg.RawDir(), cfg.ImportedDir(), cfg.FailedDir(), filepath.Join(base, "database")} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, got err=%v", dir, err)
		}
	}
}
