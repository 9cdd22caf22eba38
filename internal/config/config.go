package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Filesystem
	DataDir      string
	DatabaseFile string

	// Landing file classification
	TransactionPattern string
	BudgetPattern      string

	// Extraction
	LookbackDays int

	// Reporting
	ReportCategory string

	// Outer retry loop
	RetryAttempts int
	RetryDelay    time.Duration

	// AMQP (optional; empty URL disables report publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	dataDir := getEnv("BUDGETWATCH_DATA_DIR", "./data")
	return &Config{
		DataDir:      dataDir,
		DatabaseFile: getEnv("BUDGETWATCH_DATABASE_FILE", filepath.Join(dataDir, "database", "ledger.db")),

		TransactionPattern: getEnv("BUDGETWATCH_TRANSACTION_PATTERN", "transactions*.csv"),
		BudgetPattern:      getEnv("BUDGETWATCH_BUDGET_PATTERN", "budget_*.csv"),

		LookbackDays: getEnvInt("BUDGETWATCH_LOOKBACK_DAYS", 30),

		ReportCategory: getEnv("BUDGETWATCH_REPORT_CATEGORY", "Variable Spending"),

		RetryAttempts: getEnvInt("BUDGETWATCH_RETRY_ATTEMPTS", 3),
		RetryDelay:    getEnvDuration("BUDGETWATCH_RETRY_DELAY", 3*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetwatch"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget_reports"),
	}
}

// RawDir is the landing area new snapshots arrive in.
func (c *Config) RawDir() string { return filepath.Join(c.DataDir, "raw") }

// ImportedDir receives successfully ingested snapshots.
func (c *Config) ImportedDir() string { return filepath.Join(c.DataDir, "imported") }

// FailedDir quarantines snapshots that failed to ingest.
func (c *Config) FailedDir() string { return filepath.Join(c.DataDir, "failed") }

// EnsureDirs creates the landing-flow directories and the database directory.
func (c *Config) EnsureDirs() error {
	dirs := []string{c.RawDir(), c.ImportedDir(), c.FailedDir(), filepath.Dir(c.DatabaseFile)}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty")
	}
	if c.DatabaseFile == "" {
		errors = append(errors, "database file cannot be empty")
	}

	for name, pattern := range map[string]string{
		"transaction": c.TransactionPattern,
		"budget":      c.BudgetPattern,
	} {
		if pattern == "" {
			errors = append(errors, fmt.Sprintf("%s file pattern cannot be empty", name))
			continue
		}
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s file pattern %q: %v", name, pattern, err))
		}
	}

	if c.LookbackDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid lookback days %d: must be at least 1", c.LookbackDays))
	} else if c.LookbackDays > 366 {
		errors = append(errors, fmt.Sprintf("invalid lookback days %d: must be at most 366", c.LookbackDays))
	}

	if c.ReportCategory == "" {
		errors = append(errors, "report category cannot be empty")
	}

	if c.RetryAttempts < 1 {
		errors = append(errors, fmt.Sprintf("invalid retry attempts %d: must be at least 1", c.RetryAttempts))
	} else if c.RetryAttempts > 10 {
		errors = append(errors, fmt.Sprintf("invalid retry attempts %d: must be at most 10", c.RetryAttempts))
	}
	if c.RetryDelay < 0 {
		errors = append(errors, fmt.Sprintf("invalid retry delay %v: must not be negative", c.RetryDelay))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
