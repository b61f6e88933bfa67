package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"factures/internal/api"
	"factures/internal/export"
	"factures/internal/invoice"
	"factures/internal/logger"
)

type Config struct {
	// Storage
	DatabasePath string

	// Reconciliation policy
	DefaultTaxRate            float64 // percent, assumed when no rate was detected
	InteractiveToleranceFloor float64 // absolute floor of the validation tolerance
	InteractiveToleranceRatio float64 // share of the total accepted by validation
	ExportTolerance           float64 // flat tolerance of export and export gate

	// Export
	ExportWorkers   int
	FECJournalCode  string
	FECJournalLabel string
	FECEncoding     string // utf-8 or iso-8859-15

	// HTTP API
	HTTPAddr string

	// Google Sheets export target
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Default returns the configuration used when the environment sets nothing.
func Default() *Config {
	return &Config{
		DatabasePath:              "factures.db",
		DefaultTaxRate:            invoice.DefaultTaxRatePercent,
		InteractiveToleranceFloor: 0.02,
		InteractiveToleranceRatio: 0.005,
		ExportTolerance:           0.05,
		ExportWorkers:             8,
		FECJournalCode:            "AC",
		FECJournalLabel:           "Achats",
		FECEncoding:               export.EncodingUTF8,
		HTTPAddr:                  ":8080",
		GoogleSheetWorksheet:      "Export",
		LogLevel:                  "info",
		LogFormat:                 "console",
		LogTimeFormat:             "2006-01-02T15:04:05Z07:00",
		LogOutput:                 "stderr",
	}
}

func Load() (*Config, error) {
	d := Default()
	config := &Config{
		DatabasePath:              getEnv("DATABASE_PATH", d.DatabasePath),
		DefaultTaxRate:            getFloatEnv("DEFAULT_TAX_RATE", d.DefaultTaxRate),
		InteractiveToleranceFloor: getFloatEnv("INTERACTIVE_TOLERANCE_FLOOR", d.InteractiveToleranceFloor),
		InteractiveToleranceRatio: getFloatEnv("INTERACTIVE_TOLERANCE_RATIO", d.InteractiveToleranceRatio),
		ExportTolerance:           getFloatEnv("EXPORT_TOLERANCE", d.ExportTolerance),
		ExportWorkers:             getIntEnv("EXPORT_WORKERS", d.ExportWorkers),
		FECJournalCode:            getEnv("FEC_JOURNAL_CODE", d.FECJournalCode),
		FECJournalLabel:           getEnv("FEC_JOURNAL_LABEL", d.FECJournalLabel),
		FECEncoding:               strings.ToLower(getEnv("FEC_ENCODING", d.FECEncoding)),
		HTTPAddr:                  getEnv("HTTP_ADDR", d.HTTPAddr),
		GoogleSheetURL:            getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:      getEnv("GOOGLE_SHEET_WORKSHEET", d.GoogleSheetWorksheet),
		LogLevel:                  getEnv("LOG_LEVEL", d.LogLevel),
		LogFormat:                 getEnv("LOG_FORMAT", d.LogFormat),
		LogTimeFormat:             getEnv("LOG_TIME_FORMAT", d.LogTimeFormat),
		LogOutput:                 getEnv("LOG_OUTPUT", d.LogOutput),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.DefaultTaxRate < 0 || c.DefaultTaxRate > 100 {
		return fmt.Errorf("DEFAULT_TAX_RATE must be between 0 and 100, got %v", c.DefaultTaxRate)
	}
	if c.InteractiveToleranceFloor < 0 || c.InteractiveToleranceRatio < 0 || c.ExportTolerance < 0 {
		return fmt.Errorf("tolerances must not be negative")
	}
	if c.ExportWorkers <= 0 {
		return fmt.Errorf("EXPORT_WORKERS must be positive, got %d", c.ExportWorkers)
	}
	if c.FECEncoding != export.EncodingUTF8 && c.FECEncoding != export.EncodingLatin9 {
		return fmt.Errorf("FEC_ENCODING must be %s or %s, got %s", export.EncodingUTF8, export.EncodingLatin9, c.FECEncoding)
	}
	if c.FECJournalCode == "" {
		return fmt.Errorf("FEC_JOURNAL_CODE must not be empty")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// ReconcilerConfig returns the policy of the interactive validation path.
func (c *Config) ReconcilerConfig() invoice.ReconcilerConfig {
	return invoice.ReconcilerConfig{
		DefaultTaxRatePercent: c.DefaultTaxRate,
		Tolerance:             invoice.RelativeTolerance(c.InteractiveToleranceFloor, c.InteractiveToleranceRatio),
	}
}

// ExportConfig returns the policy and layout of the export path.
func (c *Config) ExportConfig() export.Config {
	return export.Config{
		Resolver: invoice.ResolverConfig{
			DefaultTaxRatePercent: c.DefaultTaxRate,
			Tolerance:             invoice.FlatTolerance(c.ExportTolerance),
		},
		GateTolerance:   invoice.FlatTolerance(c.ExportTolerance),
		Workers:         c.ExportWorkers,
		FECJournalCode:  c.FECJournalCode,
		FECJournalLabel: c.FECJournalLabel,
		FECEncoding:     c.FECEncoding,
	}
}

// ServerConfig returns the HTTP server settings.
func (c *Config) ServerConfig() api.ServerConfig {
	server := api.DefaultServerConfig()
	server.Addr = c.HTTPAddr
	server.ReadTimeout = getDurationEnv("HTTP_READ_TIMEOUT", server.ReadTimeout)
	server.WriteTimeout = getDurationEnv("HTTP_WRITE_TIMEOUT", server.WriteTimeout)
	return server
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
