package config

import (
	"os"
	"strconv"
	"time"
)

// ConverterConfig holds the locations of the external conversion tools.
type ConverterConfig struct {
	PdftoppmPath string
	SofficePath  string
}

// WorkspaceConfig controls where uploads and artifacts are staged and how long they are kept.
type WorkspaceConfig struct {
	Dir              string
	MaxUploadBytes   int64
	TTLSec           int
	SweepIntervalSec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost              string
	Port                 string
	TimeZone             string
	ConversionTimeoutSec int
	MetricsEnabled       bool
	Workspace            WorkspaceConfig
	Converters           ConverterConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:              getEnv("APP_HOST", "localhost:8080"),
		Port:                 getEnv("PORT", "8080"),
		TimeZone:             getEnv("TZ_NAME", "UTC"),
		ConversionTimeoutSec: getEnvInt("CONVERSION_TIMEOUT_SEC", 300),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
		Workspace: WorkspaceConfig{
			Dir:              getEnv("WORK_DIR", "output_files"),
			MaxUploadBytes:   getEnvInt64("MAX_UPLOAD_BYTES", 50<<20),
			TTLSec:           getEnvInt("WORKSPACE_TTL_SEC", 0),
			SweepIntervalSec: getEnvInt("SWEEP_INTERVAL_SEC", 600),
		},
		Converters: ConverterConfig{
			PdftoppmPath: getEnv("PDFTOPPM_PATH", "pdftoppm"),
			SofficePath:  getEnv("SOFFICE_PATH", "soffice"),
		},
	}
}

// Location resolves TimeZone, falling back to UTC when the zone is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ConversionTimeout is the deadline applied to a single conversion run.
func (c *AppConfig) ConversionTimeout() time.Duration {
	if c.ConversionTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(c.ConversionTimeoutSec) * time.Second
}

// TTL returns the workspace retention period. Zero means workspaces are kept forever.
func (w WorkspaceConfig) TTL() time.Duration {
	if w.TTLSec <= 0 {
		return 0
	}
	return time.Duration(w.TTLSec) * time.Second
}

// SweepInterval returns how often expired workspaces are removed.
func (w WorkspaceConfig) SweepInterval() time.Duration {
	if w.SweepIntervalSec <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(w.SweepIntervalSec) * time.Second
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
