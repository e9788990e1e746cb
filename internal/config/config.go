// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the runtime configuration of the verification service.
type Config struct {
	Host          string
	Port          string
	DataDir       string
	CameraID      int
	CameraEnabled bool
	AutoCapture   bool
	OCREnabled    bool
	OCRLanguage   string
}

// ServerAddress returns the host:port pair the HTTP server binds to.
func (c *Config) ServerAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

// DBPath returns the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "tcidverify.db")
}

// LoadFromEnv builds a Config from environment variables, applying defaults
// and validating the result. The default data directory is ~/.tcidverify.
func LoadFromEnv() (*Config, error) {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".tcidverify")
	}

	cfg := &Config{
		Host:          getEnvOrDefault("HOST", "0.0.0.0"),
		Port:          getEnvOrDefault("PORT", "8080"),
		DataDir:       dataDir,
		CameraID:      parseIntOrDefault("CAMERA_ID", 0),
		CameraEnabled: parseBoolOrDefault("CAMERA_ENABLED", false),
		AutoCapture:   parseBoolOrDefault("AUTO_CAPTURE", false),
		OCREnabled:    parseBoolOrDefault("OCR_ENABLED", false),
		OCRLanguage:   getEnvOrDefault("OCR_LANG", "tur"),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.CameraID < 0 {
		return nil, fmt.Errorf("invalid CAMERA_ID: %d", cfg.CameraID)
	}
	if cfg.AutoCapture && !cfg.CameraEnabled {
		return nil, fmt.Errorf("AUTO_CAPTURE requires CAMERA_ENABLED")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return n
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return b
}
