// Package config provides configuration management for the Storyboard Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort         = 8790
	DefaultLogLevel     = "info"
	DefaultDataDir      = ".storyboard-agent"
	DefaultPollInterval = 5 // seconds

	// Environment variable names
	EnvPort         = "STORYBOARD_PORT"
	EnvLogLevel     = "STORYBOARD_LOG_LEVEL"
	EnvDataDir      = "STORYBOARD_DATA_DIR"
	EnvBackendURL   = "STORYBOARD_BACKEND_URL"
	EnvBackendToken = "STORYBOARD_BACKEND_TOKEN"
	EnvProjectID    = "STORYBOARD_PROJECT_ID"
	EnvPollInterval = "STORYBOARD_POLL_INTERVAL"
	EnvHeadless     = "STORYBOARD_HEADLESS"

	// Database filename
	DBFilename = "storyboard.db"

	// MinPollInterval is the floor for the queue poll cadence. Anything
	// faster just hammers the backend for no fresher truth.
	MinPollInterval = 1 * time.Second
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	BackendURL() string
	BackendToken() string
	BackendEnabled() bool
	ProjectID() string
	PollInterval() time.Duration
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port         int
	logLevel     string
	dataDir      string
	backendURL   string
	backendToken string
	projectID    string
	pollInterval time.Duration
	headless     bool
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:         DefaultPort,
		logLevel:     DefaultLogLevel,
		dataDir:      defaultDataDir(),
		pollInterval: DefaultPollInterval * time.Second,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.backendURL = os.Getenv(EnvBackendURL)
	cfg.backendToken = os.Getenv(EnvBackendToken)
	cfg.projectID = os.Getenv(EnvProjectID)

	if pi := os.Getenv(EnvPollInterval); pi != "" {
		seconds, err := strconv.Atoi(pi)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPollInterval, err)
		}
		interval := time.Duration(seconds) * time.Second
		if interval < MinPollInterval {
			interval = MinPollInterval
		}
		cfg.pollInterval = interval
	}

	if h := os.Getenv(EnvHeadless); h == "1" || h == "true" {
		cfg.headless = true
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// BackendURL returns the storyboard backend base URL
func (c *EnvConfig) BackendURL() string {
	return c.backendURL
}

// BackendToken returns the bearer token for the storyboard backend
func (c *EnvConfig) BackendToken() string {
	return c.backendToken
}

// BackendEnabled reports whether a real backend is configured. When false
// the agent runs against the in-memory stub client.
func (c *EnvConfig) BackendEnabled() bool {
	return c.backendURL != ""
}

// ProjectID returns the storyboard project this agent works against
func (c *EnvConfig) ProjectID() string {
	return c.projectID
}

// PollInterval returns the generation-queue poll cadence
func (c *EnvConfig) PollInterval() time.Duration {
	return c.pollInterval
}

// Headless reports whether the system tray is disabled
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
