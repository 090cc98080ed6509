package config

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pdfshrink/internal/common"
)

// Config holds application configuration
type Config struct {
	ListenAddr      string `yaml:"listen_addr"`
	WorkingDir      string `yaml:"working_dir"`
	DatabasePath    string `yaml:"database_path"`
	GhostscriptPath string `yaml:"ghostscript_path"`
	QueueCapacity   int    `yaml:"queue_capacity"`
	LogLevel        string `yaml:"log_level"`

	Logger *slog.Logger `yaml:"-"`
}

// New creates a configuration instance with defaults applied. If path is
// non-empty the YAML file at that location is loaded on top of the defaults.
func New(path string) (*Config, error) {
	cfg := &Config{
		ListenAddr:    ":8741",
		QueueCapacity: common.DefaultQueueCapacity,
		LogLevel:      "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.setupDirectories()
	cfg.setupGhostscriptPath()
	cfg.setupLogger()

	return cfg, nil
}

func (c *Config) setupDirectories() {
	// Working directory holds each job's scratch filesystem
	if c.WorkingDir == "" {
		c.WorkingDir = filepath.Join(os.TempDir(), "pdfshrink")
	}
	os.MkdirAll(c.WorkingDir, common.DefaultDirPermissions)

	if c.DatabasePath == "" {
		dataDir := appDataDir()
		os.MkdirAll(dataDir, common.DefaultDirPermissions)
		c.DatabasePath = filepath.Join(dataDir, "database.sqlite3")
	}

	if c.QueueCapacity <= 0 {
		c.QueueCapacity = common.DefaultQueueCapacity
	}
}

func (c *Config) setupGhostscriptPath() {
	if c.GhostscriptPath != "" {
		return
	}
	// Fall back to whatever gs the PATH provides
	if path, err := exec.LookPath("gs"); err == nil {
		c.GhostscriptPath = path
	}
}

func (c *Config) setupLogger() {
	level := slog.LevelInfo
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	c.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// IsGhostscriptAvailable reports whether a Ghostscript binary was resolved
func (c *Config) IsGhostscriptAvailable() bool {
	return c.GhostscriptPath != ""
}

func appDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pdfshrink-data")
	}
	return filepath.Join(homeDir, ".pdfshrink")
}
