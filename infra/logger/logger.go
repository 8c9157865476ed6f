package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	corelogger "github.com/kilianp07/classplan/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Infow(string, map[string]any)  {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// Config selects the logging backend.
type Config struct {
	// Backend is "zerolog" (default) or "logrus".
	Backend string `json:"backend"`
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
	// Format is "json" or "console". APP_ENV=dev forces console.
	Format string `json:"format"`
}

func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "zerolog"
	}
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

func (c Config) Validate() error {
	switch c.Backend {
	case "zerolog", "logrus":
	default:
		return fmt.Errorf("unknown logging backend %s", c.Backend)
	}
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %s", c.Level)
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("unknown log format %s", c.Format)
	}
	return nil
}

func (c Config) console() bool {
	return c.Format == "console" || strings.ToLower(os.Getenv("APP_ENV")) == "dev"
}

var (
	mu      sync.RWMutex
	current = Config{Backend: "zerolog", Level: "info", Format: "json"}
)

// Configure sets the backend used by subsequent calls to New.
func Configure(cfg Config) error {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	mu.Lock()
	current = cfg
	mu.Unlock()
	return nil
}

// New returns a Logger tagged with the given component.
func New(component string) Logger {
	mu.RLock()
	cfg := current
	mu.RUnlock()
	if cfg.Backend == "logrus" {
		return NewLogrusLogger(component, cfg)
	}
	return NewZerologLogger(component, cfg)
}
