package catalog

import (
	"fmt"
	"time"

	"github.com/kilianp07/classplan/core/factory"
)

// Config selects the catalog source and how often it is refreshed.
type Config struct {
	Source                 factory.ModuleConfig `json:"source"`
	RefreshIntervalSeconds int                  `json:"refresh_interval_seconds"`
	Cache                  CacheConfig          `json:"cache"`
}

// CacheConfig enables the SQLite snapshot cache.
type CacheConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

func (c *Config) SetDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = "html"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "catalog.db"
	}
}

func (c Config) Validate() error {
	if c.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("refresh_interval_seconds must be >= 0")
	}
	return nil
}

// RefreshInterval is zero when periodic refresh is disabled.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}
