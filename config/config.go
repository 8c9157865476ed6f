package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/metrics"
	"github.com/kilianp07/classplan/core/solver"
	"github.com/kilianp07/classplan/infra/logger"
	"github.com/kilianp07/classplan/infra/mqtt"
	"github.com/kilianp07/classplan/infra/solvelog"
)

type Config struct {
	Server   ServerConfig    `json:"server"`
	Solver   solver.Config   `json:"solver"`
	Catalog  catalog.Config  `json:"catalog"`
	Logging  logger.Config   `json:"logging"`
	SolveLog solvelog.Config `json:"solve_log"`
	Metrics  metrics.Config  `json:"metrics"`
	MQTT     mqtt.Config     `json:"mqtt"`
	Sentry   SentryConfig    `json:"sentry"`
	Export   ExportConfig    `json:"export"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section. It is also used by callers that build a
// Config in code instead of loading a file.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Solver.SetDefaults()
	c.Catalog.SetDefaults()
	c.Logging.SetDefaults()
	c.SolveLog.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.Export.SetDefaults()
}

func (c Config) Validate() error {
	checks := []struct {
		section string
		err     error
	}{
		{"server", c.Server.Validate()},
		{"solver", c.Solver.Validate()},
		{"catalog", c.Catalog.Validate()},
		{"logging", c.Logging.Validate()},
		{"solve_log", c.SolveLog.Validate()},
		{"mqtt", c.MQTT.Validate()},
		{"export", c.Export.Validate()},
	}
	for _, ch := range checks {
		if ch.err != nil {
			return fmt.Errorf("%s: %w", ch.section, ch.err)
		}
	}
	return nil
}
