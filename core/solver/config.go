package solver

import (
	"fmt"
	"time"
)

// DefaultTypeOrder ranks section types so that lectures are placed before the
// components that usually hang off them.
var DefaultTypeOrder = []string{
	"lecture",
	"lecture-discussion",
	"online",
	"online lecture",
	"discussion/recitation",
	"discussion",
	"recitation",
	"laboratory-discussion",
	"laboratory",
	"lab",
	"quiz",
	"conference",
	"seminar",
	"studio",
	"independent study",
}

// Config tunes the solver.
type Config struct {
	TimeoutMS int      `json:"timeout_ms"`
	TypeOrder []string `json:"type_order"`
}

func (c *Config) SetDefaults() {
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 2000
	}
	if len(c.TypeOrder) == 0 {
		c.TypeOrder = DefaultTypeOrder
	}
}

func (c Config) Validate() error {
	if c.TimeoutMS < 0 {
		return fmt.Errorf("timeout_ms must be >= 0")
	}
	return nil
}

// Timeout is the search deadline applied when the caller's context has none.
// SetDefaults replaces zero with two seconds.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
