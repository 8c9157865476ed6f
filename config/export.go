package config

import (
	"fmt"
	"time"
)

// ExportConfig anchors calendar exports on the first week of the term.
type ExportConfig struct {
	// TermStart is the first day of instruction, YYYY-MM-DD.
	TermStart string `json:"term_start"`
	TimeZone  string `json:"time_zone"`
	// Weeks bounds the weekly recurrence; zero leaves it open-ended.
	Weeks int `json:"weeks"`
}

func (c *ExportConfig) SetDefaults() {
	if c.TimeZone == "" {
		c.TimeZone = "America/Chicago"
	}
}

func (c ExportConfig) Validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("time_zone: %w", err)
	}
	if c.TermStart != "" {
		if _, err := time.Parse(time.DateOnly, c.TermStart); err != nil {
			return fmt.Errorf("term_start must be YYYY-MM-DD: %w", err)
		}
	}
	if c.Weeks < 0 {
		return fmt.Errorf("weeks must be >= 0")
	}
	return nil
}

// Start returns the term start in the configured zone. An unset term start
// yields the Monday of the current week.
func (c ExportConfig) Start(now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Time{}, err
	}
	if c.TermStart == "" {
		now = now.In(loc)
		offset := (int(now.Weekday()) + 6) % 7
		y, m, d := now.AddDate(0, 0, -offset).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	return time.ParseInLocation(time.DateOnly, c.TermStart, loc)
}
