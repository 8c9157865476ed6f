package registrar

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/classplan/auth"
	"github.com/kilianp07/classplan/core/model"
)

const DefaultBaseURL = "https://courses.illinois.edu/cisapp/dispatcher"

// Config drives the registrar scraper. Year and Term are detected from the
// landing page when left empty. When Classes is set only those classes are
// fetched; otherwise every class of Subjects (or of every subject) is.
type Config struct {
	BaseURL        string    `json:"base_url"`
	Year           string    `json:"year"`
	Term           string    `json:"term"`
	Subjects       []string  `json:"subjects"`
	Classes        []string  `json:"classes"`
	UserAgent      string    `json:"user_agent"`
	MaxRetries     int       `json:"max_retries"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	Concurrency    int       `json:"concurrency"`
	Auth           auth.Conf `json:"auth"`
}

func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; classplan/1.0)"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 20
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	c.Term = strings.ToLower(c.Term)
	for i, s := range c.Subjects {
		c.Subjects[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

func (c Config) Validate() error {
	if (c.Year == "") != (c.Term == "") {
		return fmt.Errorf("year and term must be set together")
	}
	if c.MaxRetries < 0 || c.Concurrency < 0 || c.TimeoutSeconds < 0 {
		return fmt.Errorf("max_retries, concurrency and timeout_seconds must be >= 0")
	}
	for _, s := range c.Classes {
		if _, err := model.ParseClassKey(s); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) timeout() time.Duration { return time.Duration(c.TimeoutSeconds) * time.Second }
