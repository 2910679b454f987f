package config

import (
	"strings"
	"time"
)

const defaultAPITimeout = 15 * time.Second

// APIConfig describes how to reach the Holy Grail REST backend.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://api.holygrail.example/v1".
	BaseURL string `env:"HOLYGRAIL_API_URL,required"`

	// Timeout bounds each backend call.
	Timeout time.Duration `env:"HOLYGRAIL_API_TIMEOUT" envDefault:"15s"`
}

// Sanitize trims the base URL and clamps the timeout.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultAPITimeout
	}
}
