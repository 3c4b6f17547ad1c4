package format

import (
	"strings"
	"time"
)

// Settings is the analyzer configuration injected into an Orchestrator. The
// zero value is the "not configured" variant, which disables enhancement only.
type Settings struct {
	configured bool

	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// NotConfigured returns settings that disable the scenario enhancer.
func NotConfigured() Settings {
	return Settings{}
}

// Configured returns usable settings, or NotConfigured when apiKey is blank.
func Configured(provider, apiKey, model, baseURL string) Settings {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return NotConfigured()
	}
	return Settings{
		configured: true,
		Provider:   provider,
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    baseURL,
	}
}

// WithTimeout returns a copy with the analyzer request timeout set.
func (s Settings) WithTimeout(d time.Duration) Settings {
	s.Timeout = d
	return s
}

// IsConfigured reports whether an API credential is present.
func (s Settings) IsConfigured() bool {
	return s.configured
}
