package config

import "time"

// Config represents the application configuration
type Config struct {
	API    APIConfig    `yaml:"api"`
	Google GoogleConfig `yaml:"google"`
}

// APIConfig holds the backend connection configuration
type APIConfig struct {
	// BaseURL is the backend origin. Required: the client refuses to start
	// without it rather than failing on the first request.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout. Zero leaves the transport's
	// defaults in place, which is the historical behavior.
	Timeout time.Duration `yaml:"timeout"`
}

// GoogleConfig holds the Google OAuth client configuration
type GoogleConfig struct {
	ClientID    string `yaml:"client_id"`
	RedirectURI string `yaml:"redirect_uri"`
}
