package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPaths defines the default locations to search for configuration files
var DefaultConfigPaths = []string{
	"./config.yaml",
	"./config.yml",
	"./configs/config.yaml",
	"./configs/config.yml",
	"/etc/mentapp/config.yaml",
	"/etc/mentapp/config.yml",
}

// Load loads the configuration from the specified file or default locations.
// A .env file in the working directory is loaded first so that ${VAR}
// references in the YAML can resolve against it.
func Load(configPath string) (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	config := &Config{}

	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" && fileExists(configPath) {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand ${VAR} / $VAR references against the environment
		data = []byte(os.ExpandEnv(string(data)))

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables override for containerized deployments and
	// as the fallback when no config file exists at all.
	if v := os.Getenv("MENTAPP_API_BASE_URL"); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv("MENTAPP_GOOGLE_CLIENT_ID"); v != "" {
		config.Google.ClientID = v
	}
	if v := os.Getenv("MENTAPP_GOOGLE_REDIRECT_URI"); v != "" {
		config.Google.RedirectURI = v
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}

// validate performs basic validation on the configuration
func validate(config *Config) error {
	if config.API.BaseURL == "" {
		return fmt.Errorf("api base URL is required (set api.base_url or MENTAPP_API_BASE_URL)")
	}
	if config.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	return nil
}
