package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// API client
	APIURL      string
	StateDir    string
	HTTPTimeout time.Duration

	// Dev API server
	DevPort      string
	DevDBPath    string
	DevJWTSecret string
	DevTokenTTL  time.Duration
}

func Load() *Config {
	cfg := &Config{
		APIURL:      getEnv("FLOO_API_URL", "http://localhost:8000"),
		StateDir:    getEnv("FLOO_STATE_DIR", defaultStateDir()),
		HTTPTimeout: getEnvDuration("FLOO_HTTP_TIMEOUT", 30*time.Second),

		DevPort:      getEnv("FLOO_DEV_PORT", "8000"),
		DevDBPath:    getEnv("FLOO_DEV_DB_PATH", "./data/floo.db"),
		DevJWTSecret: getEnv("FLOO_DEV_JWT_SECRET", "floo-dev-secret"),
		DevTokenTTL:  getEnvDuration("FLOO_DEV_TOKEN_TTL", 30*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate API URL
	if parsedURL, err := url.Parse(c.APIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	} else if parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': missing host", c.APIURL))
	}

	// Validate state directory
	if c.StateDir == "" {
		errors = append(errors, "state directory cannot be empty")
	} else if _, err := os.Stat(c.StateDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.StateDir, 0700); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create state directory '%s': %v", c.StateDir, err))
		}
	}

	// Validate HTTP timeout
	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	} else if c.HTTPTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 10 minutes", c.HTTPTimeout))
	}

	// Validate dev server port
	if port, err := strconv.Atoi(c.DevPort); err != nil {
		errors = append(errors, fmt.Sprintf("invalid dev server port '%s': must be a number", c.DevPort))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid dev server port %d: must be between 1 and 65535", port))
	}

	// Validate dev server database path
	if c.DevDBPath == "" {
		errors = append(errors, "dev server database path cannot be empty")
	} else {
		dir := filepath.Dir(c.DevDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create dev server database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate dev server auth settings
	if c.DevJWTSecret == "" {
		errors = append(errors, "dev server JWT secret cannot be empty")
	}
	if c.DevTokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.DevTokenTTL))
	} else if c.DevTokenTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be at most 24 hours", c.DevTokenTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func defaultStateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".floo"
	}
	return filepath.Join(base, "floo")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
