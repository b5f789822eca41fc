package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		APIURL:       "http://localhost:8000",
		StateDir:     t.TempDir(),
		HTTPTimeout:  30 * time.Second,
		DevPort:      "8000",
		DevDBPath:    "./test.db",
		DevJWTSecret: "test-secret",
		DevTokenTTL:  30 * time.Minute,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:        "invalid API URL scheme",
			mutate:      func(c *Config) { c.APIURL = "ftp://localhost:8000" },
			wantErr:     true,
			errorString: "invalid API URL scheme 'ftp': must be 'http' or 'https'",
		},
		{
			name:        "API URL missing host",
			mutate:      func(c *Config) { c.APIURL = "http://" },
			wantErr:     true,
			errorString: "missing host",
		},
		{
			name:        "empty state directory",
			mutate:      func(c *Config) { c.StateDir = "" },
			wantErr:     true,
			errorString: "state directory cannot be empty",
		},
		{
			name:        "HTTP timeout too short",
			mutate:      func(c *Config) { c.HTTPTimeout = 100 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid HTTP timeout 100ms: must be at least 1 second",
		},
		{
			name:        "HTTP timeout too long",
			mutate:      func(c *Config) { c.HTTPTimeout = 15 * time.Minute },
			wantErr:     true,
			errorString: "must be at most 10 minutes",
		},
		{
			name:        "invalid dev port - non-numeric",
			mutate:      func(c *Config) { c.DevPort = "abc" },
			wantErr:     true,
			errorString: "invalid dev server port 'abc': must be a number",
		},
		{
			name:        "invalid dev port - out of range",
			mutate:      func(c *Config) { c.DevPort = "70000" },
			wantErr:     true,
			errorString: "invalid dev server port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty dev database path",
			mutate:      func(c *Config) { c.DevDBPath = "" },
			wantErr:     true,
			errorString: "dev server database path cannot be empty",
		},
		{
			name:        "empty JWT secret",
			mutate:      func(c *Config) { c.DevJWTSecret = "" },
			wantErr:     true,
			errorString: "dev server JWT secret cannot be empty",
		},
		{
			name:        "token TTL too short",
			mutate:      func(c *Config) { c.DevTokenTTL = 10 * time.Second },
			wantErr:     true,
			errorString: "invalid token TTL 10s: must be at least 1 minute",
		},
		{
			name:        "token TTL too long",
			mutate:      func(c *Config) { c.DevTokenTTL = 48 * time.Hour },
			wantErr:     true,
			errorString: "must be at most 24 hours",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_Validate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.APIURL = "ftp://localhost"
	cfg.DevPort = "abc"
	cfg.DevJWTSecret = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	for _, want := range []string{
		"invalid API URL scheme",
		"invalid dev server port",
		"dev server JWT secret cannot be empty",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q:\n%v", want, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"FLOO_API_URL", "FLOO_STATE_DIR", "FLOO_HTTP_TIMEOUT",
		"FLOO_DEV_PORT", "FLOO_DEV_DB_PATH", "FLOO_DEV_JWT_SECRET", "FLOO_DEV_TOKEN_TTL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.DevPort != "8000" {
		t.Errorf("DevPort = %q, want 8000", cfg.DevPort)
	}
	if cfg.DevTokenTTL != 30*time.Minute {
		t.Errorf("DevTokenTTL = %v, want 30m", cfg.DevTokenTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FLOO_API_URL", "https://api.example.com")
	t.Setenv("FLOO_HTTP_TIMEOUT", "5s")
	t.Setenv("FLOO_DEV_TOKEN_TTL", "1h")

	cfg := Load()
	if cfg.APIURL != "https://api.example.com" {
		t.Errorf("APIURL = %q, want env override", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v, want 5s", cfg.HTTPTimeout)
	}
	if cfg.DevTokenTTL != time.Hour {
		t.Errorf("DevTokenTTL = %v, want 1h", cfg.DevTokenTTL)
	}
}

func TestGetEnvDuration_Invalid(t *testing.T) {
	t.Setenv("FLOO_HTTP_TIMEOUT", "not-a-duration")

	cfg := Load()
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want fallback 30s", cfg.HTTPTimeout)
	}
}
