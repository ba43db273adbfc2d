// Package config loads portal.yaml and applies PORTAL_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/supportportal/internal/utils"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Auth    AuthConfig    `yaml:"auth"`
	Query   QueryConfig   `yaml:"query"`
	Polling PollingConfig `yaml:"polling"`
	DB      DBConfig      `yaml:"db"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	PublicURL       string   `yaml:"public_url"`
	StaticDir       string   `yaml:"static_dir"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	SecureCookies   bool     `yaml:"secure_cookies"`
}

// BackendConfig selects how the portal reaches the actor. Kind is "http"
// (a JSON gateway at BaseURL) or "memory" (an in-process fake for local use).
type BackendConfig struct {
	Kind    string `yaml:"kind"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

type AuthConfig struct {
	Verifier    string `yaml:"verifier"`
	VerifierURL string `yaml:"verifier_url"`
	Secret      string `yaml:"secret"`
	SessionTTL  string `yaml:"session_ttl"`
	CookieName  string `yaml:"cookie_name"`
}

type QueryConfig struct {
	StaleTime string `yaml:"stale_time"`
	IdleTTL   string `yaml:"idle_ttl"`
}

type PollingConfig struct {
	Messages    string `yaml:"messages"`
	ActiveUsers string `yaml:"active_users"`
	Heartbeat   string `yaml:"heartbeat"`
}

type DBConfig struct {
	Path          string `yaml:"path"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

var (
	ValidBackends  = []string{"http", "memory"}
	ValidVerifiers = []string{"dev", "remote"}
)

const devSecret = "portal-dev-secret"

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			PublicURL:       "http://localhost:8080",
			ShutdownTimeout: "15s",
		},
		Backend: BackendConfig{
			Kind:    "memory",
			Timeout: "15s",
		},
		Auth: AuthConfig{
			Verifier:   "dev",
			Secret:     devSecret,
			SessionTTL: "168h",
			CookieName: "portal_session",
		},
		Query: QueryConfig{
			StaleTime: "30s",
			IdleTTL:   "30m",
		},
		Polling: PollingConfig{
			Messages:    "5s",
			ActiveUsers: "30s",
			Heartbeat:   "1m",
		},
		DB: DBConfig{
			Path: "data/portal.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Addr = utils.SafeEnv("PORTAL_ADDR", c.Server.Addr)
	c.Server.PublicURL = utils.SafeEnv("PORTAL_PUBLIC_URL", c.Server.PublicURL)
	c.Server.StaticDir = utils.SafeEnv("PORTAL_STATIC_DIR", c.Server.StaticDir)
	c.Server.SecureCookies = utils.EnvBool("PORTAL_SECURE_COOKIES", c.Server.SecureCookies)
	if v := utils.SafeEnv("PORTAL_ALLOWED_ORIGINS", ""); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	c.Backend.Kind = utils.SafeEnv("PORTAL_BACKEND", c.Backend.Kind)
	c.Backend.BaseURL = utils.SafeEnv("PORTAL_BACKEND_URL", c.Backend.BaseURL)
	c.Backend.Timeout = utils.SafeEnv("PORTAL_BACKEND_TIMEOUT", c.Backend.Timeout)
	c.Auth.Verifier = utils.SafeEnv("PORTAL_AUTH_VERIFIER", c.Auth.Verifier)
	c.Auth.VerifierURL = utils.SafeEnv("PORTAL_AUTH_VERIFIER_URL", c.Auth.VerifierURL)
	c.Auth.Secret = utils.SafeEnv("PORTAL_JWT_SECRET", c.Auth.Secret)
	c.Auth.SessionTTL = utils.SafeEnv("PORTAL_SESSION_TTL", c.Auth.SessionTTL)
	c.DB.Path = utils.SafeEnv("PORTAL_DB_PATH", c.DB.Path)
	c.DB.MigrationsDir = utils.SafeEnv("PORTAL_MIGRATIONS_DIR", c.DB.MigrationsDir)
	c.Logging.Level = utils.SafeEnv("PORTAL_LOG_LEVEL", c.Logging.Level)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Validate reports configuration that would make serve fail later.
func (c *Config) Validate() error {
	if !contains(ValidBackends, c.Backend.Kind) {
		return fmt.Errorf("invalid backend kind: %s (valid: %v)", c.Backend.Kind, ValidBackends)
	}
	if c.Backend.Kind == "http" && strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url is required for the http backend (set PORTAL_BACKEND_URL)")
	}
	if !contains(ValidVerifiers, c.Auth.Verifier) {
		return fmt.Errorf("invalid auth verifier: %s (valid: %v)", c.Auth.Verifier, ValidVerifiers)
	}
	if c.Auth.Verifier == "remote" && strings.TrimSpace(c.Auth.VerifierURL) == "" {
		return fmt.Errorf("auth.verifier_url is required for the remote verifier")
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return fmt.Errorf("auth.secret must not be empty")
	}
	return nil
}

// UsesDevSecret reports whether sessions are signed with the built-in secret.
func (c *Config) UsesDevSecret() bool { return c.Auth.Secret == devSecret }

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c *Config) GetBackendTimeout() time.Duration { return duration(c.Backend.Timeout, 15*time.Second) }
func (c *Config) GetSessionTTL() time.Duration     { return duration(c.Auth.SessionTTL, 168*time.Hour) }
func (c *Config) GetStaleTime() time.Duration      { return duration(c.Query.StaleTime, 30*time.Second) }
func (c *Config) GetIdleTTL() time.Duration        { return duration(c.Query.IdleTTL, 30*time.Minute) }
func (c *Config) GetMessagesPoll() time.Duration   { return duration(c.Polling.Messages, 5*time.Second) }
func (c *Config) GetActiveUsersPoll() time.Duration {
	return duration(c.Polling.ActiveUsers, 30*time.Second)
}
func (c *Config) GetHeartbeat() time.Duration { return duration(c.Polling.Heartbeat, time.Minute) }
func (c *Config) GetShutdownTimeout() time.Duration {
	return duration(c.Server.ShutdownTimeout, 15*time.Second)
}
