// Package config loads the deployment configuration from a YAML file.
// Environment references in the file (${VAR}) are expanded before
// parsing so credentials can stay out of the file itself.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	OAuth2 struct {
		// StateBytes is the entropy of generated anti-CSRF state tokens.
		StateBytes int `yaml:"state_bytes"`
		// ReturnURL is the default post-authorization redirect.
		ReturnURL        string `yaml:"return_url"`
		SessionStateKey  string `yaml:"session_state_key"`
		SessionReturnKey string `yaml:"session_return_key"`
	} `yaml:"oauth2"`

	Session struct {
		CookieName string        `yaml:"cookie_name"`
		Secure     bool          `yaml:"secure"`
		TTL        time.Duration `yaml:"ttl"`
	} `yaml:"session"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int32         `yaml:"max_conns"`
			MinConns        int32         `yaml:"min_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL time.Duration `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	// Clients seeds the client store at startup. Client administration
	// is otherwise out of band.
	Clients []ClientConfig `yaml:"clients"`
}

// ClientConfig is one seeded OAuth2 client.
type ClientConfig struct {
	Name          string `yaml:"name"`
	Provider      string `yaml:"provider"`
	Enabled       *bool  `yaml:"enabled"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	ScopeOverride string `yaml:"scope_override"`
}

// IsEnabled defaults to true when the field is omitted.
func (c ClientConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := expandEnv(string(raw))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references only. A lone $ or a braceless
// $VAR passes through untouched so seeded secrets may contain the
// character literally.
func expandEnv(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// Default returns the built-in defaults, used directly when no config
// file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.App.Env = "dev"
	cfg.App.LogLevel = "info"
	cfg.Server.Addr = ":8080"
	cfg.OAuth2.StateBytes = 32
	cfg.OAuth2.ReturnURL = "/"
	cfg.OAuth2.SessionStateKey = "oauth2_state"
	cfg.OAuth2.SessionReturnKey = "oauth2_return_url"
	cfg.Session.CookieName = "gm_session"
	cfg.Session.Secure = true
	cfg.Session.TTL = 24 * time.Hour
	cfg.Storage.Driver = "memory"
	cfg.Cache.Kind = "memory"
	return cfg
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: postgres storage requires a dsn")
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}
	seen := make(map[string]bool, len(c.Clients))
	for _, cl := range c.Clients {
		if cl.Name == "" || cl.Provider == "" {
			return fmt.Errorf("config: client entries need name and provider")
		}
		if seen[cl.Name] {
			return fmt.Errorf("config: duplicate client name %q", cl.Name)
		}
		seen[cl.Name] = true
	}
	return nil
}
