package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/claude/coachengine/internal/sweep"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Cache     CacheConfig     `yaml:"cache"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Engine    EngineConfig    `yaml:"engine"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// CacheConfig controls the SQLite result cache. Path is a directory.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type SweepConfig struct {
	Enabled bool   `yaml:"enabled"`
	Spec    string `yaml:"spec"`
}

type EngineConfig struct {
	DedupWindowHours int `yaml:"dedup_window_hours"`
}

// DedupWindow returns the insight deduplication window.
func (e EngineConfig) DedupWindow() time.Duration {
	return time.Duration(e.DedupWindowHours) * time.Hour
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix COACH_ and underscore-separated paths:
//
//	COACH_SERVER_HOST, COACH_SERVER_PORT,
//	COACH_DB_HOST, COACH_DB_PORT, COACH_DB_NAME,
//	COACH_DB_USER, COACH_DB_PASSWORD, COACH_DB_SSLMODE,
//	COACH_AUTH_API_KEY, COACH_CACHE_PATH, COACH_SWEEP_SPEC,
//	COACH_TAILSCALE_ENABLED
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COACH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("COACH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("COACH_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("COACH_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("COACH_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("COACH_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("COACH_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("COACH_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("COACH_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("COACH_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("COACH_SWEEP_SPEC"); v != "" {
		cfg.Sweep.Spec = v
	}
	if v := os.Getenv("COACH_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "coachengine-cache"
	}
	if cfg.Sweep.Spec == "" {
		cfg.Sweep.Spec = sweep.DefaultSpec
	}
	if cfg.Engine.DedupWindowHours == 0 {
		cfg.Engine.DedupWindowHours = 24
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "coachengine"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Engine.DedupWindowHours < 0 {
		return fmt.Errorf("engine.dedup_window_hours must not be negative")
	}
	if c.Sweep.Enabled {
		if err := sweep.ValidateSpec(c.Sweep.Spec); err != nil {
			return fmt.Errorf("sweep.spec: %w", err)
		}
	}
	return nil
}
