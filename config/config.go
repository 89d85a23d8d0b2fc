// Package config loads service configuration from YAML with environment
// variable overrides.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	DBPath    string          `yaml:"db_path"`
	Catalog   string          `yaml:"catalog"`
	MediaRoot string          `yaml:"media_root"`
	Media     MediaConfig     `yaml:"media"`
	Providers ProvidersConfig `yaml:"providers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// MediaConfig holds media resolution policy settings.
type MediaConfig struct {
	Screenshots    int `yaml:"screenshots"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ProviderConfig holds per-provider credentials and rate limits.
type ProviderConfig struct {
	APIKey        string `yaml:"api_key"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	MinIntervalMS int    `yaml:"min_interval_ms"`
	DailyLimit    int    `yaml:"daily_limit"`
}

// MinInterval returns the minimum spacing between requests to this provider.
func (p ProviderConfig) MinInterval() time.Duration {
	return time.Duration(p.MinIntervalMS) * time.Millisecond
}

// ProvidersConfig holds settings for each media provider.
type ProvidersConfig struct {
	RAWG       ProviderConfig `yaml:"rawg"`
	TheGamesDB ProviderConfig `yaml:"thegamesdb"`
	IGDB       ProviderConfig `yaml:"igdb"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server:    ServerConfig{Addr: ":8080"},
		Logging:   LoggingConfig{Format: "text", Level: "info"},
		DBPath:    "hiddengem.db",
		Catalog:   "games.tsv",
		MediaRoot: "media",
		Media:     MediaConfig{Screenshots: 4, TimeoutSeconds: 10},
		Providers: ProvidersConfig{
			RAWG:       ProviderConfig{MinIntervalMS: 200, DailyLimit: 1000},
			TheGamesDB: ProviderConfig{MinIntervalMS: 250, DailyLimit: 500},
			IGDB:       ProviderConfig{MinIntervalMS: 250, DailyLimit: 500},
		},
	}
}

// configPaths returns the list of paths to search for a config file.
func configPaths() []string {
	paths := []string{
		".hiddengem.yaml",
		".hiddengem.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "hiddengem", "config.yaml"),
			filepath.Join(home, ".config", "hiddengem", "config.yml"),
			filepath.Join(home, ".hiddengem.yaml"),
		)
	}

	return paths
}

// Load loads configuration from file or returns defaults.
// Priority: env HIDDENGEM_CONFIG > search paths > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if envPath := os.Getenv("HIDDENGEM_CONFIG"); envPath != "" {
		if err := cfg.loadFromFile(envPath); err != nil {
			return nil, err
		}
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadFromFile(path); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HIDDENGEM_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("HIDDENGEM_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("HIDDENGEM_CATALOG"); v != "" {
		c.Catalog = v
	}
	if v := os.Getenv("HIDDENGEM_MEDIA_ROOT"); v != "" {
		c.MediaRoot = v
	}
	if v := os.Getenv("RAWG_API_KEY"); v != "" {
		c.Providers.RAWG.APIKey = v
	}
	if v := os.Getenv("THEGAMESDB_API_KEY"); v != "" {
		c.Providers.TheGamesDB.APIKey = v
	}
	if v := os.Getenv("IGDB_CLIENT_ID"); v != "" {
		c.Providers.IGDB.ClientID = v
	}
	if v := os.Getenv("IGDB_CLIENT_SECRET"); v != "" {
		c.Providers.IGDB.ClientSecret = v
	}
}

// ScreenshotCount returns the desired screenshot count, applying defaults.
func (c *Config) ScreenshotCount() int {
	if c.Media.Screenshots > 0 {
		return c.Media.Screenshots
	}
	return 4
}

// ProviderTimeout returns the per-provider call timeout.
func (c *Config) ProviderTimeout() time.Duration {
	if c.Media.TimeoutSeconds > 0 {
		return time.Duration(c.Media.TimeoutSeconds) * time.Second
	}
	return 10 * time.Second
}
