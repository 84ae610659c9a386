// Package config loads the fabric's single YAML configuration document,
// grounded on the teacher's gopkg.in/yaml.v3 usage. Reading secrets from a
// vault, parsing CLI flags, or watching for hot reload are all out of
// scope (spec.md §1 excludes "configuration loading" generally) — this
// package only shapes the struct every component constructor expects.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the environment variable cmd/lute reads to locate
// the YAML document.
const ConfigPathEnv = "LUTE_CONFIG_PATH"

// RedisConfig configures the crawler's Redis connection pool.
type RedisConfig struct {
	Addr              string        `yaml:"addr"`
	Password          string        `yaml:"password"`
	DB                int           `yaml:"db"`
	PoolSize          int           `yaml:"pool_size"`
	MinIdleConns      int           `yaml:"min_idle_conns"`
	PoolTimeout       time.Duration `yaml:"pool_timeout"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// CrawlerConfig tunes CrawlerCore.
type CrawlerConfig struct {
	MaxRequestsPerWindow int64         `yaml:"max_requests_per_window"`
	WindowInterval       time.Duration `yaml:"window_interval"`
	ClaimTTL             time.Duration `yaml:"claim_ttl"`
}

// ProviderConfig describes one enabled embedding provider. A provider is
// enabled by listing it here. APIKeyEnv names an environment variable for
// the provider's API key; nothing in this module reads it, and the
// providers built from this list do not use an API key.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Dimensions  int           `yaml:"dimensions"`
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	Interval    time.Duration `yaml:"interval"`
}

// Config is the top-level document read from ConfigPathEnv.
type Config struct {
	DataDir    string           `yaml:"data_dir"`
	ListenAddr string           `yaml:"listen_addr"`
	HealthAddr string           `yaml:"health_addr"`
	LogLevel   string           `yaml:"log_level"`
	LogJSON    bool             `yaml:"log_json"`
	Redis      RedisConfig      `yaml:"redis"`
	Crawler    CrawlerConfig    `yaml:"crawler"`
	Providers  []ProviderConfig `yaml:"providers"`
}

// Default returns the configuration used when no document is supplied,
// suitable for local development against a Redis instance on its default
// port.
func Default() Config {
	return Config{
		DataDir:    "./data",
		ListenAddr: "0.0.0.0:7700",
		HealthAddr: "0.0.0.0:7701",
		LogLevel:   "info",
		Redis: RedisConfig{
			Addr:              "127.0.0.1:6379",
			PoolSize:          10,
			MinIdleConns:      2,
			PoolTimeout:       4 * time.Second,
			ConnectionTimeout: 5 * time.Second,
		},
		Crawler: CrawlerConfig{
			MaxRequestsPerWindow: 10,
			WindowInterval:       time.Minute,
			ClaimTTL:             2 * time.Minute,
		},
	}
}

// Load reads and parses the YAML document at path, applying Default()
// as the base so a partial document only overrides what it sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv reads the path named by ConfigPathEnv. If the variable is
// unset, it returns Default() rather than failing, so the process can
// start against local defaults without a mounted config file.
func LoadFromEnv() (Config, error) {
	path := os.Getenv(ConfigPathEnv)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
