package extension

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the Larder extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.larder" or "larder" keys).
type Config struct {
	// DisableMigrate prevents auto-migration and profile loading on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableAutoSave stops the engine from persisting the snapshot after
	// every successful operation. Callers then invoke Save themselves.
	DisableAutoSave bool `json:"disable_auto_save" mapstructure:"disable_auto_save" yaml:"disable_auto_save"`

	// Profile is the snapshot profile loaded on start (default: "default").
	Profile string `json:"profile" mapstructure:"profile" yaml:"profile"`

	// AllowNegativeStock lets consumption run past lot-backed stock.
	AllowNegativeStock bool `json:"allow_negative_stock" mapstructure:"allow_negative_stock" yaml:"allow_negative_stock"`

	// ArchiveRetention is how long depleted lots are kept (default: 720h).
	ArchiveRetention time.Duration `json:"archive_retention" mapstructure:"archive_retention" yaml:"archive_retention"`

	// Currency is the display currency code (default: "xof").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// Store selects the snapshot backend opened at Register time when no
	// store was passed with WithStore.
	Store StoreConfig `json:"store" mapstructure:"store" yaml:"store"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// StoreConfig describes a snapshot backend.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres, mongo, redis or s3
	// (default: memory).
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// DSN is the connection string for sqlite, postgres and mongo, or the
	// server address for redis.
	DSN string `json:"dsn" mapstructure:"dsn" yaml:"dsn"`

	// Prefix namespaces keys in redis and s3.
	Prefix string `json:"prefix" mapstructure:"prefix" yaml:"prefix"`

	// S3 settings.
	Bucket          string `json:"bucket" mapstructure:"bucket" yaml:"bucket"`
	Region          string `json:"region" mapstructure:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" mapstructure:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" mapstructure:"secret_access_key" yaml:"secret_access_key"`
	PathStyle       bool   `json:"path_style" mapstructure:"path_style" yaml:"path_style"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Profile:          "default",
		ArchiveRetention: 30 * 24 * time.Hour,
		Currency:         "xof",
		Store:            StoreConfig{Driver: DriverMemory},
	}
}

// fileConfig is the document shape accepted by LoadConfigFile: either the
// settings at the top level or nested under a "larder" key.
type fileConfig struct {
	Larder *Config `yaml:"larder"`
}

// LoadConfigFile reads a YAML configuration file for hosts that do not run
// Forge. Missing fields are filled with DefaultConfig values.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("larder: read config %s: %w", path, err)
	}

	var nested fileConfig
	if err := yaml.Unmarshal(data, &nested); err != nil {
		return Config{}, fmt.Errorf("larder: parse config %s: %w", path, err)
	}

	cfg := Config{}
	if nested.Larder != nil {
		cfg = *nested.Larder
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("larder: parse config %s: %w", path, err)
	}

	return mergeWithDefaults(cfg), nil
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Profile == "" {
		cfg.Profile = defaults.Profile
	}
	if cfg.ArchiveRetention == 0 {
		cfg.ArchiveRetention = defaults.ArchiveRetention
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = defaults.Store.Driver
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableAutoSave {
		yamlConfig.DisableAutoSave = true
	}
	if programmaticConfig.AllowNegativeStock {
		yamlConfig.AllowNegativeStock = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Profile == "" {
		yamlConfig.Profile = programmaticConfig.Profile
	}
	if yamlConfig.Currency == "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}
	if yamlConfig.Store.Driver == "" {
		yamlConfig.Store = programmaticConfig.Store
	}

	if yamlConfig.ArchiveRetention == 0 && programmaticConfig.ArchiveRetention != 0 {
		yamlConfig.ArchiveRetention = programmaticConfig.ArchiveRetention
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
