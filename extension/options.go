package extension

import (
	"time"

	"github.com/xraph/larder"
	"github.com/xraph/larder/plugin"
	"github.com/xraph/larder/store"
)

// Option configures the Larder Forge extension.
type Option func(*Extension)

// WithStore sets the store for the larder engine. It takes precedence over
// the store section of the configuration.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLarderOption passes a larder.Option through to the underlying engine.
func WithLarderOption(opt larder.Option) Option {
	return func(e *Extension) {
		e.larderOpts = append(e.larderOpts, opt)
	}
}

// WithPlugin registers a larder plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.larderOpts = append(e.larderOpts, larder.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithConfigFile loads the configuration from a YAML file. A file that
// cannot be read leaves the configuration untouched and is reported by
// Register.
func WithConfigFile(path string) Option {
	return func(e *Extension) {
		cfg, err := LoadConfigFile(path)
		if err != nil {
			e.configErr = err
			return
		}
		e.config = cfg
	}
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDisableAutoSave turns off persisting after every operation.
func WithDisableAutoSave() Option {
	return func(e *Extension) { e.config.DisableAutoSave = true }
}

// WithProfile sets the snapshot profile loaded on start.
func WithProfile(name string) Option {
	return func(e *Extension) { e.config.Profile = name }
}

// WithNegativeStock allows consumption past lot-backed stock.
func WithNegativeStock() Option {
	return func(e *Extension) { e.config.AllowNegativeStock = true }
}

// WithArchiveRetention sets how long depleted lots are kept.
func WithArchiveRetention(d time.Duration) Option {
	return func(e *Extension) { e.config.ArchiveRetention = d }
}

// WithCurrency sets the display currency code.
func WithCurrency(code string) Option {
	return func(e *Extension) { e.config.Currency = code }
}

// WithStoreConfig selects the snapshot backend opened at Register time.
func WithStoreConfig(cfg StoreConfig) Option {
	return func(e *Extension) { e.config.Store = cfg }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
