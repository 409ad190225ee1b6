// Package extension provides the Forge extension adapter for Larder.
//
// It implements the forge.Extension interface to integrate Larder
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions,
// via YAML configuration files under "extensions.larder" or "larder" keys,
// or from a standalone file with LoadConfigFile.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/larder"
	"github.com/xraph/larder/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "larder"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Lot-based raw-material inventory ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Larder as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	configErr  error
	engine     *larder.Larder
	store      store.Store
	larderOpts []larder.Option
}

// New creates a new Larder Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Larder instance.
// This is nil until Register is called.
func (e *Extension) Engine() *larder.Larder { return e.engine }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration,
// opens the store, initializes the larder engine, and registers it in
// the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Open the configured store if none was provided programmatically.
	if e.store == nil {
		s, err := OpenStore(context.Background(), e.config.Store)
		if err != nil {
			return err
		}
		e.store = s
	}

	e.engine = larder.New(e.store, buildLarderOpts(e.config, e.larderOpts)...)

	return vessel.Provide(fapp.Container(), func() (*larder.Larder, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("larder: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension]. Stopping the engine closes the store.
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("larder: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLarderOpts constructs larder.Option values from the resolved config.
// Pass-through options are applied last so they win over config values.
func buildLarderOpts(cfg Config, extra []larder.Option) []larder.Option {
	opts := make([]larder.Option, 0, len(extra)+5)

	opts = append(opts,
		larder.WithProfile(cfg.Profile),
		larder.WithNegativeStock(cfg.AllowNegativeStock),
		larder.WithCurrency(cfg.Currency),
		larder.WithAutoSave(!cfg.DisableAutoSave),
	)
	if cfg.ArchiveRetention > 0 {
		opts = append(opts, larder.WithArchiveRetention(cfg.ArchiveRetention))
	}

	return append(opts, extra...)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	if e.configErr != nil {
		return e.configErr
	}

	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("larder: configuration is required but not found in config files; " +
				"ensure 'extensions.larder' or 'larder' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("larder: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_auto_save", e.config.DisableAutoSave),
		forge.F("profile", e.config.Profile),
		forge.F("allow_negative_stock", e.config.AllowNegativeStock),
		forge.F("archive_retention", e.config.ArchiveRetention),
		forge.F("currency", e.config.Currency),
		forge.F("store_driver", e.config.Store.Driver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	// "extensions.larder" first (namespaced pattern), then the legacy key.
	for _, key := range []string{"extensions.larder", "larder"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("larder: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("larder: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}
