package larder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/larder/finished"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/plugin"
	"github.com/xraph/larder/production"
	"github.com/xraph/larder/store"
)

// Default settings.
const (
	DefaultProfile          = "default"
	DefaultArchiveRetention = 30 * 24 * time.Hour
	DefaultCurrency         = "xof"
)

// Larder is the inventory ledger engine. It owns the ledger state of one
// profile at a time and is the only way to change it.
//
// Operations are serialized: each runs to completion against a private
// copy of the state, which replaces the live state only once the whole
// operation succeeded and, with autosave on, was persisted. Queries never
// observe a half-applied operation.
type Larder struct {
	mu sync.RWMutex
	st *state

	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	// Configuration
	profile       string
	allowNegative bool
	retention     time.Duration
	currency      string
	autoSave      bool
}

// New creates a new Larder instance backed by s.
func New(s store.Store, opts ...Option) *Larder {
	l := &Larder{
		st:        newState(),
		store:     s,
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		clock:     time.Now,
		profile:   DefaultProfile,
		retention: DefaultArchiveRetention,
		currency:  DefaultCurrency,
		autoSave:  true,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Larder instance.
type Option func(*Larder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Larder) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Larder) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithProfile selects the profile loaded by Start.
func WithProfile(profile string) Option {
	return func(l *Larder) {
		if profile != "" {
			l.profile = profile
		}
	}
}

// WithNegativeStock allows consumption beyond lot-backed stock. The
// shortfall is carried as a negative balance until the next receipt.
func WithNegativeStock(allow bool) Option {
	return func(l *Larder) {
		l.allowNegative = allow
	}
}

// WithArchiveRetention sets how long a depleted lot is kept before
// ArchiveDepletedLots removes it.
func WithArchiveRetention(d time.Duration) Option {
	return func(l *Larder) {
		if d >= 0 {
			l.retention = d
		}
	}
}

// WithCurrency sets the currency code used when formatting amounts.
func WithCurrency(code string) Option {
	return func(l *Larder) {
		if code != "" {
			l.currency = code
		}
	}
}

// WithAutoSave controls whether every successful operation persists the
// snapshot before it is committed.
func WithAutoSave(enabled bool) Option {
	return func(l *Larder) {
		l.autoSave = enabled
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Larder) {
		if now != nil {
			l.clock = now
		}
	}
}

// Start migrates the store, loads the configured profile and initializes
// plugins.
func (l *Larder) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return fmt.Errorf("larder: migrate store: %w", err)
	}

	if err := l.Load(ctx, l.Profile()); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("larder started",
		"profile", l.Profile(),
		"negative_stock", l.allowNegative,
		"archive_retention", l.retention,
		"autosave", l.autoSave,
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Larder) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// Profile returns the active profile.
func (l *Larder) Profile() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.profile
}

// Currency returns the configured currency code.
func (l *Larder) Currency() string { return l.currency }

// NegativeStockAllowed reports whether negative stock is enabled.
func (l *Larder) NegativeStockAllowed() bool { return l.allowNegative }

// Plugins returns the plugin registry.
func (l *Larder) Plugins() *plugin.Registry { return l.plugins }

// Store returns the underlying store.
func (l *Larder) Store() store.Store { return l.store }

// Format renders an amount in the configured currency.
func (l *Larder) Format(m Money) string { return m.Format(l.currency) }

func (l *Larder) now() time.Time { return l.clock().UTC() }

// ──────────────────────────────────────────────────
// State
// ──────────────────────────────────────────────────

// state is one consistent version of the ledger. A committed state is
// never modified; transactions clone what they change.
type state struct {
	ingredients map[id.IngredientID]*ingredient.Ingredient
	batches     map[id.BatchID]*production.Batch
	journal     *movement.Journal
	finished    finished.Pool
}

func newState() *state {
	return &state{
		ingredients: make(map[id.IngredientID]*ingredient.Ingredient),
		batches:     make(map[id.BatchID]*production.Batch),
		journal:     movement.NewJournal(),
	}
}
