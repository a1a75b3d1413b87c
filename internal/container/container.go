// Package container provides dependency injection for the spend-ledger application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/spend-ledger/internal/classifier"
	"fjacquet/spend-ledger/internal/config"
	"fjacquet/spend-ledger/internal/fxrate"
	"fjacquet/spend-ledger/internal/ledger"
	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/repayment"
	"fjacquet/spend-ledger/internal/service"
	"fjacquet/spend-ledger/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	store      store.Store
	classifier classifier.Classifier
	rates      fxrate.Provider
	service    *service.Service

	closers []func() error
}

// Option overrides a dependency, mostly for tests.
type Option func(*options)

type options struct {
	logger      logging.Logger
	store       store.Store
	modelClient classifier.ModelClient
}

// WithLogger replaces the logger built from the log section.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStore replaces the configured store. The container does not close it.
func WithStore(st store.Store) Option {
	return func(o *options) { o.store = st }
}

// WithModelClient replaces the Gemini client.
func WithModelClient(client classifier.ModelClient) Option {
	return func(o *options) { o.modelClient = client }
}

// NewContainer creates and wires all application dependencies.
// This is the main entry point for dependency injection in the application.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Create logger first as it's needed by other components
	logger := o.logger
	if logger == nil {
		logger = config.NewLogger(cfg)
	}

	c := &Container{logger: logger, config: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	st, err := c.openStore(o.store)
	if err != nil {
		return nil, err
	}
	c.store = st

	c.classifier, err = c.buildClassifier(ctx, o.modelClient)
	if err != nil {
		return nil, err
	}

	c.rates, err = c.buildRates()
	if err != nil {
		return nil, err
	}

	seed := store.NewSeedFile(cfg.Ledger.SeedFile, logger)
	directory := ledger.NewDirectory(st, seed, logger)
	mutator := ledger.NewMutator(st, logger)

	c.service = service.New(st, directory, mutator, c.classifier, repayment.NewRule(), c.rates, logger, service.Options{
		DisplayCurrency:  cfg.Ledger.DisplayCurrency,
		MaxSummaryMonths: cfg.Summary.MaxMonths,
	})

	logger.Info("Container initialized successfully",
		logging.Field{Key: "storage_driver", Value: cfg.Storage.Driver},
		logging.Field{Key: "ai_enabled", Value: cfg.AI.Enabled},
		logging.Field{Key: "fx_enabled", Value: cfg.FX.Enabled})

	ok = true
	return c, nil
}

func (c *Container) openStore(override store.Store) (store.Store, error) {
	if override != nil {
		return override, nil
	}

	switch c.config.Storage.Driver {
	case config.StorageMemory:
		c.logger.Warn("Using in-memory storage, data will not survive a restart")
		return store.NewMemory(), nil
	default:
		st, err := store.OpenSQLite(c.config.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger store: %w", err)
		}
		c.closers = append(c.closers, st.Close)
		c.logger.Debug("Opened ledger store", logging.Field{Key: logging.FieldPath, Value: st.Path()})
		return st, nil
	}
}

func (c *Container) buildClassifier(ctx context.Context, override classifier.ModelClient) (classifier.Classifier, error) {
	timeout := time.Duration(c.config.AI.TimeoutSeconds) * time.Second

	client := override
	if client == nil && c.config.AI.Enabled && c.config.AI.APIKey != "" {
		gemini, err := classifier.NewGeminiClient(ctx, c.config.AI.APIKey, c.config.AI.Model)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, gemini.Close)
		client = gemini
	}

	if client == nil {
		c.logger.Info("AI classification disabled, every entry uses the fallback guess")
		return classifier.NewResilient(nil, timeout, c.logger), nil
	}
	c.logger.Info("AI classification enabled", logging.Field{Key: "model", Value: c.config.AI.Model})
	return classifier.NewResilient(classifier.NewModelClassifier(client, c.logger), timeout, c.logger), nil
}

func (c *Container) buildRates() (fxrate.Provider, error) {
	fallback := fxrate.Fixed{
		From:  models.CurrencyCAD,
		To:    models.CurrencyCNY,
		Value: decimal.NewFromFloat(c.config.FX.FallbackRate),
	}
	if !c.config.FX.Enabled {
		return fallback, nil
	}

	timeout := time.Duration(c.config.FX.TimeoutSeconds) * time.Second
	live := fxrate.NewHTTPProvider(c.config.FX.BaseURL, &http.Client{Timeout: timeout})

	var cache fxrate.Cache
	bolt, err := fxrate.OpenBoltCache(c.config.FX.CachePath)
	if err != nil {
		c.logger.WithError(err).Warn("Exchange rate cache unavailable")
	} else {
		c.closers = append(c.closers, bolt.Close)
		cache = bolt
	}

	return fxrate.NewChain(live, cache, fallback, timeout, c.logger), nil
}

// GetLogger returns the configured logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the application configuration.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the ledger store.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetClassifier returns the text classifier.
func (c *Container) GetClassifier() classifier.Classifier {
	return c.classifier
}

// GetRates returns the exchange rate provider.
func (c *Container) GetRates() fxrate.Provider {
	return c.rates
}

// GetService returns the ledger service.
func (c *Container) GetService() *service.Service {
	return c.service
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
