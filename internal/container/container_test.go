package container

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/spend-ledger/internal/classifier"
	"fjacquet/spend-ledger/internal/config"
	"fjacquet/spend-ledger/internal/fxrate"
	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Storage.Driver = config.StorageSQLite
	cfg.Storage.Path = filepath.Join(dir, "ledger.db")
	cfg.AI.TimeoutSeconds = 1
	cfg.FX.TimeoutSeconds = 1
	cfg.FX.FallbackRate = 5.2
	cfg.FX.CachePath = filepath.Join(dir, "fx.db")
	cfg.Ledger.DisplayCurrency = models.CurrencyCAD
	cfg.Ledger.SeedFile = filepath.Join(dir, "accounts.yaml")
	cfg.Summary.DefaultMonths = 6
	cfg.Summary.MaxMonths = 24
	cfg.Server.RequestTimeoutSeconds = 30
	cfg.Export.Delimiter = ","
	return cfg
}

func TestNewContainer_NilConfig(t *testing.T) {
	_, err := NewContainer(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration cannot be nil")
}

func TestNewContainer_SQLiteWithoutAI(t *testing.T) {
	logger := logging.NewMockLogger()
	c, err := NewContainer(context.Background(), testConfig(t), WithLogger(logger))
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	assert.IsType(t, &store.SQLite{}, c.GetStore())
	assert.IsType(t, &classifier.Resilient{}, c.GetClassifier())
	assert.IsType(t, fxrate.Fixed{}, c.GetRates())
	assert.NotNil(t, c.GetService())
	assert.Same(t, logger, c.GetLogger())
	assert.True(t, logger.HasEntry("INFO", "AI classification disabled, every entry uses the fallback guess"))
	assert.True(t, logger.HasEntry("DEBUG", "Opened ledger store"))
	assert.Equal(t, c.GetConfig().Storage.Path, c.GetStore().(*store.SQLite).Path())

	// With no classifier every entry is the degraded guess, end to end through SQLite.
	res, err := c.GetService().SubmitText(context.Background(), "u1", "groceries 42.10")
	require.NoError(t, err)
	assert.True(t, res.Transaction.Degraded)
	assert.Equal(t, models.AccountDebitCard, res.Transaction.Account)
}

func TestNewContainer_ModelClientAndFX(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = config.StorageMemory
	cfg.AI.Enabled = true
	cfg.FX.Enabled = true
	cfg.FX.BaseURL = "http://127.0.0.1:1"

	client := &classifier.MockModelClient{}
	client.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return `{"amount": 18, "type": "expense", "category": "Transport", "account": "cash"}`, nil
	}

	c, err := NewContainer(context.Background(), cfg, WithLogger(logging.NewMockLogger()), WithModelClient(client))
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &store.Memory{}, c.GetStore())
	assert.IsType(t, &fxrate.Chain{}, c.GetRates())

	res, err := c.GetService().SubmitText(context.Background(), "u1", "taxi 18 cash")
	require.NoError(t, err)
	assert.False(t, res.Transaction.Degraded)
	assert.Equal(t, models.AccountCash, res.Transaction.Account)
	assert.Equal(t, 1, client.CallCount)

	// The live endpoint is unreachable, so valuation uses the fallback rate.
	view, err := c.GetService().ListAccounts(context.Background(), "u1", "CNY")
	require.NoError(t, err)
	assert.Equal(t, "5.2", view.Rate.Value.String())
}

func TestNewContainer_WithStore(t *testing.T) {
	st := store.NewMemory()
	c, err := NewContainer(context.Background(), testConfig(t), WithStore(st), WithLogger(logging.NewMockLogger()))
	require.NoError(t, err)

	assert.Same(t, st, c.GetStore())
	assert.NoError(t, c.Close())
}

func TestNewContainer_BadStoragePath(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, writeFile(blocker))
	cfg.Storage.Path = filepath.Join(blocker, "ledger.db")

	_, err := NewContainer(context.Background(), cfg, WithLogger(logging.NewMockLogger()))
	assert.Error(t, err)
}

func TestContainer_CloseJoinsErrors(t *testing.T) {
	first := errors.New("first")
	c := &Container{closers: []func() error{
		func() error { return first },
		func() error { return nil },
	}}

	err := c.Close()
	assert.ErrorIs(t, err, first)
	assert.NoError(t, c.Close())
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0o600)
}
