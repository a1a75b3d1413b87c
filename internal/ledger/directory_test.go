package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSeed struct {
	accounts []models.DefaultAccount
	err      error
}

func (s stubSeed) Load() ([]models.DefaultAccount, error) {
	return s.accounts, s.err
}

func newTestDirectory(t *testing.T, seed SeedSource) (*Directory, *store.Memory, *logging.MockLogger) {
	t.Helper()
	st := store.NewMemory()
	logger := logging.NewMockLogger()
	d := NewDirectory(st, seed, logger)
	d.now = func() time.Time { return fixedNow }
	return d, st, logger
}

func intPtr(v int) *int { return &v }

func TestEnsureDefaults_CreatesReservedAccounts(t *testing.T) {
	d, st, _ := newTestDirectory(t, nil)
	ctx := context.Background()

	accounts, err := d.EnsureDefaults(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Wallet", "Cash", "DebitCard", "CreditCard"}, models.AccountNames(accounts))

	byName := map[string]models.Account{}
	for _, a := range accounts {
		byName[a.Name] = a
	}
	assert.Equal(t, models.CurrencyCNY, byName["Wallet"].Currency)
	assert.Equal(t, models.CurrencyCAD, byName["DebitCard"].Currency)
	assert.Equal(t, models.AccountTypeLiability, byName["CreditCard"].Type)
	assert.Equal(t, models.CurrencyCAD, byName["CreditCard"].DisplayCurrency)
	assert.True(t, fixedNow.Equal(byName["Cash"].CreatedAt))

	// Second call is a no-op.
	again, err := d.EnsureDefaults(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, again, 4)

	stored, err := st.ListAccounts(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestEnsureDefaults_UsesSeed(t *testing.T) {
	seed := stubSeed{accounts: append(models.DefaultAccounts(), models.DefaultAccount{
		Name: "Savings", Type: models.AccountTypeAsset, Currency: models.CurrencyCAD, InitialBalance: dec("2500"),
	})}
	d, _, _ := newTestDirectory(t, seed)

	accounts, err := d.EnsureDefaults(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, accounts, 5)
	assert.Equal(t, "Savings", accounts[4].Name)
	assert.True(t, dec("2500").Equal(accounts[4].Balance))
	assert.True(t, dec("2500").Equal(accounts[4].InitialBalance))
}

func TestEnsureDefaults_SeedError(t *testing.T) {
	d, _, _ := newTestDirectory(t, stubSeed{err: errors.New("bad yaml")})

	_, err := d.EnsureDefaults(context.Background(), "u1")
	assert.Error(t, err)
}

func TestEnsureDefaults_CorrectsReservedType(t *testing.T) {
	d, st, logger := newTestDirectory(t, nil)
	ctx := context.Background()

	// A credit card stored as an asset, with 80 owed recorded as -80.
	unit, err := st.BeginAtomic(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, unit.CreateAccount(ctx, models.Account{
		Name: "CreditCard", Type: models.AccountTypeAsset, Currency: models.CurrencyCAD,
		Balance: dec("-80"), InitialBalance: dec("-20"),
	}))
	require.NoError(t, unit.Commit())

	accounts, err := d.EnsureDefaults(ctx, "u1")
	require.NoError(t, err)

	var card models.Account
	for _, a := range accounts {
		if a.Name == "CreditCard" {
			card = a
		}
	}
	assert.Equal(t, models.AccountTypeLiability, card.Type)
	assert.True(t, dec("80").Equal(card.Balance))
	assert.True(t, dec("20").Equal(card.InitialBalance))
	assert.True(t, logger.HasEntry("WARN", "Correcting type of reserved account"))

	// Applying the correction twice must not flip it back.
	logger.Clear()
	_, err = d.EnsureDefaults(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, logger.HasEntry("WARN", "Correcting type of reserved account"))
}

func TestCreateAccount(t *testing.T) {
	d, _, _ := newTestDirectory(t, nil)
	ctx := context.Background()
	_, err := d.EnsureDefaults(ctx, "u1")
	require.NoError(t, err)

	acc, err := d.CreateAccount(ctx, "u1", NewAccount{
		Name: " BMO ", Type: models.AccountTypeLiability, Currency: "cad", InitialBalance: dec("420"), DueDate: intPtr(12),
	})
	require.NoError(t, err)
	assert.Equal(t, "BMO", acc.Name)
	assert.Equal(t, models.CurrencyCAD, acc.Currency)
	assert.Equal(t, models.CurrencyCAD, acc.DisplayCurrency)
	assert.True(t, dec("420").Equal(acc.Balance))
	assert.Equal(t, 12, *acc.DueDate)

	_, err = d.CreateAccount(ctx, "u1", NewAccount{Name: "b_m_o", Type: models.AccountTypeLiability, Currency: "CAD"})
	assert.Equal(t, ledgererror.KindConflict, ledgererror.KindOf(err))
	assert.True(t, errors.Is(err, ledgererror.ErrDuplicateAccount))

	_, err = d.CreateAccount(ctx, "u1", NewAccount{Name: "credit-card", Type: models.AccountTypeLiability, Currency: "CAD"})
	assert.Equal(t, ledgererror.KindConflict, ledgererror.KindOf(err), "reserved names are taken")

	// Another user may reuse the name.
	_, err = d.CreateAccount(ctx, "u2", NewAccount{Name: "BMO", Type: models.AccountTypeLiability, Currency: "CNY", DisplayCurrency: "cad"})
	require.NoError(t, err)
}

func TestCreateAccount_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  NewAccount
	}{
		{"empty name", NewAccount{Name: "  ", Type: models.AccountTypeLiability, Currency: "CAD"}},
		{"separators only", NewAccount{Name: "--", Type: models.AccountTypeLiability, Currency: "CAD"}},
		{"bad type", NewAccount{Name: "X", Type: "equity", Currency: "CAD"}},
		{"bad currency", NewAccount{Name: "X", Type: models.AccountTypeLiability, Currency: "USD"}},
		{"bad display", NewAccount{Name: "X", Type: models.AccountTypeLiability, Currency: "CAD", DisplayCurrency: "JPY"}},
		{"due date on asset", NewAccount{Name: "X", Type: models.AccountTypeAsset, Currency: "CAD", DueDate: intPtr(5)}},
		{"due date out of range", NewAccount{Name: "X", Type: models.AccountTypeLiability, Currency: "CAD", DueDate: intPtr(32)}},
		{"due date zero", NewAccount{Name: "X", Type: models.AccountTypeLiability, Currency: "CAD", DueDate: intPtr(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, st, _ := newTestDirectory(t, nil)

			_, err := d.CreateAccount(context.Background(), "u1", tt.req)
			assert.Equal(t, ledgererror.KindValidation, ledgererror.KindOf(err))

			accounts, err := st.ListAccounts(context.Background(), "u1")
			require.NoError(t, err)
			assert.Empty(t, accounts)
		})
	}
}

func TestReconcile(t *testing.T) {
	d, st, _ := newTestDirectory(t, nil)
	ctx := context.Background()
	_, err := d.EnsureDefaults(ctx, "u1")
	require.NoError(t, err)

	balance := decimal.RequireFromString("1234.56")
	display := "cny"
	acc, err := d.Reconcile(ctx, "u1", "信用卡", AccountPatch{Balance: &balance, DisplayCurrency: &display, DueDate: intPtr(25)})
	require.NoError(t, err)
	assert.Equal(t, "CreditCard", acc.Name)
	assert.True(t, balance.Equal(acc.Balance))
	assert.True(t, acc.InitialBalance.IsZero(), "initial balance is never overwritten")
	assert.Equal(t, models.CurrencyCNY, acc.DisplayCurrency)
	assert.Equal(t, models.CurrencyCAD, acc.Currency)
	assert.Equal(t, 25, *acc.DueDate)

	acc, err = d.Reconcile(ctx, "u1", "CreditCard", AccountPatch{ClearDueDate: true, DueDate: intPtr(3)})
	require.NoError(t, err)
	assert.Nil(t, acc.DueDate)
	assert.True(t, balance.Equal(acc.Balance), "untouched fields stay")

	stored, err := st.ListAccounts(ctx, "u1")
	require.NoError(t, err)
	for _, a := range stored {
		if a.Name == "CreditCard" {
			assert.True(t, balance.Equal(a.Balance))
		}
	}
}

func TestReconcile_Errors(t *testing.T) {
	d, _, _ := newTestDirectory(t, nil)
	ctx := context.Background()
	_, err := d.EnsureDefaults(ctx, "u1")
	require.NoError(t, err)

	_, err = d.Reconcile(ctx, "u1", "unknownbank", AccountPatch{})
	assert.Equal(t, ledgererror.KindResolution, ledgererror.KindOf(err))

	_, err = d.Reconcile(ctx, "u1", "Cash", AccountPatch{DueDate: intPtr(10)})
	assert.Equal(t, ledgererror.KindValidation, ledgererror.KindOf(err))

	bad := "EUR"
	_, err = d.Reconcile(ctx, "u1", "Cash", AccountPatch{DisplayCurrency: &bad})
	assert.Equal(t, ledgererror.KindValidation, ledgererror.KindOf(err))
}
