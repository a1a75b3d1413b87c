package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fjacquet/spend-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func newAccount(name string, typ models.AccountType, currency, balance string) models.Account {
	b := decimal.RequireFromString(balance)
	return models.Account{
		Name:            name,
		Type:            typ,
		Currency:        currency,
		DisplayCurrency: currency,
		Balance:         b,
		InitialBalance:  b,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}
}

func newTransaction(id, account, target string, amount string, date time.Time) models.Transaction {
	typ := models.TransactionTypeExpense
	if target != "" {
		typ = models.TransactionTypeTransfer
	}
	return models.Transaction{
		ID:            id,
		Amount:        decimal.RequireFromString(amount),
		Type:          typ,
		Category:      "Food",
		Account:       account,
		TargetAccount: target,
		Date:          date,
		Note:          "lunch",
		CreatedAt:     testNow,
	}
}

func seedAccounts(t *testing.T, s Store, userID string, accounts ...models.Account) {
	t.Helper()
	ctx := context.Background()
	a, err := s.BeginAtomic(ctx, userID)
	require.NoError(t, err)
	defer a.Rollback()
	for _, acc := range accounts {
		require.NoError(t, a.CreateAccount(ctx, acc))
	}
	require.NoError(t, a.Commit())
}

// storeFactories runs every test against both implementations.
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemory()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "ledger.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStore_CreateAndList(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			due := 15
			card := newAccount("CreditCard", models.AccountTypeLiability, models.CurrencyCAD, "0")
			card.DueDate = &due
			seedAccounts(t, s, "alice",
				newAccount("DebitCard", models.AccountTypeAsset, models.CurrencyCAD, "1000.50"),
				card,
			)
			seedAccounts(t, s, "bob", newAccount("Wallet", models.AccountTypeAsset, models.CurrencyCNY, "10"))

			accounts, err := s.ListAccounts(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, accounts, 2)
			assert.Equal(t, "DebitCard", accounts[0].Name)
			assert.Equal(t, "alice", accounts[0].UserID)
			assert.True(t, decimal.RequireFromString("1000.50").Equal(accounts[0].Balance))
			assert.Equal(t, "CreditCard", accounts[1].Name)
			assert.Equal(t, models.AccountTypeLiability, accounts[1].Type)
			require.NotNil(t, accounts[1].DueDate)
			assert.Equal(t, 15, *accounts[1].DueDate)
			assert.True(t, testNow.Equal(accounts[1].CreatedAt))

			other, err := s.ListAccounts(ctx, "bob")
			require.NoError(t, err)
			assert.Equal(t, []string{"Wallet"}, models.AccountNames(other))

			empty, err := s.ListAccounts(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStore_DuplicateAccount(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			seedAccounts(t, s, "alice", newAccount("Cash", models.AccountTypeAsset, models.CurrencyCAD, "0"))

			a, err := s.BeginAtomic(ctx, "alice")
			require.NoError(t, err)
			defer a.Rollback()

			err = a.CreateAccount(ctx, newAccount("Cash", models.AccountTypeAsset, models.CurrencyCAD, "5"))
			assert.True(t, errors.Is(err, ErrDuplicate))
		})
	}
}

func TestStore_AtomicCommitAndRollback(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			seedAccounts(t, s, "alice", newAccount("DebitCard", models.AccountTypeAsset, models.CurrencyCAD, "100"))

			// Rolled back work leaves nothing behind.
			a, err := s.BeginAtomic(ctx, "alice")
			require.NoError(t, err)
			acc, err := a.GetAccount(ctx, "DebitCard")
			require.NoError(t, err)
			acc.Balance = decimal.NewFromInt(60)
			require.NoError(t, a.UpdateAccount(ctx, acc))
			require.NoError(t, a.InsertTransaction(ctx, newTransaction("t1", "DebitCard", "", "40", testNow)))

			staged, err := a.GetAccount(ctx, "DebitCard")
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(60).Equal(staged.Balance), "handle sees its own writes")

			require.NoError(t, a.Rollback())
			require.NoError(t, a.Rollback(), "second rollback is a no-op")

			accounts, err := s.ListAccounts(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(100).Equal(accounts[0].Balance))
			txs, err := s.ListTransactions(ctx, "alice", time.Time{}, time.Time{})
			require.NoError(t, err)
			assert.Empty(t, txs)

			// Committed work is visible.
			a, err = s.BeginAtomic(ctx, "alice")
			require.NoError(t, err)
			require.NoError(t, a.UpdateAccount(ctx, acc))
			require.NoError(t, a.InsertTransaction(ctx, newTransaction("t1", "DebitCard", "", "40", testNow)))
			require.NoError(t, a.Commit())
			require.NoError(t, a.Rollback(), "rollback after commit is a no-op")

			accounts, err = s.ListAccounts(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(60).Equal(accounts[0].Balance))
			txs, err = s.ListTransactions(ctx, "alice", time.Time{}, time.Time{})
			require.NoError(t, err)
			require.Len(t, txs, 1)
			assert.Equal(t, "t1", txs[0].ID)
			assert.Equal(t, "alice", txs[0].UserID)
			assert.True(t, decimal.NewFromInt(40).Equal(txs[0].Amount))
			assert.Equal(t, "lunch", txs[0].Note)
		})
	}
}

func TestStore_HandleClosedAfterCommit(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			a, err := s.BeginAtomic(ctx, "alice")
			require.NoError(t, err)
			require.NoError(t, a.Commit())

			_, err = a.GetAccount(ctx, "DebitCard")
			assert.True(t, errors.Is(err, ErrClosed))
			assert.True(t, errors.Is(a.Commit(), ErrClosed))
		})
	}
}

func TestStore_InsertFailureKeepsBalances(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			seedAccounts(t, s, "alice", newAccount("DebitCard", models.AccountTypeAsset, models.CurrencyCAD, "100"))

			a, err := s.BeginAtomic(ctx, "alice")
			require.NoError(t, err)
			require.NoError(t, a.InsertTransaction(ctx, newTransaction("dup", "DebitCard", "", "1", testNow)))
			require.NoError(t, a.Commit())

			a, err = s.BeginAtomic(ctx, "alice")
			require.NoError(t, err)
			acc, err := a.GetAccount(ctx, "DebitCard")
			require.NoError(t, err)
			acc.Balance = decimal.NewFromInt(0)
			require.NoError(t, a.UpdateAccount(ctx, acc))

			err = a.InsertTransaction(ctx, newTransaction("dup", "DebitCard", "", "100", testNow))
			assert.True(t, errors.Is(err, ErrDuplicate))
			require.NoError(t, a.Rollback())

			accounts, err := s.ListAccounts(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(100).Equal(accounts[0].Balance))
		})
	}
}

func TestStore_InsertUnknownAccount(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			seedAccounts(t, s, "alice", newAccount("DebitCard", models.AccountTypeAsset, models.CurrencyCAD, "0"))
			seedAccounts(t, s, "bob", newAccount("Cash", models.AccountTypeAsset, models.CurrencyCAD, "0"))

			a, err := s.BeginAtomic(ctx, "alice")
			require.NoError(t, err)
			defer a.Rollback()

			err = a.InsertTransaction(ctx, newTransaction("t1", "Cash", "", "1", testNow))
			assert.True(t, errors.Is(err, ErrNotFound), "accounts of another user are invisible")

			err = a.InsertTransaction(ctx, newTransaction("t2", "DebitCard", "Nowhere", "1", testNow))
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStore_UpdateUnknownAccount(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			a, err := s.BeginAtomic(ctx, "alice")
			require.NoError(t, err)
			defer a.Rollback()

			err = a.UpdateAccount(ctx, newAccount("Ghost", models.AccountTypeAsset, models.CurrencyCAD, "1"))
			assert.True(t, errors.Is(err, ErrNotFound))
			_, err = a.GetAccount(ctx, "Ghost")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStore_ListTransactionsWindow(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			seedAccounts(t, s, "alice",
				newAccount("DebitCard", models.AccountTypeAsset, models.CurrencyCAD, "0"),
				newAccount("CreditCard", models.AccountTypeLiability, models.CurrencyCAD, "0"),
			)

			day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }

			a, err := s.BeginAtomic(ctx, "alice")
			require.NoError(t, err)
			require.NoError(t, a.InsertTransaction(ctx, newTransaction("mar", "DebitCard", "", "3", day(time.March, 1))))
			require.NoError(t, a.InsertTransaction(ctx, newTransaction("jan", "DebitCard", "", "1", day(time.January, 31))))
			require.NoError(t, a.InsertTransaction(ctx, newTransaction("feb", "DebitCard", "CreditCard", "2", day(time.February, 14))))
			require.NoError(t, a.Commit())

			all, err := s.ListTransactions(ctx, "alice", time.Time{}, time.Time{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "jan", all[0].ID)
			assert.Equal(t, "feb", all[1].ID)
			assert.Equal(t, "CreditCard", all[1].TargetAccount)
			assert.Equal(t, "mar", all[2].ID)

			window, err := s.ListTransactions(ctx, "alice", day(time.February, 1), day(time.February, 28))
			require.NoError(t, err)
			require.Len(t, window, 1)
			assert.Equal(t, "feb", window[0].ID)

			inclusive, err := s.ListTransactions(ctx, "alice", day(time.January, 31), day(time.March, 1))
			require.NoError(t, err)
			assert.Len(t, inclusive, 3)
		})
	}
}

func TestMemory_SerializesHandlesPerUser(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedAccounts(t, s, "alice", newAccount("DebitCard", models.AccountTypeAsset, models.CurrencyCAD, "0"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := s.BeginAtomic(ctx, "alice")
			if !assert.NoError(t, err) {
				return
			}
			defer a.Rollback()
			acc, err := a.GetAccount(ctx, "DebitCard")
			if !assert.NoError(t, err) {
				return
			}
			acc.Balance = acc.Balance.Add(decimal.NewFromInt(1))
			assert.NoError(t, a.UpdateAccount(ctx, acc))
			assert.NoError(t, a.Commit())
		}()
	}
	wg.Wait()

	accounts, err := s.ListAccounts(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(accounts[0].Balance), "got %s", accounts[0].Balance)
}

func TestMemory_BeginAtomicHonoursContext(t *testing.T) {
	s := NewMemory()
	held, err := s.BeginAtomic(context.Background(), "alice")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.BeginAtomic(ctx, "alice")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Other users are not blocked.
	other, err := s.BeginAtomic(context.Background(), "bob")
	require.NoError(t, err)
	require.NoError(t, other.Rollback())

	require.NoError(t, held.Rollback())
	again, err := s.BeginAtomic(context.Background(), "alice")
	require.NoError(t, err)
	require.NoError(t, again.Rollback())
}

func TestMemory_InjectedFailures(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedAccounts(t, s, "alice", newAccount("DebitCard", models.AccountTypeAsset, models.CurrencyCAD, "10"))

	boom := errors.New("boom")
	s.CommitError = boom

	a, err := s.BeginAtomic(ctx, "alice")
	require.NoError(t, err)
	acc, err := a.GetAccount(ctx, "DebitCard")
	require.NoError(t, err)
	acc.Balance = decimal.Zero
	require.NoError(t, a.UpdateAccount(ctx, acc))
	assert.ErrorIs(t, a.Commit(), boom)

	accounts, err := s.ListAccounts(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(accounts[0].Balance))
}
