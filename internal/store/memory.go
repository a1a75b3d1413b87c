package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"fjacquet/spend-ledger/internal/models"
)

// Memory is an in-process Store. An Atomic handle holds the user's lock until it is
// committed or rolled back, and staged writes are applied only on Commit.
//
// The exported error fields inject failures for tests.
type Memory struct {
	InsertTransactionError error
	UpdateAccountError     error
	CommitError            error

	mu           sync.Mutex
	userLocks    map[string]*sync.Mutex
	accounts     map[string][]models.Account
	transactions map[string][]models.Transaction
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		userLocks:    make(map[string]*sync.Mutex),
		accounts:     make(map[string][]models.Account),
		transactions: make(map[string][]models.Transaction),
	}
}

func (m *Memory) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.userLocks[userID] = l
	}
	return l
}

// BeginAtomic blocks until no other handle is open for userID, or ctx is done.
func (m *Memory) BeginAtomic(ctx context.Context, userID string) (Atomic, error) {
	lock := m.userLock(userID)
	acquired := make(chan struct{})
	go func() {
		lock.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// Release the lock once the pending acquisition completes.
		go func() {
			<-acquired
			lock.Unlock()
		}()
		return nil, ctx.Err()
	}

	m.mu.Lock()
	staged := append([]models.Account(nil), m.accounts[userID]...)
	m.mu.Unlock()

	return &memoryAtomic{store: m, userID: userID, lock: lock, accounts: staged}, nil
}

// ListAccounts returns a copy of the user's committed accounts.
func (m *Memory) ListAccounts(_ context.Context, userID string) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Account(nil), m.accounts[userID]...), nil
}

// ListTransactions returns the user's committed transactions within the window.
func (m *Memory) ListTransactions(_ context.Context, userID string, from, to time.Time) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Transaction
	for _, tx := range m.transactions[userID] {
		if inWindow(tx.Date, from, to) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

type memoryAtomic struct {
	store    *Memory
	userID   string
	lock     *sync.Mutex
	accounts []models.Account
	inserts  []models.Transaction
	done     bool
}

func (a *memoryAtomic) index(name string) int {
	for i, acc := range a.accounts {
		if acc.Name == name {
			return i
		}
	}
	return -1
}

func (a *memoryAtomic) GetAccount(_ context.Context, name string) (models.Account, error) {
	if a.done {
		return models.Account{}, ErrClosed
	}
	i := a.index(name)
	if i < 0 {
		return models.Account{}, ErrNotFound
	}
	return a.accounts[i], nil
}

func (a *memoryAtomic) ListAccounts(_ context.Context) ([]models.Account, error) {
	if a.done {
		return nil, ErrClosed
	}
	return append([]models.Account(nil), a.accounts...), nil
}

func (a *memoryAtomic) CreateAccount(_ context.Context, account models.Account) error {
	if a.done {
		return ErrClosed
	}
	if a.index(account.Name) >= 0 {
		return ErrDuplicate
	}
	account.UserID = a.userID
	a.accounts = append(a.accounts, account)
	return nil
}

func (a *memoryAtomic) UpdateAccount(_ context.Context, account models.Account) error {
	if a.done {
		return ErrClosed
	}
	if a.store.UpdateAccountError != nil {
		return a.store.UpdateAccountError
	}
	i := a.index(account.Name)
	if i < 0 {
		return ErrNotFound
	}
	account.UserID = a.userID
	a.accounts[i] = account
	return nil
}

func (a *memoryAtomic) InsertTransaction(_ context.Context, tx models.Transaction) error {
	if a.done {
		return ErrClosed
	}
	if a.store.InsertTransactionError != nil {
		return a.store.InsertTransactionError
	}
	if a.index(tx.Account) < 0 {
		return ErrNotFound
	}
	if tx.TargetAccount != "" && a.index(tx.TargetAccount) < 0 {
		return ErrNotFound
	}
	a.store.mu.Lock()
	for _, existing := range a.store.transactions[a.userID] {
		if existing.ID == tx.ID {
			a.store.mu.Unlock()
			return ErrDuplicate
		}
	}
	a.store.mu.Unlock()
	for _, staged := range a.inserts {
		if staged.ID == tx.ID {
			return ErrDuplicate
		}
	}
	tx.UserID = a.userID
	a.inserts = append(a.inserts, tx)
	return nil
}

func (a *memoryAtomic) Commit() error {
	if a.done {
		return ErrClosed
	}
	defer a.release()

	if a.store.CommitError != nil {
		return a.store.CommitError
	}

	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	a.store.accounts[a.userID] = a.accounts
	a.store.transactions[a.userID] = append(a.store.transactions[a.userID], a.inserts...)
	return nil
}

func (a *memoryAtomic) Rollback() error {
	if a.done {
		return nil
	}
	a.release()
	return nil
}

func (a *memoryAtomic) release() {
	a.done = true
	a.accounts = nil
	a.inserts = nil
	a.lock.Unlock()
}
