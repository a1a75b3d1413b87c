// Package store persists account directories and transactions, partitioned by user.
//
// All ledger writes go through an Atomic handle: reads on the handle see its own staged
// writes, and nothing becomes visible to other callers until Commit succeeds.
package store

import (
	"context"
	"errors"
	"time"

	"fjacquet/spend-ledger/internal/dateutils"
	"fjacquet/spend-ledger/internal/models"
)

var (
	// ErrNotFound is returned when an account does not exist for the user.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an account name or transaction id is already taken.
	ErrDuplicate = errors.New("record already exists")

	// ErrClosed is returned when a handle is used after Commit or Rollback.
	ErrClosed = errors.New("atomic handle already closed")
)

// Store is the persistence boundary of the ledger.
type Store interface {
	// BeginAtomic opens an all-or-nothing unit of work scoped to one user.
	BeginAtomic(ctx context.Context, userID string) (Atomic, error)

	// ListAccounts returns the user's accounts in creation order.
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)

	// ListTransactions returns transactions dated within [from, to], oldest first.
	// A zero bound is open.
	ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error)

	Close() error
}

// Atomic is a unit of work. Rollback after Commit is a no-op, so callers can defer it.
type Atomic interface {
	GetAccount(ctx context.Context, name string) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	CreateAccount(ctx context.Context, account models.Account) error
	UpdateAccount(ctx context.Context, account models.Account) error
	InsertTransaction(ctx context.Context, tx models.Transaction) error
	Commit() error
	Rollback() error
}

// inWindow reports whether d falls in [from, to] at day granularity.
func inWindow(d, from, to time.Time) bool {
	day := dateutils.ToISODate(d)
	if !from.IsZero() && day < dateutils.ToISODate(from) {
		return false
	}
	if !to.IsZero() && day > dateutils.ToISODate(to) {
		return false
	}
	return true
}

