// Package ledger applies resolved transactions to account balances and manages the
// per-user account directory.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/store"

	"github.com/google/uuid"
)

// Mutator applies transactions to balances. Each Apply is a single atomic unit: the balance
// writes and the transaction insert are committed together or not at all.
type Mutator struct {
	store  store.Store
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewMutator creates a Mutator over st.
func NewMutator(st store.Store, logger logging.Logger) *Mutator {
	return &Mutator{
		store:  st,
		logger: logging.OrNop(logger),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Apply records rt for userID and updates the balances it touches.
func (m *Mutator) Apply(ctx context.Context, userID string, rt models.ResolvedTransaction) (models.Transaction, error) {
	const op = "apply transaction"

	if err := checkResolved(rt); err != nil {
		return models.Transaction{}, err
	}

	unit, err := m.store.BeginAtomic(ctx, userID)
	if err != nil {
		return models.Transaction{}, ledgererror.Persistence(op, err)
	}
	defer func() {
		if rbErr := unit.Rollback(); rbErr != nil {
			m.logger.WithError(rbErr).Error("Rollback failed",
				logging.Field{Key: logging.FieldUserID, Value: userID})
		}
	}()

	source, err := loadAccount(ctx, unit, op, rt.Account)
	if err != nil {
		return models.Transaction{}, err
	}

	var target *models.Account
	if rt.IsTransfer() {
		t, err := loadAccount(ctx, unit, op, rt.TargetAccount)
		if err != nil {
			return models.Transaction{}, err
		}
		if t.Currency != source.Currency {
			return models.Transaction{}, ledgererror.Validation(op, ledgererror.ErrCurrencyMismatch,
				fmt.Sprintf("%s holds %s, %s holds %s", source.Name, source.Currency, t.Name, t.Currency))
		}
		target = &t
	}

	effects, err := Effects(rt.Type, rt.Amount, source, target)
	if err != nil {
		return models.Transaction{}, ledgererror.Validation(op, ledgererror.ErrInvalidType, err.Error())
	}

	now := m.now().UTC()
	touched := map[string]models.Account{source.Name: source}
	if target != nil {
		touched[target.Name] = *target
	}
	for _, e := range effects {
		acc := touched[e.Account]
		acc.Balance = acc.Balance.Add(e.Delta)
		acc.UpdatedAt = now
		if err := unit.UpdateAccount(ctx, acc); err != nil {
			return models.Transaction{}, ledgererror.Persistence(op, err)
		}
	}

	tx := models.Transaction{
		ID:            m.newID(),
		UserID:        userID,
		Amount:        rt.Amount,
		Type:          rt.Type,
		Category:      rt.Category,
		Account:       source.Name,
		TargetAccount: rt.TargetAccount,
		Date:          rt.Date,
		Note:          rt.Note,
		Degraded:      rt.Degraded,
		CreatedAt:     now,
	}
	if !rt.IsTransfer() {
		tx.TargetAccount = ""
	}
	if err := unit.InsertTransaction(ctx, tx); err != nil {
		return models.Transaction{}, ledgererror.Persistence(op, err)
	}

	if err := unit.Commit(); err != nil {
		return models.Transaction{}, ledgererror.Persistence(op, err)
	}

	m.logger.Info("Transaction applied",
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldTransactionID, Value: tx.ID},
		logging.Field{Key: logging.FieldTransactionType, Value: tx.Type},
		logging.Field{Key: logging.FieldAmount, Value: tx.Amount.String()},
		logging.Field{Key: logging.FieldAccount, Value: tx.Account},
		logging.Field{Key: logging.FieldTargetAccount, Value: tx.TargetAccount},
		logging.Field{Key: logging.FieldDegraded, Value: tx.Degraded})
	return tx, nil
}

// checkResolved rejects transactions that must never reach storage, before any write.
func checkResolved(rt models.ResolvedTransaction) error {
	const op = "apply transaction"

	if rt.Amount.IsNegative() {
		return ledgererror.Validation(op, ledgererror.ErrInvalidAmount, fmt.Sprintf("got %s", rt.Amount))
	}
	if !rt.Type.IsValid() {
		return ledgererror.Validation(op, ledgererror.ErrInvalidType, fmt.Sprintf("got %q", rt.Type))
	}
	if rt.Account == "" {
		return ledgererror.Resolution(op, rt.Account)
	}
	if rt.IsTransfer() {
		if rt.TargetAccount == "" {
			return ledgererror.Validation(op, ledgererror.ErrTransferMissingTarget, "")
		}
		if rt.TargetAccount == rt.Account {
			return ledgererror.Validation(op, ledgererror.ErrSameAccount, fmt.Sprintf("account %q", rt.Account))
		}
	}
	return nil
}

func loadAccount(ctx context.Context, unit store.Atomic, op, name string) (models.Account, error) {
	acc, err := unit.GetAccount(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return models.Account{}, ledgererror.Resolution(op, name)
	}
	if err != nil {
		return models.Account{}, ledgererror.Persistence(op, err)
	}
	return acc, nil
}
