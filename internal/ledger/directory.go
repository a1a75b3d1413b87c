package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/resolver"
	"fjacquet/spend-ledger/internal/store"

	"github.com/shopspring/decimal"
)

// SeedSource provides the bootstrap account set.
type SeedSource interface {
	Load() ([]models.DefaultAccount, error)
}

// Directory manages a user's accounts outside the transaction flow: bootstrap, explicit
// creation and reconciliation overwrites.
type Directory struct {
	store  store.Store
	seed   SeedSource
	logger logging.Logger
	now    func() time.Time
}

// NewDirectory creates a Directory. A nil seed means the built-in defaults.
func NewDirectory(st store.Store, seed SeedSource, logger logging.Logger) *Directory {
	return &Directory{
		store:  st,
		seed:   seed,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

func (d *Directory) defaults() ([]models.DefaultAccount, error) {
	if d.seed == nil {
		return models.DefaultAccounts(), nil
	}
	return d.seed.Load()
}

// EnsureDefaults creates any missing bootstrap account for userID and corrects reserved
// accounts stored with the wrong type. It returns the user's full directory.
//
// A type correction negates Balance and InitialBalance so that the balance keeps meaning
// the same amount of money owned or owed under the new sign rules.
func (d *Directory) EnsureDefaults(ctx context.Context, userID string) ([]models.Account, error) {
	const op = "ensure default accounts"

	defaults, err := d.defaults()
	if err != nil {
		return nil, ledgererror.Persistence(op, err)
	}

	existing, err := d.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, ledgererror.Persistence(op, err)
	}
	if !needsBootstrap(existing, defaults) {
		return existing, nil
	}

	unit, err := d.store.BeginAtomic(ctx, userID)
	if err != nil {
		return nil, ledgererror.Persistence(op, err)
	}
	defer func() { _ = unit.Rollback() }()

	now := d.now().UTC()
	for _, def := range defaults {
		acc, err := unit.GetAccount(ctx, def.Name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			acc = models.Account{
				UserID:          userID,
				Name:            def.Name,
				Type:            def.Type,
				Currency:        def.Currency,
				DisplayCurrency: def.Currency,
				Balance:         def.InitialBalance,
				InitialBalance:  def.InitialBalance,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := unit.CreateAccount(ctx, acc); err != nil {
				return nil, ledgererror.Persistence(op, err)
			}
			d.logger.Debug("Created default account",
				logging.Field{Key: logging.FieldUserID, Value: userID},
				logging.Field{Key: logging.FieldAccount, Value: def.Name})

		case err != nil:
			return nil, ledgererror.Persistence(op, err)

		default:
			reserved, ok := models.ReservedType(def.Name)
			if !ok || acc.Type == reserved {
				continue
			}
			d.logger.Warn("Correcting type of reserved account",
				logging.Field{Key: logging.FieldUserID, Value: userID},
				logging.Field{Key: logging.FieldAccount, Value: acc.Name},
				logging.Field{Key: logging.FieldReason, Value: fmt.Sprintf("stored as %s, reserved as %s", acc.Type, reserved)})
			acc.Type = reserved
			acc.Balance = acc.Balance.Neg()
			acc.InitialBalance = acc.InitialBalance.Neg()
			acc.UpdatedAt = now
			if err := unit.UpdateAccount(ctx, acc); err != nil {
				return nil, ledgererror.Persistence(op, err)
			}
		}
	}

	accounts, err := unit.ListAccounts(ctx)
	if err != nil {
		return nil, ledgererror.Persistence(op, err)
	}
	if err := unit.Commit(); err != nil {
		return nil, ledgererror.Persistence(op, err)
	}
	return accounts, nil
}

func needsBootstrap(existing []models.Account, defaults []models.DefaultAccount) bool {
	byName := make(map[string]models.Account, len(existing))
	for _, a := range existing {
		byName[a.Name] = a
	}
	for _, def := range defaults {
		acc, ok := byName[def.Name]
		if !ok {
			return true
		}
		if reserved, ok := models.ReservedType(def.Name); ok && acc.Type != reserved {
			return true
		}
	}
	return false
}

// NewAccount describes an account created explicitly by the user.
type NewAccount struct {
	Name            string
	Type            models.AccountType
	Currency        string
	DisplayCurrency string
	InitialBalance  decimal.Decimal
	DueDate         *int
}

// CreateAccount adds an account to the user's directory. Names are unique after
// normalization, so "TD Visa" and "td_visa" cannot coexist.
func (d *Directory) CreateAccount(ctx context.Context, userID string, req NewAccount) (models.Account, error) {
	const op = "create account"

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Account{}, ledgererror.Validation(op, nil, "name is required")
	}
	if resolver.Normalize(name) == "" {
		return models.Account{}, ledgererror.Validation(op, nil, fmt.Sprintf("name %q has no letters or digits", req.Name))
	}
	if !req.Type.IsValid() {
		return models.Account{}, ledgererror.Validation(op, nil, fmt.Sprintf("unknown account type %q", req.Type))
	}
	currency := models.NormalizeCurrency(req.Currency)
	if !models.IsSupportedCurrency(currency) {
		return models.Account{}, ledgererror.Validation(op, ledgererror.ErrUnsupportedCurrency, fmt.Sprintf("currency %q", req.Currency))
	}
	display := currency
	if req.DisplayCurrency != "" {
		display = models.NormalizeCurrency(req.DisplayCurrency)
		if !models.IsSupportedCurrency(display) {
			return models.Account{}, ledgererror.Validation(op, ledgererror.ErrUnsupportedCurrency, fmt.Sprintf("display currency %q", req.DisplayCurrency))
		}
	}
	if err := checkDueDate(op, req.Type, req.DueDate); err != nil {
		return models.Account{}, err
	}

	unit, err := d.store.BeginAtomic(ctx, userID)
	if err != nil {
		return models.Account{}, ledgererror.Persistence(op, err)
	}
	defer func() { _ = unit.Rollback() }()

	existing, err := unit.ListAccounts(ctx)
	if err != nil {
		return models.Account{}, ledgererror.Persistence(op, err)
	}
	norm := resolver.Normalize(name)
	for _, a := range existing {
		if resolver.Normalize(a.Name) == norm {
			return models.Account{}, ledgererror.Conflict(op, a.Name)
		}
	}

	now := d.now().UTC()
	acc := models.Account{
		UserID:          userID,
		Name:            name,
		Type:            req.Type,
		Currency:        currency,
		DisplayCurrency: display,
		Balance:         req.InitialBalance,
		InitialBalance:  req.InitialBalance,
		DueDate:         req.DueDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := unit.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Account{}, ledgererror.Conflict(op, name)
		}
		return models.Account{}, ledgererror.Persistence(op, err)
	}
	if err := unit.Commit(); err != nil {
		return models.Account{}, ledgererror.Persistence(op, err)
	}

	d.logger.Info("Account created",
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldAccount, Value: acc.Name},
		logging.Field{Key: logging.FieldCurrency, Value: acc.Currency})
	return acc, nil
}

// AccountPatch is a reconciliation overwrite. Nil fields are left unchanged.
type AccountPatch struct {
	Balance         *decimal.Decimal
	DisplayCurrency *string
	DueDate         *int
	// ClearDueDate removes the due date; it wins over DueDate.
	ClearDueDate bool
}

// Reconcile overwrites an account's balance and metadata directly. It bypasses the sign
// rules and records no transaction, so Balance - InitialBalance stops matching the sum of
// recorded transactions for that account.
func (d *Directory) Reconcile(ctx context.Context, userID, rawName string, patch AccountPatch) (models.Account, error) {
	const op = "reconcile account"

	unit, err := d.store.BeginAtomic(ctx, userID)
	if err != nil {
		return models.Account{}, ledgererror.Persistence(op, err)
	}
	defer func() { _ = unit.Rollback() }()

	accounts, err := unit.ListAccounts(ctx)
	if err != nil {
		return models.Account{}, ledgererror.Persistence(op, err)
	}
	name, err := resolver.Resolve(rawName, models.AccountNames(accounts))
	if err != nil {
		return models.Account{}, err
	}
	acc, err := loadAccount(ctx, unit, op, name)
	if err != nil {
		return models.Account{}, err
	}

	if patch.Balance != nil {
		acc.Balance = *patch.Balance
	}
	if patch.DisplayCurrency != nil {
		display := models.NormalizeCurrency(*patch.DisplayCurrency)
		if !models.IsSupportedCurrency(display) {
			return models.Account{}, ledgererror.Validation(op, ledgererror.ErrUnsupportedCurrency, fmt.Sprintf("display currency %q", *patch.DisplayCurrency))
		}
		acc.DisplayCurrency = display
	}
	switch {
	case patch.ClearDueDate:
		acc.DueDate = nil
	case patch.DueDate != nil:
		if err := checkDueDate(op, acc.Type, patch.DueDate); err != nil {
			return models.Account{}, err
		}
		due := *patch.DueDate
		acc.DueDate = &due
	}
	acc.UpdatedAt = d.now().UTC()

	if err := unit.UpdateAccount(ctx, acc); err != nil {
		return models.Account{}, ledgererror.Persistence(op, err)
	}
	if err := unit.Commit(); err != nil {
		return models.Account{}, ledgererror.Persistence(op, err)
	}

	d.logger.Info("Account reconciled by overwrite",
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldAccount, Value: acc.Name},
		logging.Field{Key: logging.FieldAmount, Value: acc.Balance.String()})
	return acc, nil
}

func checkDueDate(op string, accType models.AccountType, due *int) error {
	if due == nil {
		return nil
	}
	if accType != models.AccountTypeLiability {
		return ledgererror.Validation(op, nil, "due date is only allowed on liability accounts")
	}
	if *due < 1 || *due > 31 {
		return ledgererror.Validation(op, nil, fmt.Sprintf("due date must be a day of month 1-31, got %d", *due))
	}
	return nil
}
