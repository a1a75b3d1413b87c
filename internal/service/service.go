// Package service exposes the ledger operations used by the CLI and HTTP layers. Each call
// is one request: it bootstraps the user's accounts if needed, does its work and returns
// the resulting entity or a ledgererror.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fjacquet/spend-ledger/internal/classifier"
	"fjacquet/spend-ledger/internal/dateutils"
	"fjacquet/spend-ledger/internal/fxrate"
	"fjacquet/spend-ledger/internal/ledger"
	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/repayment"
	"fjacquet/spend-ledger/internal/store"
	"fjacquet/spend-ledger/internal/valuation"
)

// Defaults for Options.
const (
	DefaultSummaryMonths    = 6
	DefaultMaxSummaryMonths = 24
)

// Options tunes a Service.
type Options struct {
	// DisplayCurrency is used when a caller asks for a valuation without naming a currency.
	DisplayCurrency  string
	MaxSummaryMonths int
}

// Service wires the ledger components together.
type Service struct {
	store      store.Store
	directory  *ledger.Directory
	mutator    *ledger.Mutator
	classifier classifier.Classifier
	repayment  *repayment.Rule
	rates      fxrate.Provider
	logger     logging.Logger
	opts       Options
	now        func() time.Time
}

// New creates a Service. A nil repayment rule uses repayment.NewRule().
func New(
	st store.Store,
	directory *ledger.Directory,
	mutator *ledger.Mutator,
	cls classifier.Classifier,
	rule *repayment.Rule,
	rates fxrate.Provider,
	logger logging.Logger,
	opts Options,
) *Service {
	if rule == nil {
		rule = repayment.NewRule()
	}
	if opts.DisplayCurrency == "" {
		opts.DisplayCurrency = models.CurrencyCAD
	}
	if opts.MaxSummaryMonths <= 0 {
		opts.MaxSummaryMonths = DefaultMaxSummaryMonths
	}
	return &Service{
		store:      st,
		directory:  directory,
		mutator:    mutator,
		classifier: cls,
		repayment:  rule,
		rates:      rates,
		logger:     logging.OrNop(logger),
		opts:       opts,
		now:        time.Now,
	}
}

func checkUser(op, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ledgererror.Validation(op, nil, "user id is required")
	}
	return nil
}

// SubmitResult is the outcome of SubmitText.
type SubmitResult struct {
	Transaction models.Transaction     `json:"transaction"`
	Guess       models.ClassifiedGuess `json:"guess"`
	// RepaymentOverride is set when the text was recognized as a credit card repayment.
	RepaymentOverride bool `json:"repayment_override"`
}

// SubmitText classifies text and applies the resulting transaction to the user's ledger.
func (s *Service) SubmitText(ctx context.Context, userID, text string) (SubmitResult, error) {
	const op = "submit text"

	if err := checkUser(op, userID); err != nil {
		return SubmitResult{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return SubmitResult{}, ledgererror.Validation(op, nil, "text is required")
	}

	accounts, err := s.directory.EnsureDefaults(ctx, userID)
	if err != nil {
		return SubmitResult{}, err
	}
	names := models.AccountNames(accounts)

	guess, err := s.classifier.Classify(ctx, text, names)
	if err != nil {
		if ctx.Err() != nil {
			return SubmitResult{}, err
		}
		if ledgererror.KindOf(err) != ledgererror.KindUpstreamDegraded {
			err = ledgererror.New(ledgererror.KindUpstreamDegraded, op, err, "classification failed")
		}
		return SubmitResult{}, err
	}

	guess, overridden := s.repayment.Apply(text, guess)
	if overridden {
		s.logger.Info("Repayment override applied",
			logging.Field{Key: logging.FieldUserID, Value: userID},
			logging.Field{Key: logging.FieldAccount, Value: guess.Account},
			logging.Field{Key: logging.FieldTargetAccount, Value: guess.TargetAccount})
	}

	resolved, err := ledger.ResolveGuess(guess, names, s.now())
	if err != nil {
		s.logger.Info("Rejected classified text",
			logging.Field{Key: logging.FieldUserID, Value: userID},
			logging.Field{Key: logging.FieldReason, Value: err.Error()},
			logging.Field{Key: logging.FieldDegraded, Value: guess.Degraded})
		return SubmitResult{}, err
	}

	tx, err := s.mutator.Apply(ctx, userID, resolved)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Transaction: tx, Guess: guess, RepaymentOverride: overridden}, nil
}

// AccountsView is the account list with its valuation.
type AccountsView struct {
	Accounts  []models.Account `json:"accounts"`
	Valuation valuation.Result `json:"valuation"`
	Rate      valuation.Rate   `json:"rate"`
}

// ListAccounts returns the user's accounts valued in display, or the default display
// currency when display is empty.
func (s *Service) ListAccounts(ctx context.Context, userID, display string) (AccountsView, error) {
	const op = "list accounts"

	if err := checkUser(op, userID); err != nil {
		return AccountsView{}, err
	}
	display, err := s.displayCurrency(op, display)
	if err != nil {
		return AccountsView{}, err
	}

	accounts, err := s.directory.EnsureDefaults(ctx, userID)
	if err != nil {
		return AccountsView{}, err
	}
	rate, err := s.rate(ctx)
	if err != nil {
		return AccountsView{}, err
	}
	result, err := valuation.Value(accounts, display, rate)
	if err != nil {
		return AccountsView{}, err
	}
	return AccountsView{Accounts: accounts, Valuation: result, Rate: rate}, nil
}

// CreateAccount adds an account of any type.
func (s *Service) CreateAccount(ctx context.Context, userID string, req ledger.NewAccount) (models.Account, error) {
	if err := checkUser("create account", userID); err != nil {
		return models.Account{}, err
	}
	if _, err := s.directory.EnsureDefaults(ctx, userID); err != nil {
		return models.Account{}, err
	}
	return s.directory.CreateAccount(ctx, userID, req)
}

// CreateLiabilityAccount adds a debt account such as an extra credit card.
func (s *Service) CreateLiabilityAccount(ctx context.Context, userID string, req ledger.NewAccount) (models.Account, error) {
	req.Type = models.AccountTypeLiability
	return s.CreateAccount(ctx, userID, req)
}

// Reconcile overwrites an account's balance and metadata.
func (s *Service) Reconcile(ctx context.Context, userID, name string, patch ledger.AccountPatch) (models.Account, error) {
	if err := checkUser("reconcile account", userID); err != nil {
		return models.Account{}, err
	}
	if _, err := s.directory.EnsureDefaults(ctx, userID); err != nil {
		return models.Account{}, err
	}
	return s.directory.Reconcile(ctx, userID, name, patch)
}

// ListTransactions returns the user's transactions dated within [from, to]. Zero bounds
// are open.
func (s *Service) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error) {
	const op = "list transactions"

	if err := checkUser(op, userID); err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() && dateutils.CompareDates(from, to) > 0 {
		return nil, ledgererror.Validation(op, nil, fmt.Sprintf("from %s is after to %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	}
	txs, err := s.store.ListTransactions(ctx, userID, from, to)
	if err != nil {
		return nil, ledgererror.Persistence(op, err)
	}
	return txs, nil
}

func (s *Service) displayCurrency(op, display string) (string, error) {
	if strings.TrimSpace(display) == "" {
		return s.opts.DisplayCurrency, nil
	}
	display = models.NormalizeCurrency(display)
	if !models.IsSupportedCurrency(display) {
		return "", ledgererror.Validation(op, ledgererror.ErrUnsupportedCurrency, fmt.Sprintf("display currency %q", display))
	}
	return display, nil
}

// rate returns the CAD→CNY valuation rate. The provider chain never fails for this pair,
// so an error here means a misconfigured provider.
func (s *Service) rate(ctx context.Context) (valuation.Rate, error) {
	value, err := s.rates.LatestRate(ctx, models.CurrencyCAD, models.CurrencyCNY)
	if err != nil {
		return valuation.Rate{}, ledgererror.New(ledgererror.KindUpstreamDegraded, "exchange rate", err, "")
	}
	return valuation.NewRate(models.CurrencyCAD, models.CurrencyCNY, value)
}
