package ledger

import (
	"fmt"
	"math"
	"strings"
	"time"

	"fjacquet/spend-ledger/internal/dateutils"
	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/resolver"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the precision amounts are kept at. Both ledger currencies use cents.
const AmountPlaces int32 = 2

// ResolveGuess validates an untrusted classifier guess and maps its account names onto
// candidates. today is used when the guess carries no date.
//
// Nothing here touches storage: a guess that fails validation or resolution leaves no trace.
func ResolveGuess(guess models.ClassifiedGuess, candidates []string, today time.Time) (models.ResolvedTransaction, error) {
	const op = "resolve guess"

	amount, err := ParseAmount(guess.Amount)
	if err != nil {
		return models.ResolvedTransaction{}, err
	}

	txType, err := models.ParseTransactionType(guess.Type)
	if err != nil {
		return models.ResolvedTransaction{}, ledgererror.Validation(op, ledgererror.ErrInvalidType, fmt.Sprintf("got %q", guess.Type))
	}

	date := dateutils.StartOfDay(today)
	if strings.TrimSpace(guess.Date) != "" {
		parsed, _, err := dateutils.ParseDate(guess.Date)
		if err != nil {
			return models.ResolvedTransaction{}, ledgererror.Validation(op, nil, fmt.Sprintf("invalid date %q", guess.Date))
		}
		date = parsed
	}

	rawSource := strings.TrimSpace(guess.Account)
	if rawSource == "" {
		rawSource = models.DefaultFundingAccount
	}
	source, err := resolver.Resolve(rawSource, candidates)
	if err != nil {
		return models.ResolvedTransaction{}, err
	}

	var target string
	if txType == models.TransactionTypeTransfer {
		if strings.TrimSpace(guess.TargetAccount) == "" {
			return models.ResolvedTransaction{}, ledgererror.Validation(op, ledgererror.ErrTransferMissingTarget, "")
		}
		target, err = resolver.Resolve(guess.TargetAccount, candidates)
		if err != nil {
			return models.ResolvedTransaction{}, err
		}
		if target == source {
			return models.ResolvedTransaction{}, ledgererror.Validation(op, ledgererror.ErrSameAccount, fmt.Sprintf("account %q", source))
		}
	}

	category := strings.TrimSpace(guess.Category)
	if category == "" {
		category = models.CategoryUncategorized
	}

	return models.ResolvedTransaction{
		Amount:        amount,
		Type:          txType,
		Category:      category,
		Account:       source,
		TargetAccount: target,
		Date:          date,
		Note:          strings.TrimSpace(guess.Note),
		Degraded:      guess.Degraded,
	}, nil
}

// ParseAmount converts a classifier amount to a decimal magnitude rounded to cents.
// NaN, infinities and negative values are rejected.
func ParseAmount(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, ledgererror.Validation("parse amount", ledgererror.ErrInvalidAmount, "not a finite number")
	}
	if v < 0 {
		return decimal.Zero, ledgererror.Validation("parse amount", ledgererror.ErrInvalidAmount, fmt.Sprintf("got %v", v))
	}
	return decimal.NewFromFloat(v).Round(AmountPlaces), nil
}
