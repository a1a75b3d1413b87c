package classifier

import (
	"strings"
	"time"

	"fjacquet/spend-ledger/internal/currencyutils"
	"fjacquet/spend-ledger/internal/dateutils"
	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/models"
)

// Fallback builds the deterministic degraded guess: the first number in text as an expense
// from the default funding account, dated today.
func Fallback(text string, today time.Time) (models.ClassifiedGuess, error) {
	amount, ok := currencyutils.FirstAmount(text)
	if !ok {
		return models.ClassifiedGuess{}, ledgererror.New(ledgererror.KindUpstreamDegraded, "classify",
			ledgererror.ErrClassifierUnavailable, "no amount found in text")
	}

	return models.ClassifiedGuess{
		Amount:   amount.InexactFloat64(),
		Type:     models.TransactionTypeExpense.String(),
		Category: models.CategoryUncategorized,
		Account:  models.DefaultFundingAccount,
		Date:     dateutils.ToISODate(today),
		Note:     strings.TrimSpace(text),
		Degraded: true,
	}, nil
}
