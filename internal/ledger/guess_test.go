package ledger

import (
	"errors"
	"math"
	"testing"
	"time"

	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/repayment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var directory = []string{"Wallet", "Cash", "DebitCard", "CreditCard", "BMO"}

func TestResolveGuess_Valid(t *testing.T) {
	today := time.Date(2025, time.June, 3, 18, 45, 0, 0, time.UTC)

	tests := []struct {
		name  string
		guess models.ClassifiedGuess
		want  models.ResolvedTransaction
	}{
		{
			name:  "expense with alias and date",
			guess: models.ClassifiedGuess{Amount: 35, Type: "Expense", Category: " food ", Account: "debit card", Date: "2025-06-01", Note: " lunch "},
			want: models.ResolvedTransaction{
				Amount: dec("35"), Type: models.TransactionTypeExpense, Category: "food",
				Account: "DebitCard", Date: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), Note: "lunch",
			},
		},
		{
			name:  "defaults for empty fields",
			guess: models.ClassifiedGuess{Amount: 12.345, Type: "income"},
			want: models.ResolvedTransaction{
				Amount: dec("12.35"), Type: models.TransactionTypeIncome, Category: models.CategoryUncategorized,
				Account: "DebitCard", Date: time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "transfer to custom liability",
			guess: models.ClassifiedGuess{Amount: 200, Type: "transfer", Category: "Repayment", Account: "现金", TargetAccount: "bmo"},
			want: models.ResolvedTransaction{
				Amount: dec("200"), Type: models.TransactionTypeTransfer, Category: "Repayment",
				Account: "Cash", TargetAccount: "BMO", Date: time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "target ignored outside transfers",
			guess: models.ClassifiedGuess{Amount: 1, Type: "expense", Account: "wechat", TargetAccount: "nowhere"},
			want: models.ResolvedTransaction{
				Amount: dec("1"), Type: models.TransactionTypeExpense, Category: models.CategoryUncategorized,
				Account: "Wallet", Date: time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "degraded flag carried",
			guess: models.ClassifiedGuess{Amount: 8, Type: "expense", Account: "DebitCard", Degraded: true},
			want: models.ResolvedTransaction{
				Amount: dec("8"), Type: models.TransactionTypeExpense, Category: models.CategoryUncategorized,
				Account: "DebitCard", Date: time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC), Degraded: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveGuess(tt.guess, directory, today)
			require.NoError(t, err)

			assert.True(t, tt.want.Amount.Equal(got.Amount), "amount %s", got.Amount)
			got.Amount = tt.want.Amount
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveGuess_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		guess    models.ClassifiedGuess
		sentinel error
		kind     ledgererror.Kind
	}{
		{"NaN amount", models.ClassifiedGuess{Amount: math.NaN(), Type: "expense"}, ledgererror.ErrInvalidAmount, ledgererror.KindValidation},
		{"infinite amount", models.ClassifiedGuess{Amount: math.Inf(1), Type: "expense"}, ledgererror.ErrInvalidAmount, ledgererror.KindValidation},
		{"negative amount", models.ClassifiedGuess{Amount: -3, Type: "expense"}, ledgererror.ErrInvalidAmount, ledgererror.KindValidation},
		{"unknown type", models.ClassifiedGuess{Amount: 3, Type: "refund"}, ledgererror.ErrInvalidType, ledgererror.KindValidation},
		{"unknown account", models.ClassifiedGuess{Amount: 3, Type: "expense", Account: "unknownbank"}, ledgererror.ErrAccountNotFound, ledgererror.KindResolution},
		{"transfer without target", models.ClassifiedGuess{Amount: 3, Type: "transfer", Account: "Cash"}, ledgererror.ErrTransferMissingTarget, ledgererror.KindValidation},
		{"transfer to unknown", models.ClassifiedGuess{Amount: 3, Type: "transfer", Account: "Cash", TargetAccount: "Mars"}, ledgererror.ErrAccountNotFound, ledgererror.KindResolution},
		{"transfer to itself", models.ClassifiedGuess{Amount: 3, Type: "transfer", Account: "cash", TargetAccount: "现金"}, ledgererror.ErrSameAccount, ledgererror.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveGuess(tt.guess, directory, time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Equal(t, tt.kind, ledgererror.KindOf(err))
		})
	}

	_, err := ResolveGuess(models.ClassifiedGuess{Amount: 1, Type: "expense", Date: "next tuesday"}, directory, time.Now())
	assert.Equal(t, ledgererror.KindValidation, ledgererror.KindOf(err))
}

func TestResolveGuess_RepaymentOverrideScenario(t *testing.T) {
	text := "repaid my credit card 500"
	guess := models.ClassifiedGuess{Amount: 500, Type: "expense", Category: "Shopping", Account: "credit_card"}

	overridden, applied := repayment.NewRule().Apply(text, guess)
	require.True(t, applied)
	assert.Equal(t, "transfer", overridden.Type)
	assert.Equal(t, models.AccountDebitCard, overridden.Account)

	rt, err := ResolveGuess(overridden, directory, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeTransfer, rt.Type)
	assert.Equal(t, "DebitCard", rt.Account)
	assert.Equal(t, "CreditCard", rt.TargetAccount)
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount(0.1 + 0.2)
	require.NoError(t, err)
	assert.Equal(t, "0.3", got.String())

	got, err = ParseAmount(0)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
