// Package valuation computes net-worth style totals over accounts held in different
// currencies. Conversion happens here only, on read; stored balances are never touched.
package valuation

import (
	"fmt"

	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the rounding applied to converted figures presented to users.
const DisplayPlaces int32 = 2

// Rate is a conversion rate: one unit of From is worth Value units of To.
type Rate struct {
	From  string
	To    string
	Value decimal.Decimal
}

// NewRate builds a Rate, rejecting non-positive values.
func NewRate(from, to string, value decimal.Decimal) (Rate, error) {
	if !value.IsPositive() {
		return Rate{}, ledgererror.Validation("new rate", nil, fmt.Sprintf("rate %s->%s must be positive, got %s", from, to, value))
	}
	return Rate{From: models.NormalizeCurrency(from), To: models.NormalizeCurrency(to), Value: value}, nil
}

// Convert expresses amount, held in currency from, in currency to. The rate is used in
// either direction. Identity conversions return amount unchanged.
func (r Rate) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	switch {
	case from == to:
		return amount, nil
	case from == r.From && to == r.To:
		return amount.Mul(r.Value), nil
	case from == r.To && to == r.From:
		if r.Value.IsZero() {
			return decimal.Zero, fmt.Errorf("zero rate %s->%s", r.From, r.To)
		}
		return amount.DivRound(r.Value, 16), nil
	default:
		return decimal.Zero, ledgererror.Validation("convert", ledgererror.ErrUnsupportedCurrency,
			fmt.Sprintf("no rate between %s and %s", from, to))
	}
}

// ConvertMoney is Convert for a Money value.
func (r Rate) ConvertMoney(m models.Money, to string) (models.Money, error) {
	amount, err := r.Convert(m.Amount, m.Currency, to)
	if err != nil {
		return models.Money{}, err
	}
	return models.NewMoney(amount, to), nil
}

// Line is one account's contribution to a total.
type Line struct {
	Account models.Account `json:"account"`
	// Converted is the native balance in the display currency, unsigned.
	Converted decimal.Decimal `json:"converted"`
	// Contribution is Converted with the sign of the account type applied.
	Contribution decimal.Decimal `json:"contribution"`
	// Preferred is the native balance in the account's own display currency.
	Preferred models.Money `json:"preferred"`
}

// Result is a valuation of a set of accounts in one display currency.
type Result struct {
	Currency string          `json:"currency"`
	Lines    []Line          `json:"lines"`
	Total    decimal.Decimal `json:"total"`
}

// Value converts every account balance into display and sums them: assets add and
// liabilities subtract. Converted figures are rounded to DisplayPlaces.
func Value(accounts []models.Account, display string, rate Rate) (Result, error) {
	display = models.NormalizeCurrency(display)
	if !models.IsSupportedCurrency(display) {
		return Result{}, ledgererror.Validation("value accounts", ledgererror.ErrUnsupportedCurrency, fmt.Sprintf("currency %q", display))
	}

	lines := make([]Line, 0, len(accounts))
	total := models.ZeroMoney(display)
	for _, acc := range accounts {
		balance := acc.BalanceMoney()

		converted, err := rate.ConvertMoney(balance, display)
		if err != nil {
			return Result{}, fmt.Errorf("account %s: %w", acc.Name, err)
		}
		converted = converted.Round(DisplayPlaces)

		preferred, err := rate.ConvertMoney(balance, acc.EffectiveDisplayCurrency())
		if err != nil {
			return Result{}, fmt.Errorf("account %s: %w", acc.Name, err)
		}

		contribution := converted
		if acc.IsLiability() {
			contribution = converted.Neg()
		}
		if total, err = total.Add(contribution); err != nil {
			return Result{}, fmt.Errorf("account %s: %w", acc.Name, err)
		}

		lines = append(lines, Line{
			Account:      acc,
			Converted:    converted.Amount,
			Contribution: contribution.Amount,
			Preferred:    preferred.Round(DisplayPlaces),
		})
	}
	return Result{Currency: display, Lines: lines, Total: total.Amount}, nil
}

// Total is Value without the per-account lines.
func Total(accounts []models.Account, display string, rate Rate) (decimal.Decimal, error) {
	res, err := Value(accounts, display, rate)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Total, nil
}
