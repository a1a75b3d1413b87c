package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/spend-ledger/internal/dateutils"
	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/valuation"
)

// MonthTotals is the income and expense of one calendar month.
type MonthTotals struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	// Categories holds expense totals per category.
	Categories map[string]decimal.Decimal `json:"categories,omitempty"`
}

// Summary is a month-by-month aggregate in one currency, oldest month first.
type Summary struct {
	Currency string          `json:"currency"`
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Months   []MonthTotals   `json:"months"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
}

// MonthlySummary aggregates income and expense over the last months calendar months,
// including the current one. Transfers move money between the user's own accounts and are
// left out. Amounts are converted from each source account's currency into display.
func (s *Service) MonthlySummary(ctx context.Context, userID string, months int, display string) (Summary, error) {
	const op = "monthly summary"

	if err := checkUser(op, userID); err != nil {
		return Summary{}, err
	}
	if months < 1 || months > s.opts.MaxSummaryMonths {
		return Summary{}, ledgererror.Validation(op, nil, fmt.Sprintf("months must be between 1 and %d, got %d", s.opts.MaxSummaryMonths, months))
	}
	display, err := s.displayCurrency(op, display)
	if err != nil {
		return Summary{}, err
	}

	accounts, err := s.directory.EnsureDefaults(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	currencyOf := make(map[string]string, len(accounts))
	for _, acc := range accounts {
		currencyOf[acc.Name] = acc.Currency
	}

	rate, err := s.rate(ctx)
	if err != nil {
		return Summary{}, err
	}

	from, to := dateutils.MonthWindow(s.now(), months)
	txs, err := s.store.ListTransactions(ctx, userID, from, to)
	if err != nil {
		return Summary{}, ledgererror.Persistence(op, err)
	}

	summary := Summary{Currency: display, From: from, To: to, Income: decimal.Zero, Expense: decimal.Zero}
	index := make(map[string]int, months)
	for m := dateutils.StartOfMonth(from); !m.After(to); m = m.AddDate(0, 1, 0) {
		key := dateutils.MonthKey(m)
		index[key] = len(summary.Months)
		summary.Months = append(summary.Months, MonthTotals{
			Month:   key,
			Income:  decimal.Zero,
			Expense: decimal.Zero,
			Net:     decimal.Zero,
		})
	}

	for _, tx := range txs {
		if tx.Type == models.TransactionTypeTransfer {
			continue
		}
		i, ok := index[dateutils.MonthKey(tx.Date)]
		if !ok {
			continue
		}
		currency, ok := currencyOf[tx.Account]
		if !ok {
			return Summary{}, ledgererror.Persistence(op, fmt.Errorf("transaction %s references unknown account %q", tx.ID, tx.Account))
		}
		converted, err := rate.ConvertMoney(models.NewMoney(tx.Amount, currency), display)
		if err != nil {
			return Summary{}, err
		}
		amount := converted.Round(valuation.DisplayPlaces).Amount

		month := &summary.Months[i]
		switch tx.Type {
		case models.TransactionTypeIncome:
			month.Income = month.Income.Add(amount)
			summary.Income = summary.Income.Add(amount)
		case models.TransactionTypeExpense:
			month.Expense = month.Expense.Add(amount)
			summary.Expense = summary.Expense.Add(amount)
			if month.Categories == nil {
				month.Categories = make(map[string]decimal.Decimal)
			}
			month.Categories[tx.Category] = month.Categories[tx.Category].Add(amount)
		}
		month.Net = month.Income.Sub(month.Expense)
	}

	return summary, nil
}
