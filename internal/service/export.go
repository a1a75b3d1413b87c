package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"fjacquet/spend-ledger/internal/dateutils"
	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/logging"
)

// transactionRow is the CSV layout of an exported transaction.
type transactionRow struct {
	ID            string `csv:"ID"`
	Date          string `csv:"Date"`
	Type          string `csv:"Type"`
	Amount        string `csv:"Amount"`
	Currency      string `csv:"Currency"`
	Category      string `csv:"Category"`
	Account       string `csv:"Account"`
	TargetAccount string `csv:"TargetAccount"`
	Note          string `csv:"Note"`
	Degraded      bool   `csv:"Degraded"`
	CreatedAt     string `csv:"CreatedAt"`
}

// ExportTransactionsCSV writes the user's transactions in [from, to] to w. Amounts are in
// the source account's native currency.
func (s *Service) ExportTransactionsCSV(ctx context.Context, userID string, from, to time.Time, w io.Writer, delimiter rune) (int, error) {
	const op = "export transactions"

	txs, err := s.ListTransactions(ctx, userID, from, to)
	if err != nil {
		return 0, err
	}
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return 0, ledgererror.Persistence(op, err)
	}
	currencyOf := make(map[string]string, len(accounts))
	for _, acc := range accounts {
		currencyOf[acc.Name] = acc.Currency
	}

	rows := make([]transactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, transactionRow{
			ID:            tx.ID,
			Date:          dateutils.ToISODate(tx.Date),
			Type:          tx.Type.String(),
			Amount:        tx.Amount.StringFixed(2),
			Currency:      currencyOf[tx.Account],
			Category:      tx.Category,
			Account:       tx.Account,
			TargetAccount: tx.TargetAccount,
			Note:          tx.Note,
			Degraded:      tx.Degraded,
			CreatedAt:     tx.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	csvWriter := csv.NewWriter(w)
	if delimiter != 0 {
		csvWriter.Comma = delimiter
	}
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return 0, fmt.Errorf("error writing CSV data: %w", err)
	}

	s.logger.Info("Exported transactions",
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return len(rows), nil
}
