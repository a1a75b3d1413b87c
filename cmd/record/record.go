// Package record submits free-text spending notes from the command line.
package record

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fjacquet/spend-ledger/cmd/root"
	"fjacquet/spend-ledger/internal/currencyutils"
	"fjacquet/spend-ledger/internal/dateutils"
	"fjacquet/spend-ledger/internal/models"
)

// Cmd represents the record command
var Cmd = &cobra.Command{
	Use:   "record TEXT...",
	Short: "Record a transaction from free text",
	Long: `Record a transaction described in free text, for example:

  spend-ledger record "lunch 35 with debit"
  spend-ledger record 还信用卡 500`,
	Args: cobra.MinimumNArgs(1),
	RunE: recordFunc,
}

func recordFunc(cmd *cobra.Command, args []string) error {
	svc := root.AppContainer.GetService()

	res, err := svc.SubmitText(cmd.Context(), root.UserID, strings.Join(args, " "))
	if err != nil {
		return err
	}

	accounts, err := root.AppContainer.GetStore().ListAccounts(cmd.Context(), root.UserID)
	if err != nil {
		return err
	}
	currency := ""
	for _, a := range accounts {
		if a.Name == res.Transaction.Account {
			currency = a.Currency
		}
	}

	tx := res.Transaction
	out := cmd.OutOrStdout()
	switch tx.Type {
	case models.TransactionTypeTransfer:
		fmt.Fprintf(out, "%s transfer %s → %s %s", dateutils.ToISODate(tx.Date), tx.Account, tx.TargetAccount, currencyutils.FormatAmount(tx.Amount, currency))
	default:
		fmt.Fprintf(out, "%s %s %s %s [%s]", dateutils.ToISODate(tx.Date), tx.Type, tx.Account, currencyutils.FormatAmount(tx.Amount, currency), tx.Category)
	}
	if tx.Degraded {
		fmt.Fprint(out, " (classifier unavailable, please review)")
	}
	if res.RepaymentOverride {
		fmt.Fprint(out, " (credit card repayment)")
	}
	fmt.Fprintln(out)
	return nil
}
