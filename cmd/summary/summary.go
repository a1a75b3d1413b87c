// Package summary prints monthly income and expense totals.
package summary

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fjacquet/spend-ledger/cmd/root"
	"fjacquet/spend-ledger/internal/currencyutils"
)

var (
	months  int
	display string
)

// Cmd represents the summary command
var Cmd = &cobra.Command{
	Use:   "summary",
	Short: "Show monthly income and expense",
	Long:  `Show income and expense per calendar month, converted into one currency. Transfers between your own accounts are not counted.`,
	Args:  cobra.NoArgs,
	RunE:  summaryFunc,
}

func init() {
	Cmd.Flags().IntVarP(&months, "months", "m", 0, "Number of months including the current one (default: summary.default_months)")
	Cmd.Flags().StringVarP(&display, "display", "d", "", "Currency for the totals (CAD or CNY)")
}

func summaryFunc(cmd *cobra.Command, args []string) error {
	n := months
	if n == 0 {
		n = root.AppContainer.GetConfig().Summary.DefaultMonths
	}

	summary, err := root.AppContainer.GetService().MonthlySummary(cmd.Context(), root.UserID, n, display)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSE\tNET\t")
	for _, m := range summary.Months {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", m.Month,
			currencyutils.FormatAmount(m.Income, summary.Currency),
			currencyutils.FormatAmount(m.Expense, summary.Currency),
			currencyutils.FormatAmount(m.Net, summary.Currency))
	}
	fmt.Fprintf(w, "TOTAL\t%s\t%s\t%s\t\n",
		currencyutils.FormatAmount(summary.Income, summary.Currency),
		currencyutils.FormatAmount(summary.Expense, summary.Currency),
		currencyutils.FormatAmount(summary.Income.Sub(summary.Expense), summary.Currency))
	return w.Flush()
}
