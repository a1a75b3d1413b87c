// Package accounts lists, creates and reconciles ledger accounts.
package accounts

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"fjacquet/spend-ledger/cmd/root"
	"fjacquet/spend-ledger/internal/currencyutils"
	"fjacquet/spend-ledger/internal/ledger"
	"fjacquet/spend-ledger/internal/models"
)

var display string

// createOptions holds the flags of accounts create.
type createOptions struct {
	accountType     string
	currency        string
	displayCurrency string
	initialBalance  string
	dueDate         int
}

// reconcileOptions holds the flags of accounts reconcile.
type reconcileOptions struct {
	balance         string
	displayCurrency string
	dueDate         int
	clearDueDate    bool
}

var (
	createOpts    createOptions
	reconcileOpts reconcileOptions
)

// Cmd represents the accounts command
var Cmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage ledger accounts",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with balances and net worth",
	Args:  cobra.NoArgs,
	RunE:  listFunc,
}

var createCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an account (a liability unless --type asset)",
	Args:  cobra.ExactArgs(1),
	RunE:  createFunc,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile NAME",
	Short: "Overwrite an account balance or metadata to match a statement",
	Args:  cobra.ExactArgs(1),
	RunE:  reconcileFunc,
}

func init() {
	listCmd.Flags().StringVarP(&display, "display", "d", "", "Currency for the total (CAD or CNY)")

	createCmd.Flags().StringVarP(&createOpts.accountType, "type", "t", string(models.AccountTypeLiability), "Account type (asset or liability)")
	createCmd.Flags().StringVar(&createOpts.currency, "currency", models.CurrencyCAD, "Native currency (CAD or CNY)")
	createCmd.Flags().StringVar(&createOpts.displayCurrency, "display-currency", "", "Preferred display currency")
	createCmd.Flags().StringVar(&createOpts.initialBalance, "initial-balance", "0", "Opening balance in the native currency")
	createCmd.Flags().IntVar(&createOpts.dueDate, "due-date", 0, "Payment due day of month (liabilities only)")

	reconcileCmd.Flags().StringVar(&reconcileOpts.balance, "balance", "", "New balance in the native currency")
	reconcileCmd.Flags().StringVar(&reconcileOpts.displayCurrency, "display-currency", "", "New display currency")
	reconcileCmd.Flags().IntVar(&reconcileOpts.dueDate, "due-date", 0, "New payment due day of month")
	reconcileCmd.Flags().BoolVar(&reconcileOpts.clearDueDate, "clear-due-date", false, "Remove the due date")

	Cmd.AddCommand(listCmd, createCmd, reconcileCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	defer resetFlags(cmd)

	view, err := root.AppContainer.GetService().ListAccounts(cmd.Context(), root.UserID, display)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ACCOUNT\tTYPE\tDUE\tBALANCE\tVALUE\t")
	for _, line := range view.Valuation.Lines {
		acc := line.Account
		due := "-"
		if acc.DueDate != nil {
			due = fmt.Sprintf("day %d", *acc.DueDate)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", acc.Name, acc.Type, due,
			currencyutils.FormatAmount(acc.Balance, acc.Currency),
			currencyutils.FormatAmount(line.Contribution, view.Valuation.Currency))
	}
	fmt.Fprintf(w, "NET WORTH\t\t\t\t%s\t\n", currencyutils.FormatAmount(view.Valuation.Total, view.Valuation.Currency))
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "1 CAD = %s CNY\n", view.Rate.Value.String())
	return nil
}

func createFunc(cmd *cobra.Command, args []string) error {
	opts := createOpts
	defer resetFlags(cmd)

	accType, err := models.ParseAccountType(opts.accountType)
	if err != nil {
		return err
	}
	opening, err := decimal.NewFromString(opts.initialBalance)
	if err != nil {
		return fmt.Errorf("invalid initial balance %q: %w", opts.initialBalance, err)
	}

	req := ledger.NewAccount{
		Name:            args[0],
		Type:            accType,
		Currency:        opts.currency,
		DisplayCurrency: opts.displayCurrency,
		InitialBalance:  opening,
	}
	if cmd.Flags().Changed("due-date") {
		d := opts.dueDate
		req.DueDate = &d
	}

	acc, err := root.AppContainer.GetService().CreateAccount(cmd.Context(), root.UserID, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %s (%s)\n", acc.Type, acc.Name, acc.Currency)
	return nil
}

func reconcileFunc(cmd *cobra.Command, args []string) error {
	opts := reconcileOpts
	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	defer resetFlags(cmd)

	var patch ledger.AccountPatch
	if changed("balance") {
		b, err := decimal.NewFromString(opts.balance)
		if err != nil {
			return fmt.Errorf("invalid balance %q: %w", opts.balance, err)
		}
		patch.Balance = &b
	}
	if changed("display-currency") {
		d := opts.displayCurrency
		patch.DisplayCurrency = &d
	}
	if changed("due-date") {
		d := opts.dueDate
		patch.DueDate = &d
	}
	patch.ClearDueDate = opts.clearDueDate

	acc, err := root.AppContainer.GetService().Reconcile(cmd.Context(), root.UserID, args[0], patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s balance is now %s\n", acc.Name, currencyutils.FormatAmount(acc.Balance, acc.Currency))
	return nil
}

// resetFlags restores a subcommand's flags to their defaults so values from one in-process
// execution never leak into the next.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}
