// Package export writes transactions as CSV.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"fjacquet/spend-ledger/cmd/root"
	"fjacquet/spend-ledger/internal/dateutils"
	"fjacquet/spend-ledger/internal/fileutils"
	"fjacquet/spend-ledger/internal/logging"
)

var (
	from   string
	to     string
	output string
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export transactions to CSV",
	Args:  cobra.NoArgs,
	RunE:  exportFunc,
}

func init() {
	Cmd.Flags().StringVar(&from, "from", "", "First day to include (YYYY-MM-DD)")
	Cmd.Flags().StringVar(&to, "to", "", "Last day to include (YYYY-MM-DD)")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
}

func parseBound(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, _, err := dateutils.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return t, nil
}

func exportFunc(cmd *cobra.Command, args []string) error {
	fromDate, err := parseBound("from", from)
	if err != nil {
		return err
	}
	toDate, err := parseBound("to", to)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		file, err := fileutils.CreateFile(output)
		if err != nil {
			return fmt.Errorf("error creating CSV file: %w", err)
		}
		defer file.Close()
		w = file
	}

	cfg := root.AppContainer.GetConfig()
	n, err := root.AppContainer.GetService().ExportTransactionsCSV(cmd.Context(), root.UserID, fromDate, toDate, w, cfg.ExportDelimiter())
	if err != nil {
		return err
	}

	if output != "" {
		root.AppContainer.GetLogger().Info("Wrote transactions",
			logging.Field{Key: logging.FieldPath, Value: output},
			logging.Field{Key: logging.FieldCount, Value: n})
	}
	return nil
}
