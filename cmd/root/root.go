// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fjacquet/spend-ledger/internal/config"
	"fjacquet/spend-ledger/internal/container"
	"fjacquet/spend-ledger/internal/logging"
)

// DefaultUser is the ledger owner when neither --user nor LEDGER_USER is set.
const DefaultUser = "default"

var (
	// ConfigFile is an explicit configuration file path.
	ConfigFile string
	// LogLevel overrides log.level when set.
	LogLevel string
	// UserID is the ledger owner the command acts on.
	UserID string

	// AppContainer holds the wired dependencies once PersistentPreRunE has run.
	AppContainer *container.Container

	// Options are passed to container.NewContainer. Tests use them to inject fakes.
	Options []container.Option

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "spend-ledger",
		Short: "Record spending from free text into a personal CAD/CNY ledger.",
		Long: `spend-ledger turns free-text notes such as "lunch 35 with debit" or "还信用卡 500"
into transactions, applies them to asset and liability accounts and reports balances and
monthly totals in either CAD or CNY.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer == nil {
				return
			}
			if err := AppContainer.Close(); err != nil {
				AppContainer.GetLogger().WithError(err).Warn("Failed to release resources")
			}
			AppContainer = nil
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "Configuration file (default: $HOME/.spend-ledger/config.yaml)")
	Cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	Cmd.PersistentFlags().StringVarP(&UserID, "user", "u", "", "Ledger owner (default: $LEDGER_USER or \"default\")")
}

func setup(cmd *cobra.Command, args []string) error {
	config.LoadEnv(nil)

	cfg, err := config.Load(ConfigFile)
	if err != nil {
		return err
	}
	if LogLevel != "" {
		cfg.Log.Level = LogLevel
	}
	if UserID == "" {
		UserID = os.Getenv("LEDGER_USER")
	}
	if UserID == "" {
		UserID = DefaultUser
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := container.NewContainer(ctx, cfg, Options...)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	AppContainer = c

	c.GetLogger().Debug("Command started",
		logging.Field{Key: logging.FieldOperation, Value: cmd.Name()},
		logging.Field{Key: logging.FieldUserID, Value: UserID})
	return nil
}
