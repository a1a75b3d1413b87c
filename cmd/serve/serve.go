// Package serve runs the HTTP API.
package serve

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fjacquet/spend-ledger/cmd/root"
	"fjacquet/spend-ledger/internal/api"
	"fjacquet/spend-ledger/internal/logging"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ledger over HTTP",
	Long:  `Serve the ledger API: text submission, accounts, reconciliation, summaries and transaction export.`,
	RunE:  serveFunc,
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from config)")
}

// NewServer builds the HTTP server from the wired container.
func NewServer(listen string) *http.Server {
	cfg := root.AppContainer.GetConfig()
	if listen == "" {
		listen = cfg.Server.Addr
	}
	handler := api.NewRouter(root.AppContainer.GetService(), root.AppContainer.GetLogger(), api.Options{
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
		DefaultMonths:  cfg.Summary.DefaultMonths,
		CSVDelimiter:   cfg.ExportDelimiter(),
	})
	return &http.Server{
		Addr:         listen,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.Server.RequestTimeoutSeconds+15) * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func serveFunc(cmd *cobra.Command, args []string) error {
	logger := root.AppContainer.GetLogger()
	server := NewServer(addr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ledger API", logging.Field{Key: "addr", Value: server.Addr})
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down ledger API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
