// Package api is the HTTP surface of the ledger service.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fjacquet/spend-ledger/internal/ledger"
	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/service"
)

// Ledger is the set of service operations the HTTP layer needs.
type Ledger interface {
	SubmitText(ctx context.Context, userID, text string) (service.SubmitResult, error)
	ListAccounts(ctx context.Context, userID, display string) (service.AccountsView, error)
	CreateAccount(ctx context.Context, userID string, req ledger.NewAccount) (models.Account, error)
	CreateLiabilityAccount(ctx context.Context, userID string, req ledger.NewAccount) (models.Account, error)
	Reconcile(ctx context.Context, userID, name string, patch ledger.AccountPatch) (models.Account, error)
	MonthlySummary(ctx context.Context, userID string, months int, display string) (service.Summary, error)
	ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error)
	ExportTransactionsCSV(ctx context.Context, userID string, from, to time.Time, w io.Writer, delimiter rune) (int, error)
}

// Options tunes the router.
type Options struct {
	RequestTimeout time.Duration
	DefaultMonths  int
	CSVDelimiter   rune
}

// NewRouter builds the HTTP handler.
func NewRouter(svc Ledger, logger logging.Logger, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.DefaultMonths <= 0 {
		opts.DefaultMonths = service.DefaultSummaryMonths
	}
	if opts.CSVDelimiter == 0 {
		opts.CSVDelimiter = ','
	}

	h := &handler{svc: svc, logger: logging.OrNop(logger), opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Post("/transactions/text", h.submitText)
		r.Get("/transactions", h.listTransactions)

		r.Get("/accounts", h.listAccounts)
		r.Post("/accounts", h.createAccount)
		r.Patch("/accounts/{name}", h.reconcile)

		r.Get("/summary", h.summary)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

// requestLogger logs one line per request through the application logger.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				logging.Field{Key: logging.FieldRequestID, Value: middleware.GetReqID(r.Context())},
				logging.Field{Key: "method", Value: r.Method},
				logging.Field{Key: logging.FieldPath, Value: r.URL.Path},
				logging.Field{Key: logging.FieldStatus, Value: ww.Status()},
				logging.Field{Key: logging.FieldDuration, Value: time.Since(start).String()})
		})
	}
}
