package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fjacquet/spend-ledger/internal/dateutils"
	"fjacquet/spend-ledger/internal/ledger"
	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

type handler struct {
	svc    Ledger
	logger logging.Logger
	opts   Options
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ledgererror.Validation("decode request", err, "malformed JSON body")
	}
	return nil
}

// SubmitTextRequest is the body of POST /users/{userID}/transactions/text.
type SubmitTextRequest struct {
	Text string `json:"text"`
}

func (h *handler) submitText(w http.ResponseWriter, r *http.Request) {
	var req SubmitTextRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.svc.SubmitText(r.Context(), chi.URLParam(r, "userID"), req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.ListAccounts(r.Context(), chi.URLParam(r, "userID"), r.URL.Query().Get("display"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateAccountRequest is the body of POST /users/{userID}/accounts. Type defaults to
// liability.
type CreateAccountRequest struct {
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	Currency        string           `json:"currency"`
	DisplayCurrency string           `json:"display_currency"`
	InitialBalance  *decimal.Decimal `json:"initial_balance"`
	DueDate         *int             `json:"due_date"`
}

func (h *handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	acc := ledger.NewAccount{
		Name:            req.Name,
		Currency:        req.Currency,
		DisplayCurrency: req.DisplayCurrency,
		DueDate:         req.DueDate,
	}
	if req.InitialBalance != nil {
		acc.InitialBalance = *req.InitialBalance
	}

	userID := chi.URLParam(r, "userID")
	var (
		created models.Account
		err     error
	)
	if strings.TrimSpace(req.Type) == "" {
		created, err = h.svc.CreateLiabilityAccount(r.Context(), userID, acc)
	} else {
		acc.Type, err = models.ParseAccountType(req.Type)
		if err != nil {
			h.writeError(w, r, ledgererror.Validation("create account", err, ""))
			return
		}
		created, err = h.svc.CreateAccount(r.Context(), userID, acc)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ReconcileRequest is the body of PATCH /users/{userID}/accounts/{name}.
type ReconcileRequest struct {
	Balance         *decimal.Decimal `json:"balance"`
	DisplayCurrency *string          `json:"display_currency"`
	DueDate         *int             `json:"due_date"`
	ClearDueDate    bool             `json:"clear_due_date"`
}

func (h *handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	acc, err := h.svc.Reconcile(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "name"), ledger.AccountPatch{
		Balance:         req.Balance,
		DisplayCurrency: req.DisplayCurrency,
		DueDate:         req.DueDate,
		ClearDueDate:    req.ClearDueDate,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	months := h.opts.DefaultMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, ledgererror.Validation("monthly summary", err, fmt.Sprintf("invalid months %q", raw)))
			return
		}
		months = n
	}

	summary, err := h.svc.MonthlySummary(r.Context(), chi.URLParam(r, "userID"), months, r.URL.Query().Get("display"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// TransactionsResponse is the payload of GET /users/{userID}/transactions.
type TransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

func (h *handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := chi.URLParam(r, "userID")

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
		if _, err := h.svc.ExportTransactionsCSV(r.Context(), userID, from, to, w, h.opts.CSVDelimiter); err != nil {
			h.writeError(w, r, err)
		}
		return
	}

	txs, err := h.svc.ListTransactions(r.Context(), userID, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, TransactionsResponse{Transactions: txs})
}

func queryDate(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, _, err := dateutils.ParseDate(raw)
	if err != nil {
		return time.Time{}, ledgererror.Validation("parse query", err, fmt.Sprintf("invalid %s date %q", key, raw))
	}
	return t, nil
}
