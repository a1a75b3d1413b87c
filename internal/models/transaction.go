package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of ledger operation. The sign of the balance change is
// derived from it together with the account type, never stored on the amount.
type TransactionType string

const (
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeTransfer TransactionType = "transfer"
)

// String returns the string representation of the transaction type
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeExpense, TransactionTypeIncome, TransactionTypeTransfer:
		return true
	default:
		return false
	}
}

// ParseTransactionType converts free-form input such as "Expense " to a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// Transaction is an immutable ledger record. Amount is a non-negative magnitude.
type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	Category      string          `json:"category"`
	Account       string          `json:"account"`
	TargetAccount string          `json:"target_account,omitempty"`
	Date          time.Time       `json:"date"`
	Note          string          `json:"note,omitempty"`
	Degraded      bool            `json:"degraded,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ClassifiedGuess is the untrusted structure produced by the text classifier.
// None of its fields may influence state before validation and name resolution.
type ClassifiedGuess struct {
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	Category      string  `json:"category"`
	Account       string  `json:"account"`
	TargetAccount string  `json:"target_account"`
	Date          string  `json:"date"`
	Note          string  `json:"note"`

	// Degraded marks a guess built by the deterministic fallback instead of the classifier.
	Degraded bool `json:"-"`
}

// ResolvedTransaction is a guess that passed validation and whose account names are
// canonical names from the user's directory.
type ResolvedTransaction struct {
	Amount        decimal.Decimal
	Type          TransactionType
	Category      string
	Account       string
	TargetAccount string
	Date          time.Time
	Note          string
	Degraded      bool
}

// IsTransfer returns true if the transaction moves value between two accounts.
func (r ResolvedTransaction) IsTransfer() bool {
	return r.Type == TransactionTypeTransfer
}
