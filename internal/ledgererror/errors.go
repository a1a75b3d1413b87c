// Package ledgererror defines the error taxonomy shared by the ledger core and its callers.
// Every error carries a stable Kind so transports can map it without string matching.
package ledgererror

import (
	"errors"
	"fmt"
)

// Kind is the machine-checkable class of a failure.
type Kind string

const (
	// KindValidation is malformed or missing input. Caller-correctable.
	KindValidation Kind = "validation"
	// KindResolution is an account name that cannot be matched. Caller-correctable.
	KindResolution Kind = "resolution"
	// KindConflict is a duplicate account on creation.
	KindConflict Kind = "conflict"
	// KindUpstreamDegraded is a classifier or FX failure with no usable fallback.
	KindUpstreamDegraded Kind = "upstream_degraded"
	// KindPersistence is a storage failure. Nothing was written.
	KindPersistence Kind = "persistence"
)

// Sentinel causes. Match them with errors.Is.
var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrTransferMissingTarget = errors.New("transfer requires a target account")
	ErrInvalidAmount         = errors.New("amount must be a finite non-negative number")
	ErrInvalidType           = errors.New("invalid transaction type")
	ErrSameAccount           = errors.New("source and target account are the same")
	ErrCurrencyMismatch      = errors.New("accounts use different currencies")
	ErrUnsupportedCurrency   = errors.New("unsupported currency")
	ErrDuplicateAccount      = errors.New("account already exists")
	ErrClassifierUnavailable = errors.New("classifier unavailable and no fallback could be built")
)

// Error is a ledger failure with a kind, the failing operation and a human-readable reason.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind.
func New(kind Kind, op string, cause error, reason string) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason, Err: cause}
}

// Validation wraps cause as a validation error.
func Validation(op string, cause error, reason string) *Error {
	return New(KindValidation, op, cause, reason)
}

// Resolution reports an unmatched account name.
func Resolution(op, rawName string) *Error {
	return New(KindResolution, op, ErrAccountNotFound, fmt.Sprintf("no account matches %q", rawName))
}

// Conflict reports a duplicate account.
func Conflict(op, name string) *Error {
	return New(KindConflict, op, ErrDuplicateAccount, fmt.Sprintf("account %q", name))
}

// Persistence wraps a storage failure.
func Persistence(op string, cause error) *Error {
	return New(KindPersistence, op, cause, "")
}

// KindOf returns the kind of err. Errors outside the taxonomy are persistence faults.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return KindResolution
	case errors.Is(err, ErrDuplicateAccount):
		return KindConflict
	case errors.Is(err, ErrTransferMissingTarget), errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidType), errors.Is(err, ErrSameAccount),
		errors.Is(err, ErrCurrencyMismatch), errors.Is(err, ErrUnsupportedCurrency):
		return KindValidation
	case errors.Is(err, ErrClassifierUnavailable):
		return KindUpstreamDegraded
	default:
		return KindPersistence
	}
}

// IsUserCorrectable reports whether the caller can fix err by changing the input.
func IsUserCorrectable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindResolution, KindConflict:
		return true
	default:
		return false
	}
}
