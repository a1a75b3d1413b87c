package classifier

import (
	"context"
	"time"

	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"
)

// DefaultTimeout bounds a single classifier call.
const DefaultTimeout = 10 * time.Second

// Resilient bounds the primary classifier with a timeout and substitutes the degraded
// guess when it fails. A nil primary always degrades.
type Resilient struct {
	primary Classifier
	timeout time.Duration
	logger  logging.Logger
	now     func() time.Time
}

// NewResilient wraps primary. A non-positive timeout uses DefaultTimeout.
func NewResilient(primary Classifier, timeout time.Duration, logger logging.Logger) *Resilient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resilient{
		primary: primary,
		timeout: timeout,
		logger:  logging.OrNop(logger),
		now:     time.Now,
	}
}

// Classify implements Classifier.
func (r *Resilient) Classify(ctx context.Context, text string, accounts []string) (models.ClassifiedGuess, error) {
	if r.primary == nil {
		r.logger.Debug("No classifier configured, using fallback guess")
		return Fallback(text, r.now())
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := r.now()
	guess, err := r.primary.Classify(callCtx, text, accounts)
	if err == nil {
		return guess, nil
	}

	// The caller giving up is not an upstream fault.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.ClassifiedGuess{}, ctxErr
	}

	r.logger.WithError(err).Warn("Classifier failed, using fallback guess",
		logging.Field{Key: logging.FieldDegraded, Value: true},
		logging.Field{Key: logging.FieldDuration, Value: r.now().Sub(start).String()})
	return Fallback(text, r.now())
}
