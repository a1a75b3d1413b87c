// Package fxrate supplies the CAD/CNY exchange rate used for valuation. Rates are never
// applied to stored balances.
package fxrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/spend-ledger/internal/logging"
)

// DefaultFallbackRate is CAD→CNY, used when neither the network nor the cache has a rate.
var DefaultFallbackRate = decimal.RequireFromString("5.2")

// ErrRateUnavailable is returned when a provider has no rate for the pair.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Provider returns how many units of to one unit of from buys.
type Provider interface {
	LatestRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Fixed always returns the same rate for one pair, and its inverse for the reverse pair.
type Fixed struct {
	From  string
	To    string
	Value decimal.Decimal
}

// LatestRate implements Provider.
func (f Fixed) LatestRate(_ context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	switch {
	case from == to:
		return decimal.NewFromInt(1), nil
	case from == f.From && to == f.To:
		return f.Value, nil
	case from == f.To && to == f.From && f.Value.IsPositive():
		return decimal.NewFromInt(1).DivRound(f.Value, 16), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %s/%s", ErrRateUnavailable, from, to)
	}
}

// Cache persists the last rate that was fetched successfully.
type Cache interface {
	Get(from, to string) (decimal.Decimal, time.Time, error)
	Put(from, to string, rate decimal.Decimal, fetchedAt time.Time) error
}

// Chain asks the live provider first, then the cache, then the fixed fallback. It never
// fails for the configured pair.
type Chain struct {
	live     Provider
	cache    Cache
	fallback Fixed
	timeout  time.Duration
	logger   logging.Logger
	now      func() time.Time
}

// NewChain builds a Chain. live and cache may be nil.
func NewChain(live Provider, cache Cache, fallback Fixed, timeout time.Duration, logger logging.Logger) *Chain {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Chain{
		live:     live,
		cache:    cache,
		fallback: fallback,
		timeout:  timeout,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
}

// LatestRate implements Provider.
func (c *Chain) LatestRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	log := c.logger.WithFields(
		logging.Field{Key: logging.FieldCurrency, Value: from + "/" + to})

	if c.live != nil {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		rate, err := c.live.LatestRate(callCtx, from, to)
		cancel()
		if err == nil && rate.IsPositive() {
			if c.cache != nil {
				if err := c.cache.Put(from, to, rate, c.now()); err != nil {
					log.WithError(err).Warn("Failed to cache exchange rate")
				}
			}
			return rate, nil
		}
		if err == nil {
			err = fmt.Errorf("%w: non-positive rate %s", ErrRateUnavailable, rate)
		}
		log.WithError(err).Warn("Live exchange rate unavailable")
	}

	if c.cache != nil {
		rate, fetchedAt, err := c.cache.Get(from, to)
		if err == nil {
			log.Info("Using cached exchange rate",
				logging.Field{Key: "fetched_at", Value: fetchedAt.Format(time.RFC3339)})
			return rate, nil
		}
		if !errors.Is(err, ErrRateUnavailable) {
			log.WithError(err).Warn("Failed to read cached exchange rate")
		}
	}

	rate, err := c.fallback.LatestRate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	log.Warn("Using fallback exchange rate", logging.Field{Key: "rate", Value: rate.String()})
	return rate, nil
}
