package fxrate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"

	"fjacquet/spend-ledger/internal/fileutils"
)

const bucketRates = "rates"

type cachedRate struct {
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// BoltCache stores the last known good rate per pair in a bbolt file.
type BoltCache struct {
	db *bolt.DB
}

// OpenBoltCache opens or creates the cache file at path.
func OpenBoltCache(path string) (*BoltCache, error) {
	if err := fileutils.EnsureParentDirectory(path); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open rate cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRates))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketRates, err)
	}

	return &BoltCache{db: db}, nil
}

func pairKey(from, to string) []byte {
	return []byte(strings.ToUpper(from) + "/" + strings.ToUpper(to))
}

// Get returns the cached rate, or ErrRateUnavailable.
func (c *BoltCache) Get(from, to string) (decimal.Decimal, time.Time, error) {
	var entry cachedRate
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketRates)).Get(pairKey(from, to))
		if data == nil {
			return ErrRateUnavailable
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return entry.Rate, entry.FetchedAt, nil
}

// Put records rate as the latest known value for the pair.
func (c *BoltCache) Put(from, to string, rate decimal.Decimal, fetchedAt time.Time) error {
	data, err := json.Marshal(cachedRate{Rate: rate, FetchedAt: fetchedAt.UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal rate: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRates)).Put(pairKey(from, to), data)
	})
}

// Close closes the database.
func (c *BoltCache) Close() error {
	return c.db.Close()
}
