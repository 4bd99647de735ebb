// Package datecache serves the oracle's per-date classifications from an
// in-process ristretto cache in front of the business_days table.
//
// Classifications are written once and never change, so cached entries
// cannot go stale. Only non-empty values are cached, and values are added
// to memory only after the writing transaction committed (see Remember).
package datecache

import (
	"context"
	"errors"

	"github.com/dgraph-io/ristretto/v2"
	"gorm.io/gorm"

	"github.com/tbourn/rentald/internal/domain"
	"github.com/tbourn/rentald/internal/repo"
)

// DefaultMaxBytes bounds the cache when no size is configured.
const DefaultMaxBytes int64 = 1 << 20

// Cache is the date result cache.
type Cache struct {
	db *gorm.DB
	c  *ristretto.Cache[string, string]
}

// New creates a cache over db holding at most maxCostBytes of values.
func New(db *gorm.DB, maxCostBytes int64) (*Cache, error) {
	if maxCostBytes <= 0 {
		maxCostBytes = DefaultMaxBytes
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, c: c}, nil
}

// Get returns the stored classification for date, "" when none exists.
func (c *Cache) Get(ctx context.Context, date domain.Bytes32) (string, error) {
	key := date.Key()
	if v, ok := c.c.Get(key); ok {
		return v, nil
	}
	row, err := repo.GetBusinessDay(ctx, c.db, key)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	c.Remember(date, row.Classification)
	return row.Classification, nil
}

// Put writes a classification inside tx unless the date already has one,
// and returns the value that is stored afterwards. The cache is not
// touched; call Remember once tx committed.
func (c *Cache) Put(ctx context.Context, tx *gorm.DB, date domain.Bytes32, classification domain.Bytes32, requestID string) (string, error) {
	row, _, err := repo.InsertBusinessDay(ctx, tx, domain.BusinessDay{
		DateKey:        date.Key(),
		Classification: classification.String(),
		RequestID:      requestID,
	})
	if err != nil {
		return "", err
	}
	return row.Classification, nil
}

// Remember caches a committed classification.
func (c *Cache) Remember(date domain.Bytes32, classification string) {
	if classification == "" {
		return
	}
	c.c.Set(date.Key(), classification, int64(len(classification)))
}

// Wait blocks until buffered writes are applied.
func (c *Cache) Wait() { c.c.Wait() }

// Close releases the cache.
func (c *Cache) Close() { c.c.Close() }
