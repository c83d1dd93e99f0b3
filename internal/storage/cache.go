package storage

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"fintrack/internal/models"
)

// CachedStore wraps a Store with a hash-existence cache. During import the
// same hashes are looked up over and over; only positive answers are cached
// because a missing hash is about to be inserted.
type CachedStore struct {
	Store
	cache *ristretto.Cache[string, bool]
}

// NewCachedStore builds the cache around an existing store.
func NewCachedStore(inner Store) (*CachedStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, bool]{
		NumCounters: 100_000,
		MaxCost:     100_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing hash cache: %w", err)
	}
	return &CachedStore{Store: inner, cache: cache}, nil
}

func (s *CachedStore) Exists(ctx context.Context, txHash string) (bool, error) {
	if hit, found := s.cache.Get(txHash); found && hit {
		return true, nil
	}
	exists, err := s.Store.Exists(ctx, txHash)
	if err != nil {
		return false, err
	}
	if exists {
		s.cache.Set(txHash, true, 1)
	}
	return exists, nil
}

func (s *CachedStore) InsertPending(ctx context.Context, tx *models.TransactionRecord) (bool, error) {
	inserted, err := s.Store.InsertPending(ctx, tx)
	if err != nil {
		return false, err
	}
	// Whether freshly inserted or already present, the hash is in the
	// database now.
	s.cache.Set(tx.TxHash, true, 1)
	return inserted, nil
}

// Wait flushes pending cache writes. Tests use it to make Set visible.
func (s *CachedStore) Wait() {
	s.cache.Wait()
}

// Close releases the cache.
func (s *CachedStore) Close() {
	s.cache.Close()
}
