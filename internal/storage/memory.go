package storage

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/models"
)

// MemoryStore is an in-memory Store used by tests and the offline CLI mode.
type MemoryStore struct {
	mu     sync.RWMutex
	nextTx int64
	txs    []models.TransactionRecord
	byHash map[string]int

	nextRule int64
	rules    []models.LearningRule

	// FailBulkUpdateAfter makes BulkUpdateStatus fail after that many rows,
	// for atomicity tests. Zero disables it.
	FailBulkUpdateAfter int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byHash: make(map[string]int)}
}

func (s *MemoryStore) Exists(_ context.Context, txHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byHash[txHash]
	return ok, nil
}

func (s *MemoryStore) InsertPending(_ context.Context, tx *models.TransactionRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHash[tx.TxHash]; ok {
		return false, nil
	}
	s.nextTx++
	tx.ID = s.nextTx
	tx.Status = models.StatusPending
	s.byHash[tx.TxHash] = len(s.txs)
	s.txs = append(s.txs, *tx)
	return true, nil
}

func (s *MemoryStore) ListPending(_ context.Context) ([]models.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TransactionRecord
	for _, tx := range s.txs {
		if tx.Status == models.StatusPending {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, id int64) (models.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		return models.TransactionRecord{}, ErrNotFound
	}
	return s.txs[idx], nil
}

func (s *MemoryStore) BulkUpdateStatus(_ context.Context, updates []StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stage everything first so a failure leaves the store untouched.
	staged := make(map[int]models.TransactionRecord, len(updates))
	for n, u := range updates {
		if s.FailBulkUpdateAfter > 0 && n >= s.FailBulkUpdateAfter {
			return ErrNotFound
		}
		idx := s.indexOfLocked(u.ID)
		if idx < 0 {
			return ErrNotFound
		}
		tx := s.txs[idx]
		tx.Status = models.StatusValidated
		tx.CategoryValidated = u.Category
		tx.Member = u.Member
		tx.Beneficiary = u.Beneficiary
		tx.Tags = u.Tags
		staged[idx] = tx
	}
	for idx, tx := range staged {
		s.txs[idx] = tx
	}
	return nil
}

func (s *MemoryStore) SetManuallyUngrouped(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.txs[idx].IsManuallyUngrouped = true
	return nil
}

func (s *MemoryStore) ListRules(_ context.Context) ([]models.LearningRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.LearningRule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *MemoryStore) CreateRule(_ context.Context, rule *models.LearningRule) (*models.LearningRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRule++
	rule.ID = s.nextRule
	rule.CreatedAt = time.Now()
	s.rules = append(s.rules, *rule)
	return rule, nil
}

func (s *MemoryStore) DeleteRule(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rules {
		if r.ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Get returns a transaction by id, for test assertions.
func (s *MemoryStore) Get(id int64) (models.TransactionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		return models.TransactionRecord{}, false
	}
	return s.txs[idx], true
}

func (s *MemoryStore) indexOfLocked(id int64) int {
	for i := range s.txs {
		if s.txs[i].ID == id {
			return i
		}
	}
	return -1
}
