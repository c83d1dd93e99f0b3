// Package storage persists transactions and learning rules. PostgresStore is
// the production implementation; MemoryStore backs tests; CachedStore wraps
// either with a hash-existence cache for import hot paths.
package storage

import (
	"context"
	"errors"

	"fintrack/internal/models"
)

// ErrNotFound is returned when a referenced transaction or rule does not
// exist.
var ErrNotFound = errors.New("not found")

// StatusUpdate carries the validated values applied to one transaction.
type StatusUpdate struct {
	ID          int64
	Category    string
	Member      string
	Beneficiary string
	Tags        []string
}

// Store is the persistence boundary for transactions and rules.
type Store interface {
	// Exists reports whether a transaction with the given hash is already
	// stored.
	Exists(ctx context.Context, txHash string) (bool, error)

	// InsertPending stores a new pending transaction. When the hash is
	// already present the insert is a no-op and inserted is false.
	InsertPending(ctx context.Context, tx *models.TransactionRecord) (inserted bool, err error)

	// ListPending returns pending transactions in insertion order.
	ListPending(ctx context.Context) ([]models.TransactionRecord, error)

	// GetTransaction returns one transaction by id, ErrNotFound when absent.
	GetTransaction(ctx context.Context, id int64) (models.TransactionRecord, error)

	// BulkUpdateStatus applies all updates and marks the transactions
	// validated in a single atomic operation. Either every update lands or
	// none do.
	BulkUpdateStatus(ctx context.Context, updates []StatusUpdate) error

	// SetManuallyUngrouped flags a transaction as permanently excluded from
	// grouping.
	SetManuallyUngrouped(ctx context.Context, id int64) error

	// ListRules returns all learning rules ordered by priority descending,
	// then id ascending.
	ListRules(ctx context.Context) ([]models.LearningRule, error)

	// CreateRule stores a new learning rule and returns it with its assigned
	// id.
	CreateRule(ctx context.Context, rule *models.LearningRule) (*models.LearningRule, error)

	// DeleteRule removes a rule. ErrNotFound when no rule has that id.
	DeleteRule(ctx context.Context, id int64) error
}
