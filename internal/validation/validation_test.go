package validation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/logging"
	"fintrack/internal/models"
	"fintrack/internal/rules"
	"fintrack/internal/storage"
)

func seedTx(t *testing.T, store *storage.MemoryStore, label, hash string) int64 {
	t.Helper()
	tx := &models.TransactionRecord{
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Label:  label,
		Amount: decimal.NewFromInt(-30),
		TxHash: hash,
	}
	inserted, err := store.InsertPending(context.Background(), tx)
	require.NoError(t, err)
	require.True(t, inserted)
	return tx.ID
}

func TestValidateMarksTransactions(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	id1 := seedTx(t, store, "CARREFOUR CITY", "aaa")
	id2 := seedTx(t, store, "SNCF INTERNET", "bbb")

	v := New(store, nil, logging.NewMockLogger())
	err := v.Validate(ctx, []Request{
		{ID: id1, Category: "Groceries", Tags: []string{"food", "food", ""}},
		{ID: id2, Category: "Transport", Member: "alex"},
	})
	require.NoError(t, err)

	got, err := store.GetTransaction(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusValidated, got.Status)
	assert.Equal(t, "Groceries", got.CategoryValidated)
	assert.Equal(t, []string{"food"}, got.Tags)

	got, err = store.GetTransaction(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, "alex", got.Member)
}

func TestValidateIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	id1 := seedTx(t, store, "CARREFOUR CITY", "aaa")

	v := New(store, nil, logging.NewMockLogger())
	err := v.Validate(ctx, []Request{
		{ID: id1, Category: "Groceries"},
		{ID: 999, Category: "Transport"},
	})
	require.Error(t, err)

	got, err := store.GetTransaction(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status, "partial updates must not land")
}

func TestValidateRequiresCategory(t *testing.T) {
	store := storage.NewMemoryStore()
	id := seedTx(t, store, "CARREFOUR CITY", "aaa")

	v := New(store, nil, logging.NewMockLogger())
	err := v.Validate(context.Background(), []Request{{ID: id}})
	assert.Error(t, err)
}

func TestRememberPatternCreatesRuleAndInvalidatesMatcher(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	id := seedTx(t, store, "CARTE 01/03 NETFLIX.COM CB*1234", "aaa")

	matcher := rules.NewMatcher(store, logging.NewMockLogger())
	// Warm the cache so invalidation is observable.
	_, _, err := matcher.Match(ctx, "anything")
	require.NoError(t, err)
	genBefore := matcher.Generation()

	v := New(store, matcher, logging.NewMockLogger())
	err = v.Validate(ctx, []Request{
		{ID: id, Category: "Subscriptions", RememberPattern: true},
	})
	require.NoError(t, err)

	stored, err := store.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Subscriptions", stored[0].Category)
	assert.Equal(t, models.DefaultLearnedPriority, stored[0].Priority)

	assert.Greater(t, matcher.Generation(), genBefore)

	// The learned rule fires on the next import of the same merchant.
	match, ok, err := matcher.Match(ctx, "netflix.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Subscriptions", match.Category)
}

func TestRememberPatternRejectsDangerousOverride(t *testing.T) {
	store := storage.NewMemoryStore()
	id := seedTx(t, store, "CARREFOUR CITY", "aaa")

	v := New(store, nil, logging.NewMockLogger())
	err := v.Validate(context.Background(), []Request{
		{ID: id, Category: "Groceries", RememberPattern: true, Pattern: "(a+)+"},
	})
	require.Error(t, err)

	stored, err := store.ListRules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestUngroup(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	id := seedTx(t, store, "CARREFOUR CITY", "aaa")

	v := New(store, nil, logging.NewMockLogger())
	require.NoError(t, v.Ungroup(ctx, id))

	got, err := store.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.IsManuallyUngrouped)

	assert.Error(t, v.Ungroup(ctx, 999))
}
