// Package grouping clusters pending transactions into the smart groups shown
// by the validation UI. Grouping is a pure function of its input snapshot:
// it never mutates transactions and never reorders them.
package grouping

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/normalize"
)

// Result maps group keys to the input-ordered ids of their members. Keys
// preserves first-appearance order so repeated calls render identically.
type Result struct {
	Keys    []string
	Members map[string][]int64

	byID map[string][]models.TransactionRecord
}

// GroupStats summarizes one group for list views.
type GroupStats struct {
	Key       string
	Count     int
	LastDate  time.Time
	MaxAmount decimal.Decimal // largest absolute amount in the group
	Singleton bool            // manually ungrouped marker group
}

// Group clusters the given transactions. Key precedence per transaction:
//
//  1. manually ungrouped: "single_<id>", a permanent override that the later
//     steps never reconsider;
//  2. check instrument: normalized label + "|" + amount, so checks only merge
//     with checks of identical wording AND identical amount;
//  3. default: normalized label.
//
// Empty input yields an empty result. Singleton groups are valid and common.
func Group(transactions []models.TransactionRecord) Result {
	result := Result{
		Members: make(map[string][]int64, len(transactions)),
		byID:    make(map[string][]models.TransactionRecord, len(transactions)),
	}

	for _, tx := range transactions {
		key := keyFor(&tx)
		if _, seen := result.Members[key]; !seen {
			result.Keys = append(result.Keys, key)
		}
		result.Members[key] = append(result.Members[key], tx.ID)
		result.byID[key] = append(result.byID[key], tx)
	}
	return result
}

// keyFor computes the group key for a single transaction.
func keyFor(tx *models.TransactionRecord) string {
	if tx.IsManuallyUngrouped {
		return fmt.Sprintf("single_%d", tx.ID)
	}
	if normalize.IsCheck(tx.Label) {
		return normalize.Normalize(tx.Label) + "|" + tx.Amount.StringFixed(models.CurrencyPrecision)
	}
	return normalize.Normalize(tx.Label)
}

// Stats computes per-group display statistics in key order.
func (r Result) Stats() []GroupStats {
	stats := make([]GroupStats, 0, len(r.Keys))
	for _, key := range r.Keys {
		members := r.byID[key]
		s := GroupStats{Key: key, Count: len(members), Singleton: len(members) == 1 && isSingleKey(key)}
		for _, tx := range members {
			if tx.Date.After(s.LastDate) {
				s.LastDate = tx.Date
			}
			abs := tx.Amount.Abs()
			if abs.GreaterThan(s.MaxAmount) {
				s.MaxAmount = abs
			}
		}
		stats = append(stats, s)
	}
	return stats
}

func isSingleKey(key string) bool {
	return len(key) > len("single_") && key[:len("single_")] == "single_"
}
