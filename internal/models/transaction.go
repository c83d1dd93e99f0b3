// Package models provides the data structures used throughout the application.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a stored transaction.
type Status string

const (
	// StatusPending means the transaction awaits user validation.
	StatusPending Status = "pending"
	// StatusValidated means a user confirmed the category and attributes.
	StatusValidated Status = "validated"
)

// DateLayout is the canonical ISO date format used for storage and hashing.
const DateLayout = "2006-01-02"

// CurrencyPrecision is the number of decimal places amounts are stored with.
const CurrencyPrecision = 2

// RawTransaction is a single parsed bank-statement row before it acquires an
// identity. Immutable once produced by the statement parser.
type RawTransaction struct {
	Date      time.Time
	Label     string
	Amount    decimal.Decimal
	AccountID string
	Member    string // optional card/member hint extracted from the label
}

// TransactionRecord is the persisted form of a transaction.
type TransactionRecord struct {
	ID                  int64
	Date                time.Time
	Label               string
	Amount              decimal.Decimal
	AccountID           string
	TxHash              string
	Status              Status
	CategorySuggested   string // suggestion from rules or the classifier at import
	CategorySource      string // "rule", "ai" or "none"
	CategoryValidated   string // empty until validated or confidently rule-matched
	IsManuallyUngrouped bool   // once true, never auto-reset
	Tags                []string
	Member              string
	Beneficiary         string
}

// IsValidated reports whether the record has a user-confirmed category.
func (t *TransactionRecord) IsValidated() bool {
	return t.Status == StatusValidated
}

// NormalizeTags deduplicates tags preserving first-seen order and dropping
// blanks. Insertion order is irrelevant for equality but kept for display.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// ParseAmount parses a statement amount string to decimal, tolerating the
// formats seen in European bank exports (comma decimals, currency symbols,
// space or apostrophe thousand separators).
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	amount := strings.TrimSpace(amountStr)
	amount = strings.ReplaceAll(amount, " ", "")
	amount = strings.ReplaceAll(amount, " ", "")
	amount = strings.ReplaceAll(amount, "'", "")
	amount = strings.ReplaceAll(amount, "€", "")
	amount = strings.ReplaceAll(amount, "EUR", "")
	amount = strings.ReplaceAll(amount, "CHF", "")
	amount = strings.ReplaceAll(amount, ",", ".")
	return decimal.NewFromString(amount)
}
