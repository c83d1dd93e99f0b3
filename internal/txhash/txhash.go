// Package txhash derives the stable identity key used to detect duplicate
// imports across re-uploads of overlapping statement ranges.
package txhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
)

// Compute returns the deterministic identity digest of a transaction. The
// digest covers the canonical tuple (ISO date, normalized label, amount at
// currency precision, account id): two rows denoting the same bank operation
// hash identically, distinct operations only collide by SHA-256 coincidence.
//
// The hasher knows nothing about storage; the caller uses the result as a
// uniqueness key so the store can silently discard re-imports.
func Compute(date time.Time, normalizedLabel string, amount decimal.Decimal, accountID string) string {
	base := fmt.Sprintf("%s|%s|%s|%s",
		date.Format(models.DateLayout),
		normalizedLabel,
		amount.StringFixed(models.CurrencyPrecision),
		accountID,
	)
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:])
}

// ComputeRaw is a convenience wrapper hashing a RawTransaction whose label
// has already been normalized by the caller.
func ComputeRaw(tx models.RawTransaction, normalizedLabel string) string {
	return Compute(tx.Date, normalizedLabel, tx.Amount, tx.AccountID)
}
