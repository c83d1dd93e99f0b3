package txhash

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fintrack/internal/models"
	"fintrack/internal/normalize"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeDeterministic(t *testing.T) {
	d := date(2024, time.March, 12)
	amount := decimal.RequireFromString("-42.50")

	h1 := Compute(d, "carrefour", amount, "FR76-0001")
	h2 := Compute(d, "carrefour", amount, "FR76-0001")

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // full SHA-256 hex
}

func TestComputeDistinguishesFields(t *testing.T) {
	d := date(2024, time.March, 12)
	amount := decimal.RequireFromString("-42.50")
	base := Compute(d, "carrefour", amount, "FR76-0001")

	assert.NotEqual(t, base, Compute(d.AddDate(0, 0, 1), "carrefour", amount, "FR76-0001"))
	assert.NotEqual(t, base, Compute(d, "monoprix", amount, "FR76-0001"))
	assert.NotEqual(t, base, Compute(d, "carrefour", decimal.RequireFromString("-42.51"), "FR76-0001"))
	assert.NotEqual(t, base, Compute(d, "carrefour", amount, "FR76-0002"))
}

func TestComputeAmountPrecision(t *testing.T) {
	d := date(2024, time.March, 12)

	// Amounts equal at currency precision hash identically regardless of the
	// textual form they were parsed from.
	a := decimal.RequireFromString("150")
	b := decimal.RequireFromString("150.00")
	assert.Equal(t,
		Compute(d, "cheque", a, "acc"),
		Compute(d, "cheque", b, "acc"),
	)
}

func TestComputeRawMatchesCompute(t *testing.T) {
	tx := models.RawTransaction{
		Date:      date(2024, time.March, 12),
		Label:     "CARTE 01/03 CARREFOUR MARKET",
		Amount:    decimal.RequireFromString("-42.50"),
		AccountID: "FR76-0001",
	}
	label := normalize.Normalize(tx.Label)

	assert.Equal(t,
		Compute(tx.Date, label, tx.Amount, tx.AccountID),
		ComputeRaw(tx, label),
	)
}

func TestComputeAgreesWithNormalizer(t *testing.T) {
	// The same bank operation re-exported with a different card suffix tail
	// still hashes identically once labels go through the shared normalizer.
	d := date(2024, time.June, 3)
	amount := decimal.RequireFromString("-18.90")

	h1 := Compute(d, normalize.Normalize("CARREFOUR CB*6759"), amount, "acc")
	h2 := Compute(d, normalize.Normalize("CARREFOUR CB*1111"), amount, "acc")
	assert.Equal(t, h1, h2)
}
