// Package normalize provides the label-cleaning transform shared by hashing
// and grouping. Both components must agree on what "the same transaction"
// looks like, so they go through the same function.
package normalize

import (
	"regexp"
	"strings"
)

// Patterns are compiled once; Normalize sits on the hot path of every import
// and grouping call.
var (
	embeddedDateRe  = regexp.MustCompile(`\d{2}/\d{2}(/\d{2,4})?`)
	bankTokenRe     = regexp.MustCompile(`(?i)\b(CARTE|CB|PRLV|SEPA|VIR)\b\*?\d*`)
	longDigitsRe    = regexp.MustCompile(`\b\d{4,}\b`)
	edgePunctRe     = regexp.MustCompile(`^[^a-zA-Z0-9]+|[^a-zA-Z0-9]+$`)
	multiSpaceRe    = regexp.MustCompile(`\s+`)
	cardSuffixRe    = regexp.MustCompile(`(?i)CB\*(\d{4})`)
	checkInstrumRe  = regexp.MustCompile(`\b(CHQ|CHEQUE|REMISE\s+CHEQUE|REMISE\s+CHQ)\b`)
)

// Normalize strips the volatile parts of a bank label: embedded dates,
// technical prefixes (CARTE, CB, PRLV, SEPA, VIR) with their card-suffix
// tails, long reference numbers, edge punctuation and repeated whitespace.
// The result is lower-cased and trimmed.
//
// Normalize is pure and idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	label := embeddedDateRe.ReplaceAllString(raw, "")
	label = bankTokenRe.ReplaceAllString(label, "")
	label = longDigitsRe.ReplaceAllString(label, "")
	label = edgePunctRe.ReplaceAllString(label, "")
	label = multiSpaceRe.ReplaceAllString(label, " ")
	return strings.ToLower(strings.TrimSpace(label))
}

// ExtractCardSuffix returns the four-digit card suffix from a "CB*1234"
// marker in the label, or "" when the label carries none. Used by the
// statement parser to derive a member hint.
func ExtractCardSuffix(label string) string {
	match := cardSuffixRe.FindStringSubmatch(label)
	if match == nil {
		return ""
	}
	return match[1]
}

// IsCheck reports whether the label denotes a check-type instrument
// (CHQ/CHEQUE markers, including "REMISE CHEQUE" deposits). Checks get
// amount-aware grouping because two checks with the same payee wording but
// different amounts are different real-world payments.
func IsCheck(label string) bool {
	return checkInstrumRe.MatchString(strings.ToUpper(label))
}
