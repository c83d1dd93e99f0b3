package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxPatternLength bounds user-authored patterns.
const MaxPatternLength = 200

// InvalidPatternError reports a rule pattern rejected at creation time. It is
// surfaced to the rule author synchronously; the rule is never persisted.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid rule pattern %q: %s", e.Pattern, e.Reason)
}

// Constructs with nested quantifiers over overlapping classes are rejected
// outright: they are the classic catastrophic-backtracking shapes, and even
// though Go's engine runs in linear time the rule set must stay portable
// across match-time budgets.
var dangerousConstructs = []*regexp.Regexp{
	regexp.MustCompile(`\(.*\*.*\)\+`),   // (a*)+ shapes
	regexp.MustCompile(`\(.*\+.*\)\*`),   // (a+)* shapes
	regexp.MustCompile(`\([^)]*\+\)\+`),  // (a+)+ shapes
	regexp.MustCompile(`(\(\?:.*){5,}`),  // excessive group nesting
}

// ValidatePattern checks a user-authored rule pattern at creation time:
// non-empty, bounded length, free of catastrophic-backtracking constructs,
// and compilable case-insensitively. Returns *InvalidPatternError on
// rejection.
func ValidatePattern(pattern string) error {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return &InvalidPatternError{Pattern: pattern, Reason: "pattern is empty"}
	}
	if len(trimmed) > MaxPatternLength {
		return &InvalidPatternError{Pattern: trimmed, Reason: fmt.Sprintf("pattern exceeds %d characters", MaxPatternLength)}
	}

	for _, construct := range dangerousConstructs {
		if construct.MatchString(trimmed) {
			return &InvalidPatternError{Pattern: trimmed, Reason: "pattern contains nested quantifiers with catastrophic-backtracking risk"}
		}
	}

	if _, err := regexp.Compile("(?i)" + trimmed); err != nil {
		return &InvalidPatternError{Pattern: trimmed, Reason: err.Error()}
	}
	return nil
}

// EscapeLiteral turns an arbitrary label fragment into a safe literal pattern
// for a learned rule, so validation feedback can remember exact merchant
// wording without regex surprises.
func EscapeLiteral(fragment string) string {
	return regexp.QuoteMeta(strings.TrimSpace(fragment))
}
