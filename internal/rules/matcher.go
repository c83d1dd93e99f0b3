// Package rules implements the prioritized pattern-rule matcher used to
// assign categories to transactions. Compiled patterns are cached behind an
// explicit generation counter: mutations to the rule set invalidate the
// generation and the next match call recompiles atomically.
package rules

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/logging"
	"fintrack/internal/models"
)

// DefaultMatchTimeout is the per-rule execution budget. A rule whose pattern
// exceeds it counts as a non-match and evaluation continues with the next
// candidate.
const DefaultMatchTimeout = 50 * time.Millisecond

// RuleSource lists the current rule set. The storage layer implements it.
type RuleSource interface {
	ListRules(ctx context.Context) ([]models.LearningRule, error)
}

// Match is a successful rule lookup.
type Match struct {
	Category string
	RuleID   int64
	Priority int
}

// compiledRule is one cache entry. A rule whose stored pattern no longer
// compiles falls back to case-insensitive substring matching rather than
// being dropped, so a single bad row cannot disable the rest of the set.
type compiledRule struct {
	id       int64
	priority int
	category string
	re       *regexp.Regexp
	literal  string // upper-cased pattern, substring fallback when re is nil
}

// Matcher evaluates learning rules against transaction labels. It is safe
// for concurrent use: readers may briefly observe a stale cache after an
// Invalidate, but never a half-rebuilt one.
type Matcher struct {
	source  RuleSource
	logger  logging.Logger
	timeout time.Duration

	mu       sync.RWMutex
	gen      uint64
	builtGen uint64
	compiled []compiledRule
}

// NewMatcher creates a Matcher over the given rule source. The cache is
// built lazily on the first Match call.
func NewMatcher(source RuleSource, logger logging.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Matcher{
		source:  source,
		logger:  logger,
		timeout: DefaultMatchTimeout,
		gen:     1,
	}
}

// SetMatchTimeout overrides the per-rule execution budget.
func (m *Matcher) SetMatchTimeout(d time.Duration) {
	if d > 0 {
		m.mu.Lock()
		m.timeout = d
		m.mu.Unlock()
	}
}

// Invalidate bumps the cache generation. The next Match call recompiles the
// rule set from the source. Call it after any rule create, update or delete.
func (m *Matcher) Invalidate() {
	m.mu.Lock()
	m.gen++
	m.mu.Unlock()
}

// Generation returns the current cache generation, mainly for tests and
// diagnostics.
func (m *Matcher) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

// Match evaluates the cached rule set against the label: candidates sorted by
// priority descending then id ascending, first hit wins. The label is matched
// as-is (un-normalized) and case-insensitively. Returns false when no rule
// matches.
func (m *Matcher) Match(ctx context.Context, label string) (Match, bool, error) {
	snapshot, err := m.snapshot(ctx)
	if err != nil {
		return Match{}, false, err
	}

	labelUpper := strings.ToUpper(label)
	for _, rule := range snapshot {
		if m.ruleMatches(rule, label, labelUpper) {
			return Match{Category: rule.category, RuleID: rule.id, Priority: rule.priority}, true, nil
		}
	}
	return Match{}, false, nil
}

// snapshot returns the compiled rule slice for the current generation,
// rebuilding it first if a mutation invalidated the cache. The rebuild swaps
// the whole slice in one critical section so concurrent matchers never see a
// partially populated table.
func (m *Matcher) snapshot(ctx context.Context) ([]compiledRule, error) {
	m.mu.RLock()
	if m.builtGen == m.gen {
		compiled := m.compiled
		m.mu.RUnlock()
		return compiled, nil
	}
	gen := m.gen
	m.mu.RUnlock()

	ruleList, err := m.source.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	compiled := compileRules(ruleList, m.logger)

	m.mu.Lock()
	// Another invalidation may have arrived while listing; we still install
	// this build but keep builtGen at the generation we observed so the newer
	// generation triggers a further rebuild.
	if m.builtGen < gen {
		m.compiled = compiled
		m.builtGen = gen
	}
	compiled = m.compiled
	m.mu.Unlock()
	return compiled, nil
}

func compileRules(ruleList []models.LearningRule, logger logging.Logger) []compiledRule {
	compiled := make([]compiledRule, 0, len(ruleList))
	for _, r := range ruleList {
		cr := compiledRule{
			id:       r.ID,
			priority: r.Priority,
			category: r.Category,
			literal:  strings.ToUpper(r.Pattern),
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			logger.WithError(err).WithFields(
				logging.Field{Key: logging.FieldRuleID, Value: r.ID},
				logging.Field{Key: logging.FieldPattern, Value: r.Pattern},
			).Warn("Stored rule pattern no longer compiles, using substring fallback")
		} else {
			cr.re = re
		}
		compiled = append(compiled, cr)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		if compiled[i].priority != compiled[j].priority {
			return compiled[i].priority > compiled[j].priority
		}
		return compiled[i].id < compiled[j].id
	})
	return compiled
}

// ruleMatches applies one rule under the execution budget. An overrun is
// logged and treated as a non-match for this rule only.
func (m *Matcher) ruleMatches(rule compiledRule, label, labelUpper string) bool {
	if rule.re == nil {
		return rule.literal != "" && strings.Contains(labelUpper, rule.literal)
	}

	m.mu.RLock()
	timeout := m.timeout
	m.mu.RUnlock()

	done := make(chan bool, 1)
	go func() {
		done <- rule.re.MatchString(label)
	}()

	select {
	case matched := <-done:
		return matched
	case <-time.After(timeout):
		m.logger.WithFields(
			logging.Field{Key: logging.FieldRuleID, Value: rule.id},
			logging.Field{Key: logging.FieldPattern, Value: rule.re.String()},
		).Warn("Rule match exceeded execution budget, treating as non-match")
		return false
	}
}
