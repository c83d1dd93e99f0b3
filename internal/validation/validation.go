// Package validation implements the user-confirmation workflow: batches of
// pending transactions are validated atomically, optionally teaching the rule
// set a new pattern.
package validation

import (
	"context"
	"fmt"

	"fintrack/internal/logging"
	"fintrack/internal/models"
	"fintrack/internal/normalize"
	"fintrack/internal/rules"
	"fintrack/internal/storage"
)

// Request is one transaction validation. When RememberPattern is set, a
// learning rule is created from the transaction label (or from Pattern when
// given) so future imports categorize it automatically.
type Request struct {
	ID          int64
	Category    string
	Member      string
	Beneficiary string
	Tags        []string

	RememberPattern bool
	// Pattern overrides the auto-derived pattern. Validated as a regex
	// before the rule is stored.
	Pattern      string
	RulePriority int
}

// Validator applies validation requests against the store and keeps the rule
// matcher in sync.
type Validator struct {
	store   storage.Store
	matcher *rules.Matcher
	logger  logging.Logger
}

// New creates a Validator. matcher may be nil when no matcher cache needs
// invalidating.
func New(store storage.Store, matcher *rules.Matcher, logger logging.Logger) *Validator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Validator{store: store, matcher: matcher, logger: logger}
}

// Validate confirms a batch of transactions. The whole mutation is computed
// up front and applied in one atomic store update: a failure anywhere leaves
// every transaction pending. Learned rules are only created after the update
// lands.
func (v *Validator) Validate(ctx context.Context, requests []Request) error {
	if len(requests) == 0 {
		return nil
	}

	updates := make([]storage.StatusUpdate, 0, len(requests))
	type pendingRule struct {
		pattern  string
		category string
		priority int
	}
	var newRules []pendingRule

	for _, req := range requests {
		if req.Category == "" {
			return fmt.Errorf("transaction %d: category is required", req.ID)
		}
		updates = append(updates, storage.StatusUpdate{
			ID:          req.ID,
			Category:    req.Category,
			Member:      req.Member,
			Beneficiary: req.Beneficiary,
			Tags:        models.NormalizeTags(req.Tags),
		})

		if !req.RememberPattern {
			continue
		}
		pattern := req.Pattern
		if pattern == "" {
			tx, err := v.store.GetTransaction(ctx, req.ID)
			if err != nil {
				return fmt.Errorf("loading transaction for pattern: %w", err)
			}
			pattern = rules.EscapeLiteral(normalize.Normalize(tx.Label))
		}
		if err := rules.ValidatePattern(pattern); err != nil {
			return fmt.Errorf("transaction %d: %w", req.ID, err)
		}
		priority := req.RulePriority
		if priority == 0 {
			priority = models.DefaultLearnedPriority
		}
		newRules = append(newRules, pendingRule{pattern: pattern, category: req.Category, priority: priority})
	}

	if err := v.store.BulkUpdateStatus(ctx, updates); err != nil {
		return fmt.Errorf("validating transactions: %w", err)
	}

	for _, r := range newRules {
		rule := &models.LearningRule{
			Pattern:  r.pattern,
			Category: r.category,
			Priority: r.priority,
		}
		if _, err := v.store.CreateRule(ctx, rule); err != nil {
			return fmt.Errorf("creating learned rule: %w", err)
		}
		v.logger.WithFields(
			logging.Field{Key: logging.FieldRuleID, Value: rule.ID},
			logging.Field{Key: logging.FieldPattern, Value: rule.Pattern},
			logging.Field{Key: logging.FieldCategory, Value: rule.Category},
		).Info("Learned new rule from validation")
	}
	if len(newRules) > 0 && v.matcher != nil {
		v.matcher.Invalidate()
	}

	v.logger.WithField(logging.FieldCount, len(updates)).Info("Validated transactions")
	return nil
}

// Ungroup permanently excludes a transaction from automatic grouping.
func (v *Validator) Ungroup(ctx context.Context, id int64) error {
	if err := v.store.SetManuallyUngrouped(ctx, id); err != nil {
		return fmt.Errorf("ungrouping transaction: %w", err)
	}
	v.logger.WithField(logging.FieldTxID, id).Info("Transaction excluded from grouping")
	return nil
}
