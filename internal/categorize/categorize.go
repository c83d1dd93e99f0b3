// Package categorize assigns a category to each transaction. Learned rules
// are consulted first and always win; an external classifier is only asked
// for labels no rule covers.
package categorize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/logging"
	"fintrack/internal/models"
	"fintrack/internal/rules"
)

// Source identifies how a category decision was made.
type Source string

const (
	SourceRule Source = "rule"
	SourceAI   Source = "ai"
	SourceNone Source = "none"
)

// Decision is the outcome of categorizing a single transaction.
type Decision struct {
	Category   string
	Source     Source
	RuleID     int64
	Confidence float64
	// Degraded is set when the classifier was consulted and failed, so the
	// transaction fell back to uncategorized.
	Degraded bool
}

// Classifier suggests a category for a transaction the rule set does not
// cover. Implementations call out to an external model.
type Classifier interface {
	Classify(ctx context.Context, label string, amount decimal.Decimal, date time.Time, categories []string) (string, float64, error)
}

// ClassifierError wraps a failure of the external classifier. Callers treat
// it as a degraded suggestion, never as a batch failure.
type ClassifierError struct {
	Err error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier: %v", e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// Categorizer orchestrates rule matching and classifier fallback.
type Categorizer struct {
	matcher    *rules.Matcher
	classifier Classifier
	categories []string
	logger     logging.Logger
}

// New builds a Categorizer. classifier may be nil, in which case unmatched
// transactions stay uncategorized.
func New(matcher *rules.Matcher, classifier Classifier, categories []string, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Categorizer{
		matcher:    matcher,
		classifier: classifier,
		categories: categories,
		logger:     logger,
	}
}

// Categorize decides a category for one transaction. Rules run first against
// the raw statement label, so patterns may target bank prefixes, card tokens
// or reference numbers that normalization strips; only when no rule fires is
// the classifier consulted, and the classifier receives the normalized label.
// A classifier failure downgrades the decision to SourceNone instead of
// returning an error.
func (c *Categorizer) Categorize(ctx context.Context, rawLabel, normalizedLabel string, amount decimal.Decimal, date time.Time) (Decision, error) {
	if c.matcher != nil {
		match, ok, err := c.matcher.Match(ctx, rawLabel)
		if err != nil {
			return Decision{}, fmt.Errorf("matching rules: %w", err)
		}
		if ok {
			return Decision{
				Category:   match.Category,
				Source:     SourceRule,
				RuleID:     match.RuleID,
				Confidence: 1,
			}, nil
		}
	}

	if c.classifier == nil {
		return Decision{Category: models.CategoryUncategorized, Source: SourceNone}, nil
	}

	category, confidence, err := c.classifier.Classify(ctx, normalizedLabel, amount, date, c.categories)
	if err != nil {
		var cerr *ClassifierError
		if !errors.As(err, &cerr) {
			err = &ClassifierError{Err: err}
		}
		c.logger.WithError(err).
			WithField(logging.FieldLabel, normalizedLabel).
			Warn("Classifier failed, transaction left uncategorized")
		return Decision{Category: models.CategoryUncategorized, Source: SourceNone, Degraded: true}, nil
	}
	if category == "" {
		return Decision{Category: models.CategoryUncategorized, Source: SourceNone}, nil
	}

	// A debit cannot be income no matter what the model says.
	if category == models.CategoryIncome && amount.IsNegative() {
		c.logger.WithField(logging.FieldLabel, normalizedLabel).
			Debug("Classifier suggested Income for a debit, ignoring")
		return Decision{Category: models.CategoryUncategorized, Source: SourceNone}, nil
	}

	return Decision{Category: category, Source: SourceAI, Confidence: confidence}, nil
}
