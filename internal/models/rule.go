package models

import "time"

// LearningRule is a user- or system-authored pattern-to-category mapping used
// to auto-suggest categories on future imports. The pattern is validated at
// creation time; rules are immutable once compiled into a matcher cache
// generation. Mutations go through the store and invalidate the cache.
type LearningRule struct {
	ID        int64
	Pattern   string
	Category  string
	Priority  int // higher wins; ties broken by lower ID
	CreatedAt time.Time
}

// DefaultLearnedPriority is the elevated priority assigned to rules created
// from a validation with "remember this" selected.
const DefaultLearnedPriority = 5
