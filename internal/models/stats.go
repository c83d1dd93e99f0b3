package models

import "fintrack/internal/logging"

// ImportStats aggregates the outcome of one import batch. Duplicate skips and
// classifier failures are observable here as counts, never as errors.
type ImportStats struct {
	BatchID            string
	Received           int
	Imported           int
	Duplicates         int
	RuleMatched        int
	AISuggested        int
	Uncategorized      int
	ClassifierFailures int
	ParseWarnings      int
}

// LogSummary writes a one-line structured summary of the batch.
func (s ImportStats) LogSummary(logger logging.Logger) {
	if logger == nil {
		return
	}
	logger.Info("Import batch summary",
		logging.Field{Key: logging.FieldBatch, Value: s.BatchID},
		logging.Field{Key: "received", Value: s.Received},
		logging.Field{Key: "imported", Value: s.Imported},
		logging.Field{Key: "duplicates", Value: s.Duplicates},
		logging.Field{Key: "rule_matched", Value: s.RuleMatched},
		logging.Field{Key: "ai_suggested", Value: s.AISuggested},
		logging.Field{Key: "uncategorized", Value: s.Uncategorized},
		logging.Field{Key: "classifier_failures", Value: s.ClassifierFailures},
	)
}
