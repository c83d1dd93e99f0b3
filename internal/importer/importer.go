// Package importer runs the ingestion workflow: normalize, deduplicate,
// categorize and persist a batch of parsed statement rows.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/categorize"
	"fintrack/internal/logging"
	"fintrack/internal/models"
	"fintrack/internal/normalize"
	"fintrack/internal/storage"
	"fintrack/internal/txhash"
)

// Importer wires the components of the ingestion workflow together.
type Importer struct {
	store       storage.Store
	categorizer *categorize.BatchCategorizer
	logger      logging.Logger
}

// New creates an Importer. categorizer may be nil when ingesting without
// categorization.
func New(store storage.Store, categorizer *categorize.BatchCategorizer, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Importer{store: store, categorizer: categorizer, logger: logger}
}

// ImportBatch processes one parsed statement. Rows whose hash is already
// stored are counted as duplicates and dropped before categorization, so
// re-ingesting the same file is a no-op.
func (imp *Importer) ImportBatch(ctx context.Context, rows []models.RawTransaction) (models.ImportStats, error) {
	stats := models.ImportStats{
		BatchID:  uuid.NewString(),
		Received: len(rows),
	}
	logger := imp.logger.WithField(logging.FieldBatch, stats.BatchID)
	started := time.Now()

	type candidate struct {
		tx    models.RawTransaction
		label string
		hash  string
	}
	var fresh []candidate
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		label := normalize.Normalize(row.Label)
		hash := txhash.ComputeRaw(row, label)

		// Duplicates within the batch itself count too.
		if _, dup := seen[hash]; dup {
			stats.Duplicates++
			continue
		}
		exists, err := imp.store.Exists(ctx, hash)
		if err != nil {
			return stats, fmt.Errorf("checking duplicate: %w", err)
		}
		if exists {
			stats.Duplicates++
			continue
		}
		seen[hash] = struct{}{}
		fresh = append(fresh, candidate{tx: row, label: label, hash: hash})
	}

	var decisions []categorize.Decision
	if imp.categorizer != nil && len(fresh) > 0 {
		txs := make([]models.RawTransaction, len(fresh))
		labels := make([]string, len(fresh))
		for i, c := range fresh {
			txs[i] = c.tx
			labels[i] = c.label
		}
		var batchStats categorize.BatchStats
		var err error
		decisions, batchStats, err = imp.categorizer.CategorizeBatch(ctx, txs, labels)
		if err != nil {
			return stats, fmt.Errorf("categorizing batch: %w", err)
		}
		stats.RuleMatched = batchStats.RuleMatched
		stats.AISuggested = batchStats.AISuggested
		stats.Uncategorized = batchStats.Uncategorized
		stats.ClassifierFailures = batchStats.ClassifierFailures
	}

	for i, c := range fresh {
		record := models.TransactionRecord{
			Date:      c.tx.Date,
			Label:     c.tx.Label,
			Amount:    c.tx.Amount,
			AccountID: c.tx.AccountID,
			TxHash:    c.hash,
			Member:    c.tx.Member,
			Tags:      []string{},
		}
		if decisions != nil {
			record.CategorySuggested = decisions[i].Category
			record.CategorySource = string(decisions[i].Source)
		} else {
			record.CategorySuggested = models.CategoryUncategorized
			record.CategorySource = string(categorize.SourceNone)
		}

		inserted, err := imp.store.InsertPending(ctx, &record)
		if err != nil {
			return stats, fmt.Errorf("inserting transaction: %w", err)
		}
		if !inserted {
			// Raced with a concurrent import of the same statement.
			stats.Duplicates++
			continue
		}
		stats.Imported++
	}

	logger.WithField(logging.FieldDuration, time.Since(started)).Info("Import batch completed")
	stats.LogSummary(logger)
	return stats, nil
}
