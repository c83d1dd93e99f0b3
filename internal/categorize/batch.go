package categorize

import (
	"context"
	"runtime"
	"sync"

	"fintrack/internal/logging"
	"fintrack/internal/models"
)

// sequentialThreshold is the batch size below which worker pool overhead is
// not worth paying.
const sequentialThreshold = 100

// BatchStats summarizes the decisions made over one batch.
type BatchStats struct {
	RuleMatched        int
	AISuggested        int
	Uncategorized      int
	ClassifierFailures int
}

type indexedDecision struct {
	index    int
	decision Decision
}

type workItem struct {
	index int
	label string
	tx    *models.RawTransaction
}

// BatchCategorizer runs a Categorizer over a batch of transactions with a
// worker pool, preserving input order.
type BatchCategorizer struct {
	categorizer *Categorizer
	logger      logging.Logger
	workerCount int
}

// NewBatchCategorizer creates a batch runner sized to the machine.
func NewBatchCategorizer(categorizer *Categorizer, logger logging.Logger) *BatchCategorizer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &BatchCategorizer{
		categorizer: categorizer,
		logger:      logger,
		workerCount: runtime.NumCPU(),
	}
}

// CategorizeBatch decides a category for each transaction. labels must be
// index-aligned with txs and hold the normalized labels handed to the
// classifier; rules run on the raw labels in txs. Output order matches input
// order regardless of worker scheduling.
func (b *BatchCategorizer) CategorizeBatch(ctx context.Context, txs []models.RawTransaction, labels []string) ([]Decision, BatchStats, error) {
	if len(txs) < sequentialThreshold {
		return b.runSequential(ctx, txs, labels)
	}
	return b.runConcurrent(ctx, txs, labels)
}

func (b *BatchCategorizer) runSequential(ctx context.Context, txs []models.RawTransaction, labels []string) ([]Decision, BatchStats, error) {
	decisions := make([]Decision, len(txs))
	for i := range txs {
		d, err := b.categorizer.Categorize(ctx, txs[i].Label, labels[i], txs[i].Amount, txs[i].Date)
		if err != nil {
			return nil, BatchStats{}, err
		}
		decisions[i] = d
	}
	return decisions, tally(decisions), nil
}

func (b *BatchCategorizer) runConcurrent(ctx context.Context, txs []models.RawTransaction, labels []string) ([]Decision, BatchStats, error) {
	workChan := make(chan workItem, b.workerCount)
	resultChan := make(chan indexedDecision, len(txs))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var firstErr error
	var errOnce sync.Once

	var wg sync.WaitGroup
	for i := 0; i < b.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case item, ok := <-workChan:
					if !ok {
						return
					}
					d, err := b.categorizer.Categorize(ctx, item.tx.Label, item.label, item.tx.Amount, item.tx.Date)
					if err != nil {
						errOnce.Do(func() {
							firstErr = err
							cancel()
						})
						return
					}
					select {
					case resultChan <- indexedDecision{index: item.index, decision: d}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range txs {
			select {
			case workChan <- workItem{index: i, label: labels[i], tx: &txs[i]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	decisions := make([]Decision, len(txs))
	for result := range resultChan {
		decisions[result.index] = result.decision
	}

	if firstErr != nil {
		return nil, BatchStats{}, firstErr
	}

	b.logger.WithFields(
		logging.Field{Key: logging.FieldCount, Value: len(txs)},
		logging.Field{Key: "workers", Value: b.workerCount},
	).Debug("Concurrent categorization completed")

	return decisions, tally(decisions), nil
}

func tally(decisions []Decision) BatchStats {
	var stats BatchStats
	for _, d := range decisions {
		switch d.Source {
		case SourceRule:
			stats.RuleMatched++
		case SourceAI:
			stats.AISuggested++
		default:
			stats.Uncategorized++
		}
		if d.Degraded {
			stats.ClassifierFailures++
		}
	}
	return stats
}
