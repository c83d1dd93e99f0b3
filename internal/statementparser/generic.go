package statementparser

import (
	"encoding/csv"
	"fmt"
	"io"

	"fintrack/internal/logging"
	"fintrack/internal/models"
)

// Mapping describes how to read a CSV export from a bank without a dedicated
// preset. Column names refer to the file header.
type Mapping struct {
	Delimiter     rune
	DateColumn    string
	LabelColumn   string
	AmountColumn  string
	AccountColumn string
}

// DefaultMapping matches the Bourso export, so a configuration without
// overrides still works.
func DefaultMapping() Mapping {
	return Mapping{
		Delimiter:     ';',
		DateColumn:    "dateOp",
		LabelColumn:   "label",
		AmountColumn:  "amount",
		AccountColumn: "accountNum",
	}
}

// ParseGeneric reads a CSV export using an explicit column mapping. Rows
// that cannot be converted are skipped with a warning.
func ParseGeneric(r io.Reader, mapping Mapping, logger logging.Logger) ([]models.RawTransaction, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if mapping.Delimiter == 0 {
		mapping.Delimiter = ';'
	}

	reader := csv.NewReader(stripBOM(r))
	reader.Comma = mapping.Delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}
	for _, required := range []string{mapping.DateColumn, mapping.LabelColumn, mapping.AmountColumn} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("statement is missing column %q", required)
		}
	}

	field := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var txs []models.RawTransaction
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			logger.WithError(err).Warn("Skipping malformed statement row")
			continue
		}

		row := &BoursoCSVRow{
			DateOp:     field(record, mapping.DateColumn),
			Label:      field(record, mapping.LabelColumn),
			Amount:     field(record, mapping.AmountColumn),
			AccountNum: field(record, mapping.AccountColumn),
		}
		if row.DateOp == "" && row.Label == "" {
			continue
		}
		tx, err := convertRow(row)
		if err != nil {
			skipped++
			logger.WithError(err).WithField(logging.FieldLabel, row.Label).
				Warn("Skipping statement row")
			continue
		}
		txs = append(txs, tx)
	}

	logger.WithFields(
		logging.Field{Key: logging.FieldCount, Value: len(txs)},
		logging.Field{Key: "skipped", Value: skipped},
	).Info("Parsed statement CSV with generic mapping")
	return txs, nil
}
