// Package statementparser reads bank statement CSV exports into raw
// transactions ready for import. The Bourso format is the primary export;
// ParseGeneric covers other banks through a column mapping.
package statementparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"fintrack/internal/logging"
	"fintrack/internal/models"
	"fintrack/internal/normalize"
)

// BoursoCSVRow represents a single row in a Bourso CSV export.
// It uses struct tags for gocsv unmarshaling.
type BoursoCSVRow struct {
	DateOp       string `csv:"dateOp"`
	DateVal      string `csv:"dateVal"`
	Label        string `csv:"label"`
	Amount       string `csv:"amount"`
	AccountNum   string `csv:"accountNum"`
	AccountLabel string `csv:"accountLabel"`
}

// dateLayouts are tried in order when parsing statement dates.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02.01.2006",
}

// Parse reads a Bourso CSV export from an io.Reader and returns the raw
// transactions. Rows that cannot be converted are skipped with a warning
// rather than failing the whole file.
func Parse(r io.Reader, logger logging.Logger) ([]models.RawTransaction, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		reader := csv.NewReader(stripBOM(in))
		reader.Comma = ';'
		return reader
	})
	defer gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return csv.NewReader(in)
	})

	var rows []*BoursoCSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		logger.WithError(err).Error("Failed to read statement CSV")
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}

	var txs []models.RawTransaction
	skipped := 0
	for _, row := range rows {
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
	).Info("Parsed statement CSV")
	return txs, nil
}

// ParseFile opens and parses a Bourso CSV export.
func ParseFile(path string, logger logging.Logger) ([]models.RawTransaction, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	logger.WithField(logging.FieldFile, path).Info("Parsing statement file")

	file, err := os.Open(path) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return nil, fmt.Errorf("opening statement file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close statement file")
		}
	}()

	return Parse(file, logger)
}

// ValidateFormat checks the header of a statement file for the columns the
// Bourso format requires.
func ValidateFormat(path string, logger logging.Logger) (bool, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	file, err := os.Open(path) // #nosec G304
	if err != nil {
		return false, fmt.Errorf("opening file for validation: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	reader := csv.NewReader(stripBOM(file))
	reader.Comma = ';'
	header, err := reader.Read()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading CSV header: %w", err)
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	for _, required := range []string{"dateOp", "label", "amount"} {
		if !present[required] {
			logger.WithField("column", required).Info("Required column not found")
			return false, nil
		}
	}
	return true, nil
}

func convertRow(row *BoursoCSVRow) (models.RawTransaction, error) {
	if row.DateOp == "" {
		return models.RawTransaction{}, fmt.Errorf("date is empty")
	}
	if row.Label == "" {
		return models.RawTransaction{}, fmt.Errorf("label is empty")
	}

	date, err := parseDate(row.DateOp)
	if err != nil {
		return models.RawTransaction{}, err
	}

	amount, err := models.ParseAmount(row.Amount)
	if err != nil {
		return models.RawTransaction{}, fmt.Errorf("parsing amount %q: %w", row.Amount, err)
	}

	accountID := row.AccountNum
	if accountID == "" {
		accountID = row.AccountLabel
	}

	tx := models.RawTransaction{
		Date:      date,
		Label:     row.Label,
		Amount:    amount,
		AccountID: accountID,
	}
	// Card payments carry the last four digits of the card, which identifies
	// the household member holding it.
	if suffix := normalize.ExtractCardSuffix(row.Label); suffix != "" {
		tx.Member = suffix
	}
	return tx, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// stripBOM removes a UTF-8 byte order mark some bank exports prepend.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err == nil && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}
