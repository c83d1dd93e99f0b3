package statementparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/logging"
)

const sampleBourso = "dateOp;dateVal;label;amount;accountNum;accountLabel\n" +
	"2024-03-01;2024-03-01;CARTE 01/03 CARREFOUR CITY CB*1234;-30,50;00012345;Compte courant\n" +
	"2024-03-02;2024-03-02;VIR SEPA SALAIRE ACME;2500,00;00012345;Compte courant\n"

func TestParseBoursoExport(t *testing.T) {
	txs, err := Parse(strings.NewReader(sampleBourso), logging.NewMockLogger())
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "2024-03-01", txs[0].Date.Format("2006-01-02"))
	assert.Equal(t, "CARTE 01/03 CARREFOUR CITY CB*1234", txs[0].Label)
	assert.Equal(t, "-30.50", txs[0].Amount.StringFixed(2))
	assert.Equal(t, "00012345", txs[0].AccountID)
	assert.Equal(t, "1234", txs[0].Member, "card suffix becomes the member hint")

	assert.Equal(t, "2500.00", txs[1].Amount.StringFixed(2))
	assert.Empty(t, txs[1].Member)
}

func TestParseStripsBOM(t *testing.T) {
	txs, err := Parse(strings.NewReader("\ufeff"+sampleBourso), logging.NewMockLogger())
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestParseSkipsBadRowsWithWarning(t *testing.T) {
	input := "dateOp;dateVal;label;amount;accountNum;accountLabel\n" +
		"2024-03-01;2024-03-01;CARREFOUR;-30,50;acc;Compte\n" +
		"not-a-date;;BROKEN ROW;-1,00;acc;Compte\n" +
		"2024-03-02;2024-03-02;SNCF;-80,00;acc;Compte\n"

	logger := logging.NewMockLogger()
	txs, err := Parse(strings.NewReader(input), logger)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, 1, logger.CountLevel("warn"))
}

func TestParseAcceptsFrenchDates(t *testing.T) {
	input := "dateOp;dateVal;label;amount;accountNum;accountLabel\n" +
		"01/03/2024;;CARREFOUR;-30,50;acc;Compte\n"

	txs, err := Parse(strings.NewReader(input), logging.NewMockLogger())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "2024-03-01", txs[0].Date.Format("2006-01-02"))
}

func TestParseGenericWithMapping(t *testing.T) {
	input := "Date,Description,Value,Account\n" +
		"2024-03-01,UBER TRIP,-15.20,main\n" +
		"2024-03-02,PAYROLL,1800.00,main\n"

	mapping := Mapping{
		Delimiter:     ',',
		DateColumn:    "Date",
		LabelColumn:   "Description",
		AmountColumn:  "Value",
		AccountColumn: "Account",
	}
	txs, err := ParseGeneric(strings.NewReader(input), mapping, logging.NewMockLogger())
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "UBER TRIP", txs[0].Label)
	assert.Equal(t, "-15.20", txs[0].Amount.StringFixed(2))
	assert.Equal(t, "main", txs[0].AccountID)
}

func TestParseGenericMissingColumn(t *testing.T) {
	input := "Date,Description\n2024-03-01,UBER TRIP\n"
	mapping := Mapping{Delimiter: ',', DateColumn: "Date", LabelColumn: "Description", AmountColumn: "Value"}

	_, err := ParseGeneric(strings.NewReader(input), mapping, logging.NewMockLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Value")
}
