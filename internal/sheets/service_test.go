package sheets

import (
	"testing"

	"factures/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9xYz/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_9xYz", id)

	_, err = extractSpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestRecordToValues(t *testing.T) {
	row := recordToValues(export.Record{
		ID:             "a",
		Date:           "2024-03-15",
		Vendor:         "Orange",
		Label:          "Box",
		PreTax:         40,
		Tax:            8,
		Total:          48,
		TaxRatePercent: 20,
		Coherent:       true,
		Period:         "2024-03",
	})

	require.Len(t, row, len(headers))
	assert.Equal(t, 48.0, row[6])
	assert.Equal(t, export.TransactionType, row[8])
	assert.Equal(t, "", row[12])

	flagged := recordToValues(export.Record{Estimated: true, Coherent: true})
	assert.Equal(t, "oui", flagged[12])
}

func TestColumnRange(t *testing.T) {
	assert.Equal(t, "A:M", columnRange())
}
