package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// utf8BOM lets spreadsheet software detect the encoding.
const utf8BOM = "\ufeff"

var csvHeader = []string{
	"Date",
	"Numéro de facture",
	"Fournisseur",
	"Libellé",
	"Montant HT",
	"TVA",
	"Montant TTC",
	"Taux TVA (%)",
	"Type",
	"Mode de paiement",
	"Période comptable",
	"ID",
}

// WriteCSV writes the semicolon-delimited accounting table: a header and one
// line per record.
func (g *Generator) WriteCSV(w io.Writer, records []Record) error {
	const op = "WriteCSV"

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("%s: failed to write BOM: %w", op, err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("%s: failed to write header: %w", op, err)
	}

	for _, r := range records {
		row := []string{
			r.Date,
			singleLine(r.InvoiceNumber),
			singleLine(r.Vendor),
			singleLine(r.Label),
			formatAmount(r.PreTax),
			formatAmount(r.Tax),
			formatAmount(r.Total),
			formatAmount(r.TaxRatePercent),
			TransactionType,
			"", // payment mode is not tracked
			r.Period,
			r.ID,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%s: failed to write record %s: %w", op, r.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	g.log.Debug().Int("rows", len(records)).Msg("CSV export written")
	return nil
}

// CSV returns the accounting table as text.
func (g *Generator) CSV(records []Record) (string, error) {
	var buf bytes.Buffer
	if err := g.WriteCSV(&buf, records); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatAmount renders an amount with a dot and exactly two decimals.
func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// singleLine keeps free text on one line so each record is one CSV line.
func singleLine(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}
