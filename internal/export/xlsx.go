package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Export"

// WriteXLSX writes the CSV column set as a workbook with numeric amount cells.
func (g *Generator) WriteXLSX(w io.Writer, records []Record) error {
	const op = "WriteXLSX"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("%s: failed to rename sheet: %w", op, err)
	}

	header := make([]interface{}, len(csvHeader))
	for i, h := range csvHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("%s: failed to write header: %w", op, err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return fmt.Errorf("%s: failed to create header style: %w", op, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(csvHeader))
	if err := f.SetCellStyle(xlsxSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("%s: failed to style header: %w", op, err)
	}

	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("%s: failed to create amount style: %w", op, err)
	}

	for i, r := range records {
		rowNum := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		row := []interface{}{
			r.Date,
			singleLine(r.InvoiceNumber),
			singleLine(r.Vendor),
			singleLine(r.Label),
			r.PreTax,
			r.Tax,
			r.Total,
			r.TaxRatePercent,
			TransactionType,
			"",
			r.Period,
			r.ID,
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("%s: failed to write record %s: %w", op, r.ID, err)
		}
	}

	if len(records) > 0 {
		first, _ := excelize.CoordinatesToCellName(5, 2)
		last, _ := excelize.CoordinatesToCellName(8, len(records)+1)
		if err := f.SetCellStyle(xlsxSheet, first, last, amountStyle); err != nil {
			return fmt.Errorf("%s: failed to style amounts: %w", op, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}

	g.log.Debug().Int("rows", len(records)).Msg("XLSX export written")
	return nil
}
