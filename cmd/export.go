package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"factures/internal/export"
	"factures/internal/logger"
	"factures/internal/sheets"
	"factures/pkg/services"
	"github.com/spf13/cobra"
)

const formatSheets = "sheets"

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored invoices for the accountant",
	Long: `Export the stored invoices as a semicolon CSV, a FEC journal (Fichier des
Écritures Comptables), an Excel workbook or rows appended to a Google Sheet.

Every invoice gets usable amounts: missing ones are inferred and lines that
had to be estimated or repaired carry " (À vérifier)" in their label.

With --strict the export is refused when any invoice of the period has
amounts that do not add up, and nothing is written.

Required environment variables for --format sheets:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL receiving the export`,
	Example: `  # CSV of March 2024 on stdout
  factures export --period 2024-03

  # FEC journal for the accountant
  factures export --format fec --period 2024-03 --output FEC_202403.txt

  # Refuse the export if anything is incoherent
  factures export --format xlsx --strict --output achats.xlsx

  # Append to the configured Google Sheet
  factures export --format sheets --period 2024-03`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("format", "csv", "Export format (csv, fec, xlsx, sheets)")
	exportCmd.Flags().String("period", "", "Period to export (YYYY-MM, default: all)")
	exportCmd.Flags().Bool("strict", false, "Refuse the export when any invoice is incoherent")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	formatName, _ := cmd.Flags().GetString("format")
	period, _ := cmd.Flags().GetString("period")
	strict, _ := cmd.Flags().GetBool("strict")
	output, _ := cmd.Flags().GetString("output")

	if err := export.ValidatePeriod(period); err != nil {
		return err
	}

	log.Info().
		Str("format", formatName).
		Str("period", period).
		Bool("strict", strict).
		Str("output", output).
		Msg("Starting export")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc, closeFn, err := openService(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if strings.EqualFold(strings.TrimSpace(formatName), formatSheets) {
		return exportToSheets(ctx, svc, period, strict)
	}

	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	// Buffered so that a refused batch leaves no partial file behind.
	var buf bytes.Buffer
	summary, err := svc.Export(ctx, services.ExportRequest{Format: format, Period: period, Strict: strict}, &buf)
	if err != nil {
		return handleExportError(err)
	}

	if err := writeOutput(output, buf.Bytes()); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%d écriture(s) exportée(s), dont %d à vérifier\n", summary.Records, summary.ToVerify)
	return nil
}

func exportToSheets(ctx context.Context, svc services.InvoiceService, period string, strict bool) error {
	if cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for the sheets format")
	}

	records, err := svc.Records(ctx, period, strict)
	if err != nil {
		return handleExportError(err)
	}

	sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		return fmt.Errorf("failed to create sheets service: %w", err)
	}

	if err := sheetsService.WriteRecords(ctx, records, cfg.GoogleSheetWorksheet); err != nil {
		return fmt.Errorf("failed to write export to Google Sheets: %w", err)
	}

	fmt.Fprintf(os.Stderr, "%d ligne(s) ajoutée(s) à la feuille %q\n", len(records), cfg.GoogleSheetWorksheet)
	return nil
}

func handleExportError(err error) error {
	var gateErr *export.GateError
	if errors.As(err, &gateErr) {
		outputGateRefusal(gateErr)
	}
	return err
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return f.Close()
}
