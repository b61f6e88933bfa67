package cmd

import (
	"context"
	"time"

	"factures/internal/logger"
	"factures/pkg/services"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [json-file|-]",
	Short: "Reconcile an extraction result and store it as an invoice",
	Long: `Reconcile the amounts of an extraction result and store the invoice in the
local database, where it can be confirmed and exported.

Descriptive fields given as flags win over the ones found in the JSON input
(fournisseur, date_facture, numero_facture...).`,
	Example: `  # Import an extraction result
  factures import extraction.json

  # Override the vendor and date
  factures import extraction.json --vendor "EDF" --date 2024-03-10

  # Check what would be stored
  factures import extraction.json --dry-run --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("vendor", "", "Vendor name")
	importCmd.Flags().String("date", "", "Invoice date (YYYY-MM-DD or DD/MM/YYYY)")
	importCmd.Flags().String("number", "", "Invoice number")
	importCmd.Flags().String("description", "", "Description of the purchase")
	importCmd.Flags().String("category", "", "Expense category (carburant, loyer, logiciel...)")
	importCmd.Flags().Bool("dry-run", false, "Reconcile but don't store the invoice")
	importCmd.Flags().Bool("json", false, "Output as JSON format")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")

	vendor, _ := cmd.Flags().GetString("vendor")
	date, _ := cmd.Flags().GetString("date")
	number, _ := cmd.Flags().GetString("number")
	description, _ := cmd.Flags().GetString("description")
	category, _ := cmd.Flags().GetString("category")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	fields, err := readFields(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc, closeFn, err := openService(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	inv, err := svc.Import(ctx, services.ImportRequest{
		Fields:        fields,
		InvoiceNumber: number,
		Vendor:        vendor,
		Description:   description,
		Category:      category,
		InvoiceDate:   date,
		DryRun:        dryRun,
	})
	if err != nil {
		log.Error().Err(err).Str("source", path).Msg("Import failed")
		return err
	}

	if jsonOutput {
		return outputJSON(inv)
	}

	title := "FACTURE IMPORTÉE"
	if dryRun {
		title = "FACTURE (SIMULATION)"
	}
	outputInvoiceConsole(title, inv)
	return nil
}
