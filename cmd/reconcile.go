package cmd

import (
	"factures/internal/invoice"
	"factures/internal/logger"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [json-file|-]",
	Short: "Check the amounts of one extraction result",
	Long: `Reconcile the pre-tax amount, VAT, total and VAT rate of an extraction
result without storing anything.

The input is a JSON object as produced by the extraction step. Amounts may be
numbers or French-formatted strings ("1 234,56 €"), and the usual French
field names are recognised (montant_ht, tva, montant_ttc, taux_tva...).

Amounts that were extracted are never rewritten. When they disagree the
result is flagged "to_verify" for the user to decide.`,
	Example: `  # Check an extraction result
  factures reconcile extraction.json

  # Read from stdin and print JSON
  echo '{"montant_ht": "100,00", "tva": "20,00"}' | factures reconcile - --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().Bool("json", false, "Output as JSON format")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reconcile")

	jsonOutput, _ := cmd.Flags().GetBool("json")

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	fields, err := readFields(path)
	if err != nil {
		return err
	}

	reconciler := invoice.NewReconciler(cfg.ReconcilerConfig())
	result := reconciler.Reconcile(invoice.DefaultFieldMapping().InputFromMap(fields))

	log.Info().
		Str("source", path).
		Str("status", string(result.VerificationStatus)).
		Msg("Amounts reconciled")

	if jsonOutput {
		return outputJSON(result)
	}
	outputAmountsConsole("RAPPROCHEMENT DES MONTANTS", result)
	return nil
}
