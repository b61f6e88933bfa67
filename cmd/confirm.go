package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"factures/internal/invoice"
	"factures/internal/logger"
	"factures/internal/store"
	"factures/pkg/services"
	"github.com/spf13/cobra"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm <invoice-id>",
	Short: "Confirm or correct the amounts of a stored invoice",
	Long: `Apply the amounts checked by the user to a stored invoice and reconcile it
again. Amounts that are not given keep their stored value.

The invoice becomes "verified" only when the confirmed amounts agree.`,
	Example: `  # Confirm the pre-tax amount and VAT
  factures confirm 3f0c... --pre-tax 100 --tax 20

  # Fix the VAT rate only
  factures confirm 3f0c... --rate 5,5`,
	Args: cobra.ExactArgs(1),
	RunE: runConfirm,
}

func init() {
	rootCmd.AddCommand(confirmCmd)

	confirmCmd.Flags().Float64("pre-tax", 0, "Confirmed pre-tax amount (HT)")
	confirmCmd.Flags().Float64("tax", 0, "Confirmed VAT amount (TVA)")
	confirmCmd.Flags().Float64("total", 0, "Confirmed total amount (TTC)")
	confirmCmd.Flags().String("rate", "", "Confirmed VAT rate in percent (\"20\", \"5,5\", \"1\")")
	confirmCmd.Flags().Bool("json", false, "Output as JSON format")
}

func runConfirm(cmd *cobra.Command, args []string) error {
	log := logger.WithInvoice("confirm", args[0])

	jsonOutput, _ := cmd.Flags().GetBool("json")

	amounts, err := confirmedAmounts(cmd)
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

	inv, err := svc.Confirm(ctx, args[0], amounts)
	if err != nil {
		if errors.Is(err, store.ErrInvoiceNotFound) {
			return fmt.Errorf("no invoice with id %s", args[0])
		}
		log.Error().Err(err).Msg("Confirmation failed")
		return err
	}

	if jsonOutput {
		return outputJSON(inv)
	}
	outputInvoiceConsole("FACTURE CONFIRMÉE", inv)
	return nil
}

// confirmedAmounts keeps only the flags the user actually set.
func confirmedAmounts(cmd *cobra.Command) (services.ConfirmedAmounts, error) {
	var amounts services.ConfirmedAmounts

	floatFlag := func(name string) *float64 {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetFloat64(name)
		return &v
	}
	amounts.PreTaxAmount = floatFlag("pre-tax")
	amounts.TaxAmount = floatFlag("tax")
	amounts.TotalAmount = floatFlag("total")

	if cmd.Flags().Changed("rate") {
		raw, _ := cmd.Flags().GetString("rate")
		parsed, ok := invoice.ParseAmount(raw)
		if ok {
			parsed, ok = invoice.CheckTaxRatePercent(parsed)
		}
		if !ok {
			return amounts, fmt.Errorf("invalid VAT rate: %q", raw)
		}
		amounts.TaxRatePercent = &parsed
	}

	return amounts, nil
}
