package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"factures/internal/export"
	"factures/internal/invoice"
	"factures/pkg/models"
)

// readFields reads a JSON extraction result from a file, or from stdin when
// path is "-" or empty.
func readFields(path string) (map[string]any, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open extraction file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var fields map[string]any
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return nil, fmt.Errorf("extraction result must be a JSON object: %w", err)
	}
	return fields, nil
}

func outputJSON(v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	fmt.Println(string(jsonData))
	return nil
}

func amount(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f EUR", *v)
}

func rate(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f %%", *v)
}

func statusLabel(status string) string {
	switch invoice.VerificationStatus(status) {
	case invoice.StatusVerified:
		return "VÉRIFIÉE"
	case invoice.StatusToVerify:
		return "À VÉRIFIER"
	case invoice.StatusIncomplete:
		return "INCOMPLÈTE"
	default:
		return "INCONNU"
	}
}

func outputHeader(title string) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("                           %s\n", title)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

func outputAmountsSection(amounts invoice.ReconciledAmounts) {
	fmt.Println("=== MONTANTS ===")
	fmt.Printf("Montant HT: %s\n", amount(amounts.PreTaxAmount))
	fmt.Printf("TVA: %s\n", amount(amounts.TaxAmount))
	fmt.Printf("Montant TTC: %s\n", amount(amounts.TotalAmount))
	fmt.Printf("Taux de TVA: %s\n", rate(amounts.TaxRatePercent))
	fmt.Println()

	fmt.Println("=== VÉRIFICATION ===")
	fmt.Printf("Statut: %s\n", statusLabel(string(amounts.VerificationStatus)))
	fmt.Printf("Motif: %s\n", amounts.Reason)
	fmt.Println(strings.Repeat("=", 80))
}

func outputAmountsConsole(title string, amounts invoice.ReconciledAmounts) {
	outputHeader(title)
	outputAmountsSection(amounts)
}

func outputInvoiceConsole(title string, inv *models.Invoice) {
	outputHeader(title)

	fmt.Println("=== FACTURE ===")
	fmt.Printf("Identifiant: %s\n", inv.ID)
	if inv.InvoiceNumber != "" {
		fmt.Printf("Numéro: %s\n", inv.InvoiceNumber)
	}
	if inv.Vendor != "" {
		fmt.Printf("Fournisseur: %s\n", inv.Vendor)
	}
	if inv.InvoiceDate != "" {
		fmt.Printf("Date: %s\n", inv.InvoiceDate)
	}
	if inv.Description != "" {
		fmt.Printf("Description: %s\n", inv.Description)
	}
	if inv.Category != "" {
		fmt.Printf("Catégorie: %s\n", inv.Category)
	}
	fmt.Println()

	outputAmountsSection(invoice.ReconciledAmounts{
		PreTaxAmount:       inv.PreTaxAmount,
		TaxAmount:          inv.TaxAmount,
		TotalAmount:        inv.TotalAmount,
		TaxRatePercent:     inv.TaxRatePercent,
		VerificationStatus: invoice.VerificationStatus(inv.VerificationStatus),
		Reason:             inv.Reason,
	})
}

// outputGateRefusal prints the invoices that blocked a strict export.
func outputGateRefusal(gateErr *export.GateError) {
	fmt.Fprintln(os.Stderr, "Export refusé: des factures ont des montants incohérents.")
	for _, o := range gateErr.Offenders {
		name := o.InvoiceNumber
		if name == "" {
			name = o.ID
		}
		fmt.Fprintf(os.Stderr, "  - %s (%s): écart de %s EUR\n", name, o.Vendor, o.Delta.StringFixed(2))
	}
	fmt.Fprintln(os.Stderr, "Corrigez-les avec 'factures confirm <id>' ou exportez sans --strict.")
}
