package export

import (
	"factures/internal/invoice"
	"factures/internal/logger"
	"factures/pkg/models"
	"github.com/rs/zerolog"
)

// Gate refuses a whole batch when any stored invoice is arithmetically
// incoherent. Unlike the resolver it never corrects amounts.
type Gate struct {
	tolerance invoice.Tolerance
	log       zerolog.Logger
}

// NewGate creates a gate. A nil tolerance falls back to ExportTolerance.
func NewGate(tolerance invoice.Tolerance) *Gate {
	if tolerance == nil {
		tolerance = invoice.ExportTolerance()
	}
	return &Gate{
		tolerance: tolerance,
		log:       logger.WithComponent("export-gate"),
	}
}

// Check returns a *GateError wrapping ErrIncoherentBatch when at least one
// invoice with all three stored amounts fails the coherence check.
func (g *Gate) Check(invoices []models.Invoice) error {
	const op = "Gate.Check"

	var offenders []Offender
	for _, inv := range invoices {
		if inv.PreTaxAmount == nil || inv.TaxAmount == nil || inv.TotalAmount == nil {
			continue
		}
		pre, tax, total := *inv.PreTaxAmount, *inv.TaxAmount, *inv.TotalAmount
		if invoice.IsCoherent(pre, tax, total, g.tolerance(total)) {
			continue
		}
		offenders = append(offenders, Offender{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			Vendor:        inv.Vendor,
			Delta:         invoice.Delta(pre, tax, total).Round(2),
		})
	}

	if len(offenders) == 0 {
		return nil
	}

	g.log.Warn().
		Int("invoices", len(invoices)).
		Int("incoherent", len(offenders)).
		Msg("Export refused, batch contains incoherent invoices")

	return &GateError{Op: op, Err: ErrIncoherentBatch, Offenders: offenders}
}
