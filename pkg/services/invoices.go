package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"factures/internal/export"
	"factures/internal/invoice"
	"factures/internal/logger"
	"factures/pkg/models"
	"github.com/rs/zerolog"
)

// InvoiceService is the bookkeeping workflow shared by the CLI and the HTTP API.
type InvoiceService interface {
	// Reconcile checks the amounts of one extraction result without storing it.
	Reconcile(fields map[string]any) invoice.ReconciledAmounts

	// Import reconciles an extraction result and stores it as an invoice.
	Import(ctx context.Context, req ImportRequest) (*models.Invoice, error)

	// Confirm applies the amounts checked by the user and reconciles them again.
	Confirm(ctx context.Context, id string, amounts ConfirmedAmounts) (*models.Invoice, error)

	Get(ctx context.Context, id string) (*models.Invoice, error)
	List(ctx context.Context) ([]models.Invoice, error)

	// Records resolves the stored invoices of a period for export. With
	// strict set the batch is refused when any invoice is incoherent.
	Records(ctx context.Context, period string, strict bool) ([]export.Record, error)

	// Export writes the records of a period in the given format.
	Export(ctx context.Context, req ExportRequest, w io.Writer) (*ExportSummary, error)
}

// Repository stores invoices by id.
type Repository interface {
	Save(ctx context.Context, inv *models.Invoice) error
	Update(ctx context.Context, inv *models.Invoice) error
	Get(ctx context.Context, id string) (*models.Invoice, error)
	List(ctx context.Context) ([]models.Invoice, error)
}

// ImportRequest is an extraction result plus the descriptive fields typed by
// the user. Empty descriptive fields are looked up in Fields.
type ImportRequest struct {
	Fields        map[string]any `json:"fields"`
	InvoiceNumber string         `json:"invoice_number"`
	Vendor        string         `json:"vendor"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	InvoiceDate   string         `json:"invoice_date"`
	DryRun        bool           `json:"dry_run"`
}

// ConfirmedAmounts are the user's corrections. Nil keeps the stored value.
type ConfirmedAmounts struct {
	PreTaxAmount   *float64 `json:"pre_tax_amount"`
	TaxAmount      *float64 `json:"tax_amount"`
	TotalAmount    *float64 `json:"total_amount"`
	TaxRatePercent *float64 `json:"tax_rate_percent"`
}

// ExportRequest selects what to export and how.
type ExportRequest struct {
	Format export.Format
	Period string // YYYY-MM, empty for all periods
	Strict bool
}

// ExportSummary describes a written export.
type ExportSummary struct {
	Format   export.Format `json:"format"`
	Period   string        `json:"period"`
	Records  int           `json:"records"`
	ToVerify int           `json:"to_verify"`
}

// descriptiveAliases are the extraction keys of the non-monetary fields.
var descriptiveAliases = map[string][]string{
	"invoice_number": {"invoice_number", "numero_facture", "numéro_facture", "number"},
	"vendor":         {"vendor", "fournisseur", "supplier", "vendor_name"},
	"description":    {"description", "libelle", "libellé", "label"},
	"category":       {"category", "categorie", "catégorie"},
	"invoice_date":   {"invoice_date", "date_facture", "date"},
}

// Bookkeeping implements InvoiceService on a repository.
type Bookkeeping struct {
	repo       Repository
	reconciler *invoice.Reconciler
	mapping    invoice.FieldMapping
	generator  *export.Generator
	gate       *export.Gate
	log        zerolog.Logger
}

// NewBookkeeping wires the reconciliation and export policies to a repository.
func NewBookkeeping(repo Repository, reconcilerConfig invoice.ReconcilerConfig, exportConfig export.Config) *Bookkeeping {
	return &Bookkeeping{
		repo:       repo,
		reconciler: invoice.NewReconciler(reconcilerConfig),
		mapping:    invoice.DefaultFieldMapping(),
		generator:  export.NewGenerator(exportConfig),
		gate:       export.NewGate(exportConfig.GateTolerance),
		log:        logger.WithComponent("bookkeeping"),
	}
}

// Generator returns the export generator, for outputs rendered outside the
// service such as Google Sheets.
func (b *Bookkeeping) Generator() *export.Generator {
	return b.generator
}

func (b *Bookkeeping) Reconcile(fields map[string]any) invoice.ReconciledAmounts {
	return b.reconciler.Reconcile(b.mapping.InputFromMap(fields))
}

func (b *Bookkeeping) Import(ctx context.Context, req ImportRequest) (*models.Invoice, error) {
	const op = "Import"

	result := b.Reconcile(req.Fields)

	inv := &models.Invoice{
		InvoiceNumber:      firstNonEmpty(req.InvoiceNumber, stringField(req.Fields, "invoice_number")),
		Vendor:             firstNonEmpty(req.Vendor, stringField(req.Fields, "vendor")),
		Description:        firstNonEmpty(req.Description, stringField(req.Fields, "description")),
		Category:           firstNonEmpty(req.Category, stringField(req.Fields, "category")),
		InvoiceDate:        firstNonEmpty(req.InvoiceDate, stringField(req.Fields, "invoice_date")),
		PreTaxAmount:       result.PreTaxAmount,
		TaxAmount:          result.TaxAmount,
		TotalAmount:        result.TotalAmount,
		TaxRatePercent:     result.TaxRatePercent,
		VerificationStatus: string(result.VerificationStatus),
		Reason:             result.Reason,
	}

	if req.DryRun {
		return inv, nil
	}

	if err := b.repo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	invLog := logger.WithInvoice("bookkeeping", inv.ID)
	invLog.Info().
		Str("status", inv.VerificationStatus).
		Str("vendor", inv.Vendor).
		Msg("Invoice imported")

	return inv, nil
}

func (b *Bookkeeping) Confirm(ctx context.Context, id string, amounts ConfirmedAmounts) (*models.Invoice, error) {
	const op = "Confirm"

	inv, err := b.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	in := invoice.NormalizedInput{
		PreTax:         pick(amounts.PreTaxAmount, inv.PreTaxAmount),
		Tax:            pick(amounts.TaxAmount, inv.TaxAmount),
		Total:          pick(amounts.TotalAmount, inv.TotalAmount),
		TaxRatePercent: pick(amounts.TaxRatePercent, inv.TaxRatePercent),
	}
	// Stored and confirmed rates are percentages already.
	if in.TaxRatePercent != nil {
		if rate, ok := invoice.CheckTaxRatePercent(*in.TaxRatePercent); ok {
			in.TaxRatePercent = &rate
		} else {
			in.TaxRatePercent = nil
		}
	}

	result := b.reconciler.ReconcileNormalized(in)

	inv.PreTaxAmount = result.PreTaxAmount
	inv.TaxAmount = result.TaxAmount
	inv.TotalAmount = result.TotalAmount
	inv.TaxRatePercent = result.TaxRatePercent
	inv.VerificationStatus = string(result.VerificationStatus)
	inv.Reason = result.Reason

	if err := b.repo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	invLog := logger.WithInvoice("bookkeeping", inv.ID)
	invLog.Info().
		Str("status", inv.VerificationStatus).
		Msg("Invoice confirmed")

	return inv, nil
}

func (b *Bookkeeping) Get(ctx context.Context, id string) (*models.Invoice, error) {
	return b.repo.Get(ctx, id)
}

func (b *Bookkeeping) List(ctx context.Context) ([]models.Invoice, error) {
	return b.repo.List(ctx)
}

func (b *Bookkeeping) Records(ctx context.Context, period string, strict bool) ([]export.Record, error) {
	const op = "Records"

	invoices, err := b.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	all, err := b.generator.ResolveAll(ctx, invoices)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	records := export.FilterPeriod(all, period)

	if strict {
		// The gate judges the stored amounts, not the resolved ones.
		byID := make(map[string]models.Invoice, len(invoices))
		for _, inv := range invoices {
			byID[inv.ID] = inv
		}
		selected := make([]models.Invoice, 0, len(records))
		for _, r := range records {
			selected = append(selected, byID[r.ID])
		}
		if err := b.gate.Check(selected); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func (b *Bookkeeping) Export(ctx context.Context, req ExportRequest, w io.Writer) (*ExportSummary, error) {
	const op = "Export"

	records, err := b.Records(ctx, req.Period, req.Strict)
	if err != nil {
		return nil, err
	}

	if err := b.generator.Write(w, req.Format, records); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summary := &ExportSummary{Format: req.Format, Period: req.Period, Records: len(records)}
	for _, r := range records {
		if r.Estimated || !r.Coherent {
			summary.ToVerify++
		}
	}

	b.log.Info().
		Str("format", string(req.Format)).
		Str("period", req.Period).
		Int("records", summary.Records).
		Int("to_verify", summary.ToVerify).
		Msg("Export written")

	return summary, nil
}

func pick(override, stored *float64) *float64 {
	if override != nil {
		return override
	}
	return stored
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func stringField(fields map[string]any, name string) string {
	for _, alias := range descriptiveAliases[name] {
		for key, value := range fields {
			if !strings.EqualFold(key, alias) {
				continue
			}
			if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// Verify interface compliance
var _ InvoiceService = (*Bookkeeping)(nil)
