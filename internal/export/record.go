package export

import (
	"context"
	"strings"
	"sync"
	"time"

	"factures/internal/invoice"
	"factures/internal/logger"
	"factures/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// PeriodUnknown labels records whose date could not be resolved.
	PeriodUnknown = "Sans période"

	// VendorUnknown replaces an empty vendor name.
	VendorUnknown = "Non renseigné"

	// ToVerifySuffix is appended to the label of estimated or incoherent records.
	ToVerifySuffix = " (À vérifier)"

	// TransactionType is the constant type column of the CSV export.
	TransactionType = "Achat"

	// Supported FEC encodings
	EncodingUTF8   = "utf-8"
	EncodingLatin9 = "iso-8859-15"
)

// dateLayouts are tried in order on stored invoice dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
}

// Record is one invoice ready for accounting export. Amounts are never
// missing.
type Record struct {
	ID            string `json:"id"`
	Date          string `json:"date"` // ISO YYYY-MM-DD
	InvoiceNumber string `json:"invoice_number"`
	Vendor        string `json:"vendor"`
	Label         string `json:"label"`
	Category      string `json:"category"`

	PreTax         float64 `json:"pre_tax_amount"`
	Tax            float64 `json:"tax_amount"`
	Total          float64 `json:"total_amount"`
	TaxRatePercent float64 `json:"tax_rate_percent"`

	Estimated bool   `json:"estimated"`
	Coherent  bool   `json:"coherent"`
	Period    string `json:"period"` // YYYY-MM or PeriodUnknown
}

// Config holds the export policy and the FEC layout settings.
type Config struct {
	Resolver        invoice.ResolverConfig
	GateTolerance   invoice.Tolerance
	Workers         int
	FECJournalCode  string
	FECJournalLabel string
	FECEncoding     string
}

// DefaultConfig returns the French purchase journal defaults.
func DefaultConfig() Config {
	return Config{
		Resolver:        invoice.DefaultResolverConfig(),
		GateTolerance:   invoice.ExportTolerance(),
		Workers:         4,
		FECJournalCode:  "AC",
		FECJournalLabel: "Achats",
		FECEncoding:     EncodingUTF8,
	}
}

// Generator turns stored invoices into export records and renders them.
type Generator struct {
	config   Config
	resolver *invoice.BestEffortResolver
	now      func() time.Time
	log      zerolog.Logger
}

// NewGenerator creates a generator for the given configuration.
func NewGenerator(config Config) *Generator {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.FECEncoding == "" {
		config.FECEncoding = EncodingUTF8
	}
	return &Generator{
		config:   config,
		resolver: invoice.NewBestEffortResolver(config.Resolver),
		now:      time.Now,
		log:      logger.WithComponent("export"),
	}
}

// WithClock returns a copy of g that reads the current date from now.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	c := *g
	c.now = now
	return &c
}

// ResolveForExport builds the export record of one stored invoice.
func (g *Generator) ResolveForExport(inv models.Invoice) Record {
	date, ok := parseDate(inv.InvoiceDate)
	if !ok && !inv.CreatedAt.IsZero() {
		date, ok = inv.CreatedAt, true
	}

	period := PeriodUnknown
	if ok {
		period = date.Format("2006-01")
	} else {
		date = g.now()
	}

	amounts := g.resolver.Resolve(invoice.StoredAmounts{
		PreTax:         inv.PreTaxAmount,
		Tax:            inv.TaxAmount,
		Total:          inv.TotalAmount,
		TaxRatePercent: inv.TaxRatePercent,
	})

	vendor := strings.TrimSpace(inv.Vendor)
	if vendor == "" {
		vendor = VendorUnknown
	}

	label := strings.TrimSpace(inv.Description)
	if label == "" {
		label = "Achat - " + vendor
	}
	if amounts.Estimated || !amounts.Coherent {
		label += ToVerifySuffix
	}

	id := inv.ID
	if id == "" {
		id = uuid.NewString()
	}

	return Record{
		ID:             id,
		Date:           date.Format("2006-01-02"),
		InvoiceNumber:  strings.TrimSpace(inv.InvoiceNumber),
		Vendor:         vendor,
		Label:          label,
		Category:       inv.Category,
		PreTax:         amounts.PreTax,
		Tax:            amounts.Tax,
		Total:          amounts.Total,
		TaxRatePercent: amounts.TaxRatePercent,
		Estimated:      amounts.Estimated,
		Coherent:       amounts.Coherent,
		Period:         period,
	}
}

type resolveJob struct {
	index   int
	invoice models.Invoice
}

// ResolveAll resolves invoices on a pool of workers. The records keep the
// order of the input.
func (g *Generator) ResolveAll(ctx context.Context, invoices []models.Invoice) ([]Record, error) {
	jobs := make(chan resolveJob, len(invoices))
	records := make([]Record, len(invoices))

	workers := g.config.Workers
	if workers > len(invoices) {
		workers = len(invoices)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				records[job.index] = g.ResolveForExport(job.invoice)

				g.log.Trace().
					Int("worker", workerID).
					Int("index", job.index).
					Str("invoice_id", records[job.index].ID).
					Msg("Resolved invoice for export")
			}
		}(w)
	}

	for i, inv := range invoices {
		jobs <- resolveJob{index: i, invoice: inv}
	}
	close(jobs)

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	estimated := 0
	for _, r := range records {
		if r.Estimated || !r.Coherent {
			estimated++
		}
	}
	g.log.Info().
		Int("records", len(records)).
		Int("to_verify", estimated).
		Msg("Resolved export batch")

	return records, nil
}

// FilterPeriod keeps the records of one YYYY-MM period. An empty period
// keeps everything.
func FilterPeriod(records []Record, period string) []Record {
	if period == "" {
		return records
	}
	var kept []Record
	for _, r := range records {
		if r.Period == period {
			kept = append(kept, r)
		}
	}
	return kept
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	// Timestamps with an unknown suffix still carry an ISO date prefix.
	if len(value) > 10 {
		if t, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
