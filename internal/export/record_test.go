package export

import (
	"context"
	"fmt"
	"testing"
	"time"

	"factures/internal/invoice"
	"factures/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 2, 14, 9, 30, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	return NewGenerator(DefaultConfig()).WithClock(func() time.Time { return fixedNow })
}

func TestResolveForExport_Dates(t *testing.T) {
	created := time.Date(2024, 11, 3, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		date       string
		createdAt  time.Time
		wantDate   string
		wantPeriod string
	}{
		{"iso date", "2024-03-15", created, "2024-03-15", "2024-03"},
		{"french date", "15/03/2024", created, "2024-03-15", "2024-03"},
		{"dotted date", "15.03.2024", created, "2024-03-15", "2024-03"},
		{"timestamp", "2024-03-15T10:20:30Z", created, "2024-03-15", "2024-03"},
		{"iso prefix", "2024-03-15 10h20", created, "2024-03-15", "2024-03"},
		{"unparseable falls back to creation", "mars 2024", created, "2024-11-03", "2024-11"},
		{"empty falls back to creation", "", created, "2024-11-03", "2024-11"},
		{"nothing falls back to today", "n/a", time.Time{}, "2025-02-14", PeriodUnknown},
	}

	g := newTestGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := g.ResolveForExport(models.Invoice{ID: "a", InvoiceDate: tt.date, CreatedAt: tt.createdAt})
			assert.Equal(t, tt.wantDate, r.Date)
			assert.Equal(t, tt.wantPeriod, r.Period)
		})
	}
}

func TestResolveForExport_Labels(t *testing.T) {
	g := newTestGenerator()

	t.Run("description is the label", func(t *testing.T) {
		r := g.ResolveForExport(models.Invoice{
			ID:           "a",
			Vendor:       "Orange",
			Description:  "Abonnement fibre",
			PreTaxAmount: models.Float(40),
			TaxAmount:    models.Float(8),
			TotalAmount:  models.Float(48),
		})
		assert.Equal(t, "Orange", r.Vendor)
		assert.Equal(t, "Abonnement fibre", r.Label)
		assert.False(t, r.Estimated)
	})

	t.Run("missing vendor and description", func(t *testing.T) {
		r := g.ResolveForExport(models.Invoice{
			ID:           "a",
			Vendor:       "  ",
			PreTaxAmount: models.Float(40),
			TaxAmount:    models.Float(8),
			TotalAmount:  models.Float(48),
		})
		assert.Equal(t, VendorUnknown, r.Vendor)
		assert.Equal(t, "Achat - "+VendorUnknown, r.Label)
	})

	t.Run("estimated amounts are flagged", func(t *testing.T) {
		r := g.ResolveForExport(models.Invoice{ID: "a", Vendor: "SNCF", TotalAmount: models.Float(120)})
		assert.True(t, r.Estimated)
		assert.Equal(t, "Achat - SNCF"+ToVerifySuffix, r.Label)
		assert.InDelta(t, 100.0, r.PreTax, 1e-9)
		assert.InDelta(t, 20.0, r.Tax, 1e-9)
	})

	t.Run("repaired amounts are flagged", func(t *testing.T) {
		r := g.ResolveForExport(models.Invoice{
			ID:           "a",
			Description:  "Papier",
			PreTaxAmount: models.Float(100),
			TaxAmount:    models.Float(10),
			TotalAmount:  models.Float(120),
		})
		assert.Equal(t, "Papier"+ToVerifySuffix, r.Label)
		assert.InDelta(t, 20.0, r.Tax, 1e-9)
	})

	t.Run("missing id gets a uuid", func(t *testing.T) {
		r := g.ResolveForExport(models.Invoice{})
		_, err := uuid.Parse(r.ID)
		assert.NoError(t, err)
	})
}

func TestResolveForExport_MatchesResolver(t *testing.T) {
	g := newTestGenerator()
	resolver := invoice.NewBestEffortResolver(invoice.DefaultResolverConfig())

	inv := models.Invoice{ID: "a", PreTaxAmount: models.Float(83.33), TaxRatePercent: models.Float(5.5)}
	want := resolver.Resolve(invoice.StoredAmounts{PreTax: inv.PreTaxAmount, TaxRatePercent: inv.TaxRatePercent})
	got := g.ResolveForExport(inv)

	assert.Equal(t, want.PreTax, got.PreTax)
	assert.Equal(t, want.Tax, got.Tax)
	assert.Equal(t, want.Total, got.Total)
	assert.Equal(t, want.TaxRatePercent, got.TaxRatePercent)
}

func TestResolveAll_PreservesOrder(t *testing.T) {
	config := DefaultConfig()
	config.Workers = 7
	g := NewGenerator(config)

	invoices := make([]models.Invoice, 200)
	for i := range invoices {
		invoices[i] = models.Invoice{
			ID:          fmt.Sprintf("inv-%03d", i),
			TotalAmount: models.Float(float64(i) + 0.99),
		}
	}

	records, err := g.ResolveAll(context.Background(), invoices)
	require.NoError(t, err)
	require.Len(t, records, len(invoices))

	for i, r := range records {
		assert.Equal(t, invoices[i].ID, r.ID)
		assert.InDelta(t, *invoices[i].TotalAmount, r.Total, 1e-9)
	}
}

func TestResolveAll_Empty(t *testing.T) {
	records, err := newTestGenerator().ResolveAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestResolveAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestGenerator().ResolveAll(ctx, []models.Invoice{{ID: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilterPeriod(t *testing.T) {
	records := []Record{
		{ID: "a", Period: "2024-03"},
		{ID: "b", Period: "2024-04"},
		{ID: "c", Period: PeriodUnknown},
		{ID: "d", Period: "2024-03"},
	}

	assert.Len(t, FilterPeriod(records, ""), 4)

	kept := FilterPeriod(records, "2024-03")
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID)
	assert.Equal(t, "d", kept[1].ID)

	assert.Empty(t, FilterPeriod(records, "2023-01"))
}
