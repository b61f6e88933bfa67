package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestEffortResolver_Resolve(t *testing.T) {
	tests := []struct {
		name  string
		input StoredAmounts
		want  ResolvedAmounts
	}{
		{
			name:  "nothing stored",
			input: StoredAmounts{},
			want:  ResolvedAmounts{Estimated: true, Coherent: true},
		},
		{
			name:  "coherent triple is kept",
			input: StoredAmounts{PreTax: f(100), Tax: f(20), Total: f(120)},
			want:  ResolvedAmounts{PreTax: 100, Tax: 20, Total: 120, TaxRatePercent: 20, Coherent: true},
		},
		{
			name:  "incoherent triple gets its tax recomputed",
			input: StoredAmounts{PreTax: f(100), Tax: f(10), Total: f(120)},
			want:  ResolvedAmounts{PreTax: 100, Tax: 20, Total: 120, TaxRatePercent: 20, Estimated: true, Coherent: true},
		},
		{
			name:  "gap within five cents is accepted",
			input: StoredAmounts{PreTax: f(100), Tax: f(20), Total: f(120.05)},
			want:  ResolvedAmounts{PreTax: 100, Tax: 20, Total: 120.05, TaxRatePercent: 20, Coherent: true},
		},
		{
			name:  "pre-tax and tax",
			input: StoredAmounts{PreTax: f(100), Tax: f(20)},
			want:  ResolvedAmounts{PreTax: 100, Tax: 20, Total: 120, TaxRatePercent: 20, Coherent: true},
		},
		{
			name:  "tax and total",
			input: StoredAmounts{Tax: f(20), Total: f(120)},
			want:  ResolvedAmounts{PreTax: 100, Tax: 20, Total: 120, TaxRatePercent: 20, Coherent: true},
		},
		{
			name:  "pre-tax and total",
			input: StoredAmounts{PreTax: f(100), Total: f(105.5)},
			want:  ResolvedAmounts{PreTax: 100, Tax: 5.5, Total: 105.5, TaxRatePercent: 5.5, Coherent: true},
		},
		{
			name:  "pre-tax alone with default rate is estimated",
			input: StoredAmounts{PreTax: f(100)},
			want:  ResolvedAmounts{PreTax: 100, Tax: 20, Total: 120, TaxRatePercent: 20, Estimated: true, Coherent: true},
		},
		{
			name:  "pre-tax alone with stored rate is not estimated",
			input: StoredAmounts{PreTax: f(100), TaxRatePercent: f(10)},
			want:  ResolvedAmounts{PreTax: 100, Tax: 10, Total: 110, TaxRatePercent: 10, Coherent: true},
		},
		{
			name:  "total alone is always estimated",
			input: StoredAmounts{Total: f(120), TaxRatePercent: f(20)},
			want:  ResolvedAmounts{PreTax: 100, Tax: 20, Total: 120, TaxRatePercent: 20, Estimated: true, Coherent: true},
		},
		{
			name:  "total alone with default rate",
			input: StoredAmounts{Total: f(100)},
			want:  ResolvedAmounts{PreTax: 83.33, Tax: 16.67, Total: 100, TaxRatePercent: 20, Estimated: true, Coherent: true},
		},
		{
			name:  "tax alone",
			input: StoredAmounts{Tax: f(20)},
			want:  ResolvedAmounts{PreTax: 100, Tax: 20, Total: 120, TaxRatePercent: 20, Estimated: true, Coherent: true},
		},
		{
			name:  "tax alone with zero rate",
			input: StoredAmounts{Tax: f(3), TaxRatePercent: f(0)},
			want:  ResolvedAmounts{PreTax: 0, Tax: 3, Total: 3, TaxRatePercent: 0, Estimated: true, Coherent: true},
		},
		{
			name:  "out of range stored rate is ignored",
			input: StoredAmounts{PreTax: f(200), Tax: f(11), Total: f(211), TaxRatePercent: f(550)},
			want:  ResolvedAmounts{PreTax: 200, Tax: 11, Total: 211, TaxRatePercent: 5.5, Coherent: true},
		},
		{
			name:  "back-computed rate is clamped",
			input: StoredAmounts{PreTax: f(10), Tax: f(30), Total: f(40)},
			want:  ResolvedAmounts{PreTax: 10, Tax: 30, Total: 40, TaxRatePercent: 100, Coherent: true},
		},
		{
			name:  "credit note keeps a zero rate",
			input: StoredAmounts{PreTax: f(-50), Tax: f(-10), Total: f(-60)},
			want:  ResolvedAmounts{PreTax: -50, Tax: -10, Total: -60, TaxRatePercent: 0, Coherent: true},
		},
	}

	r := NewBestEffortResolver(DefaultResolverConfig())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.input)

			assert.InDelta(t, tt.want.PreTax, got.PreTax, 1e-9, "pre-tax")
			assert.InDelta(t, tt.want.Tax, got.Tax, 1e-9, "tax")
			assert.InDelta(t, tt.want.Total, got.Total, 1e-9, "total")
			assert.InDelta(t, tt.want.TaxRatePercent, got.TaxRatePercent, 1e-9, "rate")
			assert.Equal(t, tt.want.Estimated, got.Estimated, "estimated")
			assert.Equal(t, tt.want.Coherent, got.Coherent, "coherent")
		})
	}
}

func TestBestEffortResolver_AlwaysCoherent(t *testing.T) {
	r := NewBestEffortResolver(DefaultResolverConfig())
	values := []*float64{nil, f(0), f(0.01), f(19.99), f(100), f(120), f(-30), f(9999.99)}
	rates := []*float64{nil, f(0), f(5.5), f(20)}

	for _, preTax := range values {
		for _, tax := range values {
			for _, total := range values {
				for _, rate := range rates {
					got := r.Resolve(StoredAmounts{PreTax: preTax, Tax: tax, Total: total, TaxRatePercent: rate})
					assert.True(t, got.Coherent, "incoherent result %+v", got)
					assert.GreaterOrEqual(t, got.TaxRatePercent, 0.0)
					assert.LessOrEqual(t, got.TaxRatePercent, 100.0)
				}
			}
		}
	}
}

func TestStrategiesDisagreeOnIncoherentInput(t *testing.T) {
	stored := NormalizedInput{PreTax: f(100), Tax: f(10), Total: f(120)}

	reconciled := NewReconciler(DefaultReconcilerConfig()).ReconcileNormalized(stored)
	resolved := NewBestEffortResolver(DefaultResolverConfig()).Resolve(StoredAmounts{
		PreTax: stored.PreTax, Tax: stored.Tax, Total: stored.Total,
	})

	assert.Equal(t, StatusToVerify, reconciled.VerificationStatus)
	assert.Equal(t, f(10), reconciled.TaxAmount, "the interactive path never rewrites extracted amounts")
	assert.Equal(t, 20.0, resolved.Tax, "the export path repairs the tax")
	assert.True(t, resolved.Estimated)
}
