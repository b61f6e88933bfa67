package invoice

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{name: "nil", input: nil, wantOK: false},
		{name: "float", input: 12.5, want: 12.5, wantOK: true},
		{name: "int", input: 42, want: 42, wantOK: true},
		{name: "json number", input: json.Number("99.90"), want: 99.9, wantOK: true},
		{name: "NaN", input: math.NaN(), wantOK: false},
		{name: "infinity", input: math.Inf(1), wantOK: false},
		{name: "comma decimal with currency", input: "1 234,56 €", want: 1234.56, wantOK: true},
		{name: "dot decimal with code", input: "-12.50 EUR", want: -12.5, wantOK: true},
		{name: "french grouping", input: "1.234,56", want: 1234.56, wantOK: true},
		{name: "english grouping", input: "1,234.56", want: 1234.56, wantOK: true},
		{name: "minus after symbol", input: "€ -5", want: -5, wantOK: true},
		{name: "leading separator", input: ",5", want: 0.5, wantOK: true},
		{name: "trailing separator", input: "5,", want: 5, wantOK: true},
		{name: "text only", input: "n/a", wantOK: false},
		{name: "lone minus", input: "-", wantOK: false},
		{name: "empty string", input: "", wantOK: false},
		{name: "unsupported type", input: []string{"12"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParseAmount_Idempotent(t *testing.T) {
	inputs := []any{"1 234,56 €", "-0,99", "12", 3.14159, "7.303,08", 1e6, "0,01"}

	for _, input := range inputs {
		first, ok := ParseAmount(input)
		require.True(t, ok, "input %v", input)

		again, ok := ParseAmount(strconv.FormatFloat(first, 'f', -1, 64))
		require.True(t, ok)
		assert.InDelta(t, first, again, 1e-9, "input %v", input)
	}
}

func TestParseTaxRatePercent(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{name: "fraction", input: 0.2, want: 20, wantOK: true},
		{name: "percentage", input: 20, want: 20, wantOK: true},
		{name: "string percentage", input: "20%", want: 20, wantOK: true},
		{name: "comma fraction", input: "0,055", want: 5.5, wantOK: true},
		{name: "reduced rate", input: "5.5 %", want: 5.5, wantOK: true},
		{name: "one is a fraction", input: 1, want: 100, wantOK: true},
		{name: "zero", input: 0, want: 0, wantOK: true},
		{name: "fraction rounded", input: 0.19666, want: 19.67, wantOK: true},
		{name: "above 100", input: 150, wantOK: false},
		{name: "negative number", input: -5, wantOK: false},
		{name: "negative string", input: "-5", wantOK: false},
		{name: "negative standard rate", input: "-20", wantOK: false},
		{name: "negative fraction string", input: "-0,2", wantOK: false},
		{name: "minus after the digits", input: "20 -", wantOK: false},
		{name: "nil", input: nil, wantOK: false},
		{name: "garbage", input: "TVA", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTaxRatePercent(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestCheckTaxRatePercent(t *testing.T) {
	tests := []struct {
		name   string
		input  float64
		want   float64
		wantOK bool
	}{
		{name: "standard rate", input: 20, want: 20, wantOK: true},
		{name: "one percent stays one percent", input: 1, want: 1, wantOK: true},
		{name: "half a percent", input: 0.5, want: 0.5, wantOK: true},
		{name: "zero", input: 0, want: 0, wantOK: true},
		{name: "rounded", input: 5.555, want: 5.56, wantOK: true},
		{name: "negative", input: -20, wantOK: false},
		{name: "above 100", input: 100.01, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CheckTaxRatePercent(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.01},
		{2.675, 2.68},
		{-1.005, -1.01},
		{0.125, 0.13},
		{10, 10},
		{83.333333, 83.33},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestInputFromMap(t *testing.T) {
	fields := map[string]any{
		"Montant_HT":  "100,00",
		"TVA":         nil,
		"vat_amount":  "20",
		"net_a_payer": 120.0,
		"taux_tva":    0.2,
		"vendor":      "Boulangerie",
	}

	in := DefaultFieldMapping().InputFromMap(fields)

	assert.Equal(t, "100,00", in.PreTaxAmount)
	assert.Equal(t, "20", in.TaxAmount, "a null alias must not hide a later one")
	assert.Nil(t, in.TaxInclusiveTotal)
	assert.Equal(t, 120.0, in.AmountToPay)
	assert.Equal(t, 0.2, in.TaxRate)
}

func TestNormalize(t *testing.T) {
	got := Normalize(MonetaryInput{
		PreTaxAmount:      "100",
		TaxAmount:         "vingt",
		TaxInclusiveTotal: 120,
		TaxRate:           "0.2",
	})

	require.NotNil(t, got.PreTax)
	assert.Equal(t, 100.0, *got.PreTax)
	assert.Nil(t, got.Tax)
	require.NotNil(t, got.Total)
	assert.Equal(t, 120.0, *got.Total)
	assert.Nil(t, got.PayAmount)
	require.NotNil(t, got.TaxRatePercent)
	assert.Equal(t, 20.0, *got.TaxRatePercent)
}
