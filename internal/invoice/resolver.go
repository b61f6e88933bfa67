package invoice

import (
	"factures/internal/logger"
	"github.com/rs/zerolog"
)

// StoredAmounts are the confirmed amounts of a stored invoice; nil means the
// field was never filled.
type StoredAmounts struct {
	PreTax         *float64
	Tax            *float64
	Total          *float64
	TaxRatePercent *float64
}

// ResolvedAmounts always carries a usable triple.
type ResolvedAmounts struct {
	PreTax         float64 `json:"pre_tax_amount"`
	Tax            float64 `json:"tax_amount"`
	Total          float64 `json:"total_amount"`
	TaxRatePercent float64 `json:"tax_rate_percent"`
	// Estimated is set when at least one amount was inferred or corrected.
	Estimated bool `json:"estimated"`
	// Coherent is the final pre-tax + tax = total check.
	Coherent bool `json:"coherent"`
}

// ResolverConfig holds the policy values of the export path.
type ResolverConfig struct {
	DefaultTaxRatePercent float64
	Tolerance             Tolerance
}

// DefaultResolverConfig returns the French-market defaults with the flat
// export tolerance.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		DefaultTaxRatePercent: DefaultTaxRatePercent,
		Tolerance:             ExportTolerance(),
	}
}

// BestEffortResolver produces export amounts for any stored record. Unlike
// Reconciler it never rejects: missing amounts are inferred and an incoherent
// triple is repaired by recomputing the tax as total - pre-tax.
type BestEffortResolver struct {
	config ResolverConfig
	log    zerolog.Logger
}

// NewBestEffortResolver creates a resolver. A nil tolerance falls back to
// ExportTolerance.
func NewBestEffortResolver(config ResolverConfig) *BestEffortResolver {
	if config.Tolerance == nil {
		config.Tolerance = ExportTolerance()
	}
	return &BestEffortResolver{
		config: config,
		log:    logger.WithComponent("best-effort-resolver"),
	}
}

// Resolve returns a complete triple for the stored amounts.
func (r *BestEffortResolver) Resolve(in StoredAmounts) ResolvedAmounts {
	var detectedRate *float64
	if in.TaxRatePercent != nil && *in.TaxRatePercent >= 0 && *in.TaxRatePercent <= 100 {
		detectedRate = in.TaxRatePercent
	}
	rate := r.config.DefaultTaxRatePercent
	if detectedRate != nil {
		rate = *detectedRate
	}

	// knownRate is the rate the amounts were built from, if any.
	knownRate := detectedRate

	var out ResolvedAmounts
	switch presenceOf(in.PreTax, in.Tax, in.Total) {
	case 0:
		out = ResolvedAmounts{Estimated: true, Coherent: true}
		if detectedRate != nil {
			out.TaxRatePercent = clampRate(*detectedRate)
		}
		return out

	case presentAll:
		out = ResolvedAmounts{PreTax: *in.PreTax, Tax: *in.Tax, Total: *in.Total}

	case presentPreTaxTax:
		out = ResolvedAmounts{PreTax: *in.PreTax, Tax: *in.Tax, Total: *in.PreTax + *in.Tax}

	case presentTaxTotal:
		out = ResolvedAmounts{PreTax: *in.Total - *in.Tax, Tax: *in.Tax, Total: *in.Total}

	case hasPreTax | hasTotal:
		out = ResolvedAmounts{PreTax: *in.PreTax, Tax: *in.Total - *in.PreTax, Total: *in.Total}

	case presentPreTaxOnly:
		knownRate = &rate
		tax := Round2(*in.PreTax * rate / 100)
		out = ResolvedAmounts{
			PreTax:    *in.PreTax,
			Tax:       tax,
			Total:     *in.PreTax + tax,
			Estimated: detectedRate == nil,
		}

	case presentTotalOnly:
		knownRate = &rate
		preTax := Round2(*in.Total / (1 + rate/100))
		out = ResolvedAmounts{
			PreTax:    preTax,
			Tax:       *in.Total - preTax,
			Total:     *in.Total,
			Estimated: true,
		}

	case hasTax:
		knownRate = &rate
		var preTax float64
		if rate > 0 {
			preTax = Round2(*in.Tax / (rate / 100))
		}
		out = ResolvedAmounts{
			PreTax:    preTax,
			Tax:       *in.Tax,
			Total:     preTax + *in.Tax,
			Estimated: true,
		}
	}

	out.PreTax = Round2(out.PreTax)
	out.Tax = Round2(out.Tax)
	out.Total = Round2(out.Total)

	if !IsCoherent(out.PreTax, out.Tax, out.Total, r.config.Tolerance(out.Total)) {
		r.log.Debug().
			Float64("pre_tax", out.PreTax).
			Float64("tax", out.Tax).
			Float64("total", out.Total).
			Msg("Incoherent amounts, recomputing tax from total")
		out.Tax = Round2(out.Total - out.PreTax)
		out.Estimated = true
	}
	out.Coherent = IsCoherent(out.PreTax, out.Tax, out.Total, r.config.Tolerance(out.Total))

	switch {
	case knownRate != nil:
		out.TaxRatePercent = *knownRate
	case out.PreTax > 0:
		out.TaxRatePercent = Round2(out.Tax / out.PreTax * 100)
	default:
		out.TaxRatePercent = 0
	}
	out.TaxRatePercent = clampRate(out.TaxRatePercent)

	return out
}

func clampRate(rate float64) float64 {
	switch {
	case rate < 0:
		return 0
	case rate > 100:
		return 100
	default:
		return rate
	}
}
