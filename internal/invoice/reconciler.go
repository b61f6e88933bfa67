package invoice

import (
	"fmt"

	"factures/internal/logger"
	"github.com/rs/zerolog"
)

// VerificationStatus tells the user how far the reconciled amounts can be trusted.
type VerificationStatus string

const (
	// StatusVerified means the amounts were coherent as extracted, or were
	// derived from each other without assumption.
	StatusVerified VerificationStatus = "verified"
	// StatusToVerify means an assumption was made or an inconsistency found.
	StatusToVerify VerificationStatus = "to_verify"
	// StatusIncomplete means there was not enough data for a full triple.
	StatusIncomplete VerificationStatus = "incomplete"
)

// DefaultTaxRatePercent is the French standard VAT rate, used when a rate has
// to be assumed.
const DefaultTaxRatePercent = 20.0

// Reasons shown to the user next to the status.
const (
	ReasonConsistent       = "amounts consistent"
	ReasonInconsistent     = "inconsistency detected, needs review"
	ReasonTotalDerived     = "total derived from pre-tax amount plus tax"
	ReasonPreTaxDerived    = "pre-tax amount derived from total minus tax"
	ReasonNegativePreTax   = "derived pre-tax amount is negative, needs review"
	ReasonTotalOnlyNoRate  = "only the total was found, tax rate could not be inferred"
	ReasonFieldsNotFound   = "some fields could not be found on the document"
	reasonDetectedRateFmt  = "tax and total derived from detected tax rate of %s%%"
	reasonDefaultRateFmt   = "default tax rate of %s%% assumed, must be checked"
	reasonTotalWithRateFmt = "only the total was found, pre-tax and tax derived from detected tax rate of %s%%, needs review"
)

// ReconciledAmounts is the outcome of the interactive reconciliation.
type ReconciledAmounts struct {
	PreTaxAmount       *float64           `json:"pre_tax_amount"`
	TaxAmount          *float64           `json:"tax_amount"`
	TotalAmount        *float64           `json:"total_amount"`
	TaxRatePercent     *float64           `json:"tax_rate_percent"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	Reason             string             `json:"reason"`
}

// ReconcilerConfig holds the policy values of the interactive path.
type ReconcilerConfig struct {
	// DefaultTaxRatePercent is assumed when a pre-tax amount comes alone.
	DefaultTaxRatePercent float64
	// Tolerance decides whether three extracted amounts agree.
	Tolerance Tolerance
}

// DefaultReconcilerConfig returns the French-market defaults.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		DefaultTaxRatePercent: DefaultTaxRatePercent,
		Tolerance:             InteractiveTolerance(),
	}
}

// Reconciler turns partial extracted amounts into a consistent triple with an
// honest verification status. It never rewrites an amount that was extracted.
type Reconciler struct {
	config ReconcilerConfig
	log    zerolog.Logger
}

// NewReconciler creates a reconciler. A nil tolerance falls back to
// InteractiveTolerance.
func NewReconciler(config ReconcilerConfig) *Reconciler {
	if config.Tolerance == nil {
		config.Tolerance = InteractiveTolerance()
	}
	return &Reconciler{
		config: config,
		log:    logger.WithComponent("amount-reconciler"),
	}
}

// presence records which of pre-tax, tax and total are known.
type presence uint8

const (
	hasPreTax presence = 1 << iota
	hasTax
	hasTotal
)

const (
	presentAll        = hasPreTax | hasTax | hasTotal
	presentPreTaxTax  = hasPreTax | hasTax
	presentTaxTotal   = hasTax | hasTotal
	presentPreTaxOnly = hasPreTax
	presentTotalOnly  = hasTotal
)

func presenceOf(preTax, tax, total *float64) presence {
	var p presence
	if preTax != nil {
		p |= hasPreTax
	}
	if tax != nil {
		p |= hasTax
	}
	if total != nil {
		p |= hasTotal
	}
	return p
}

// Reconcile normalizes raw extracted values and reconciles them.
func (r *Reconciler) Reconcile(in MonetaryInput) ReconciledAmounts {
	return r.ReconcileNormalized(Normalize(in))
}

// ReconcileNormalized applies the decision ladder to parsed values. Cases are
// tried in priority order and the first match wins.
func (r *Reconciler) ReconcileNormalized(in NormalizedInput) ReconciledAmounts {
	total := in.Total
	if total == nil && in.PayAmount != nil {
		total = in.PayAmount
	}
	preTax := rounded(in.PreTax)
	tax := rounded(in.Tax)
	total = rounded(total)
	detectedRate := rounded(in.TaxRatePercent)

	var out ReconciledAmounts
	p := presenceOf(preTax, tax, total)

	switch p {
	case presentAll:
		out = r.reconcileAll(*preTax, *tax, *total)

	case presentPreTaxTax:
		out = ReconciledAmounts{
			PreTaxAmount:       preTax,
			TaxAmount:          tax,
			TotalAmount:        ptr(Round2(*preTax + *tax)),
			VerificationStatus: StatusVerified,
			Reason:             ReasonTotalDerived,
		}

	case presentTaxTotal:
		derived := Round2(*total - *tax)
		out = ReconciledAmounts{
			PreTaxAmount:       ptr(derived),
			TaxAmount:          tax,
			TotalAmount:        total,
			VerificationStatus: StatusVerified,
			Reason:             ReasonPreTaxDerived,
		}
		if derived < 0 {
			out.VerificationStatus = StatusToVerify
			out.Reason = ReasonNegativePreTax
		}

	case presentPreTaxOnly:
		out = r.reconcilePreTaxOnly(*preTax, detectedRate)

	case presentTotalOnly:
		out = r.reconcileTotalOnly(*total, detectedRate)

	default:
		out = ReconciledAmounts{
			PreTaxAmount:       preTax,
			TaxAmount:          tax,
			TotalAmount:        total,
			VerificationStatus: StatusIncomplete,
			Reason:             ReasonFieldsNotFound,
		}
	}

	if out.TaxRatePercent == nil {
		out.TaxRatePercent = reportedRate(detectedRate, out.PreTaxAmount, out.TaxAmount)
	}

	r.log.Debug().
		Uint8("presence", uint8(p)).
		Str("status", string(out.VerificationStatus)).
		Str("reason", out.Reason).
		Msg("Amounts reconciled")

	return out
}

func (r *Reconciler) reconcileAll(preTax, tax, total float64) ReconciledAmounts {
	out := ReconciledAmounts{
		PreTaxAmount:       ptr(preTax),
		TaxAmount:          ptr(tax),
		TotalAmount:        ptr(total),
		VerificationStatus: StatusVerified,
		Reason:             ReasonConsistent,
	}
	tolerance := r.config.Tolerance(total)
	if !IsCoherent(preTax, tax, total, tolerance) {
		out.VerificationStatus = StatusToVerify
		out.Reason = ReasonInconsistent
		r.log.Debug().
			Float64("pre_tax", preTax).
			Float64("tax", tax).
			Float64("total", total).
			Float64("tolerance", tolerance).
			Msg("Extracted amounts do not add up")
	}
	return out
}

func (r *Reconciler) reconcilePreTaxOnly(preTax float64, detectedRate *float64) ReconciledAmounts {
	rate := r.config.DefaultTaxRatePercent
	if detectedRate != nil {
		rate = *detectedRate
	}
	tax := Round2(preTax * rate / 100)
	out := ReconciledAmounts{
		PreTaxAmount:       ptr(preTax),
		TaxAmount:          ptr(tax),
		TotalAmount:        ptr(Round2(preTax + tax)),
		TaxRatePercent:     ptr(rate),
		VerificationStatus: StatusVerified,
		Reason:             fmt.Sprintf(reasonDetectedRateFmt, formatRate(rate)),
	}
	if detectedRate == nil {
		out.VerificationStatus = StatusToVerify
		out.Reason = fmt.Sprintf(reasonDefaultRateFmt, formatRate(rate))
	}
	return out
}

func (r *Reconciler) reconcileTotalOnly(total float64, detectedRate *float64) ReconciledAmounts {
	if detectedRate == nil {
		return ReconciledAmounts{
			TotalAmount:        ptr(total),
			VerificationStatus: StatusIncomplete,
			Reason:             ReasonTotalOnlyNoRate,
		}
	}
	preTax := Round2(total / (1 + *detectedRate/100))
	return ReconciledAmounts{
		PreTaxAmount:       ptr(preTax),
		TaxAmount:          ptr(Round2(total - preTax)),
		TotalAmount:        ptr(total),
		TaxRatePercent:     ptr(*detectedRate),
		VerificationStatus: StatusToVerify,
		Reason:             fmt.Sprintf(reasonTotalWithRateFmt, formatRate(*detectedRate)),
	}
}

// reportedRate is the detected rate, or the rate implied by the amounts when
// it is a plausible percentage.
func reportedRate(detected, preTax, tax *float64) *float64 {
	if detected != nil {
		return detected
	}
	if preTax == nil || tax == nil || *preTax <= 0 {
		return nil
	}
	implied := Round2(*tax / *preTax * 100)
	if implied < 0 || implied > 100 {
		return nil
	}
	return &implied
}

func formatRate(rate float64) string {
	return decimalString(rate)
}

func rounded(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(Round2(*v))
}

func ptr(v float64) *float64 {
	return &v
}
