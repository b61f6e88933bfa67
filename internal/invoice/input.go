package invoice

import "strings"

// MonetaryInput is the raw monetary part of one extraction result. Each field
// is nil, a number or a loosely formatted string, exactly as the model
// returned it.
type MonetaryInput struct {
	PreTaxAmount      any `json:"pre_tax_amount"`
	TaxAmount         any `json:"tax_amount"`
	TaxInclusiveTotal any `json:"tax_inclusive_total"`
	AmountToPay       any `json:"amount_to_pay"` // "net à payer", alias of the total
	TaxRate           any `json:"tax_rate"`      // fraction or percentage
}

// NormalizedInput holds the parsed quantities; nil means absent.
type NormalizedInput struct {
	PreTax         *float64
	Tax            *float64
	Total          *float64
	PayAmount      *float64
	TaxRatePercent *float64
}

// Normalize runs every field of in through the amount parsers.
func Normalize(in MonetaryInput) NormalizedInput {
	return NormalizedInput{
		PreTax:         optional(ParseAmount(in.PreTaxAmount)),
		Tax:            optional(ParseAmount(in.TaxAmount)),
		Total:          optional(ParseAmount(in.TaxInclusiveTotal)),
		PayAmount:      optional(ParseAmount(in.AmountToPay)),
		TaxRatePercent: optional(ParseTaxRatePercent(in.TaxRate)),
	}
}

// FieldMapping lists, for each quantity, the keys an extraction result may
// use for it. The first key present with a non-null value wins.
type FieldMapping struct {
	PreTax      []string
	Tax         []string
	Total       []string
	AmountToPay []string
	TaxRate     []string
}

// DefaultFieldMapping covers the French and English spellings our extraction
// prompts have produced so far.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		PreTax:      []string{"pre_tax_amount", "montant_ht", "amount_ht", "ht", "net_amount", "subtotal"},
		Tax:         []string{"tax_amount", "montant_tva", "amount_tva", "tva", "vat_amount", "vat"},
		Total:       []string{"tax_inclusive_total", "montant_ttc", "amount_ttc", "ttc", "total_amount", "gross_amount", "total"},
		AmountToPay: []string{"amount_to_pay", "net_a_payer", "net_à_payer", "montant_a_payer", "amount_due"},
		TaxRate:     []string{"tax_rate", "taux_tva", "tva_rate", "vat_rate", "tax_rate_percent"},
	}
}

// InputFromMap builds a MonetaryInput from a decoded JSON object. Keys are
// matched case-insensitively.
func (m FieldMapping) InputFromMap(fields map[string]any) MonetaryInput {
	lowered := make(map[string]any, len(fields))
	for k, v := range fields {
		lowered[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return MonetaryInput{
		PreTaxAmount:      lookup(lowered, m.PreTax),
		TaxAmount:         lookup(lowered, m.Tax),
		TaxInclusiveTotal: lookup(lowered, m.Total),
		AmountToPay:       lookup(lowered, m.AmountToPay),
		TaxRate:           lookup(lowered, m.TaxRate),
	}
}

func lookup(fields map[string]any, keys []string) any {
	for _, key := range keys {
		if v, ok := fields[strings.ToLower(key)]; ok && v != nil {
			return v
		}
	}
	return nil
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
