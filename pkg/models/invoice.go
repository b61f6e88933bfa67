package models

import "time"

// Invoice is the stored invoice record. Once the user has confirmed or edited
// its amounts it is the source of truth for every export.
type Invoice struct {
	// Core identifiers
	ID            string `json:"id"`             // Unique invoice identifier
	InvoiceNumber string `json:"invoice_number"` // Number printed on the document, may be empty

	// Descriptive fields, as typed or confirmed by the user
	Vendor      string `json:"vendor"`
	Description string `json:"description"`
	Category    string `json:"category"`

	// InvoiceDate is kept as the raw string the user or extraction produced.
	// Exports parse it leniently and fall back to CreatedAt.
	InvoiceDate string `json:"invoice_date"`

	// Amounts, nil when unknown
	PreTaxAmount   *float64 `json:"pre_tax_amount"`   // HT
	TaxAmount      *float64 `json:"tax_amount"`       // TVA
	TotalAmount    *float64 `json:"total_amount"`     // TTC
	TaxRatePercent *float64 `json:"tax_rate_percent"` // 0-100

	// Verification outcome of the last reconciliation
	VerificationStatus string `json:"verification_status"`
	Reason             string `json:"reason"`

	CreatedAt time.Time `json:"created_at"` // Record creation timestamp
	UpdatedAt time.Time `json:"updated_at"` // Last update timestamp
}

// Float returns a pointer to v, for filling the optional amount fields.
func Float(v float64) *float64 {
	return &v
}
