package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrIncoherentBatch is returned by the gate when at least one invoice of
	// the batch fails the coherence check. No output may be written.
	ErrIncoherentBatch = errors.New("batch contains incoherent invoices")

	// ErrUnknownFormat is returned for an export format other than csv, fec or xlsx.
	ErrUnknownFormat = errors.New("unknown export format")

	// ErrInvalidPeriod is returned for a period filter that is not YYYY-MM.
	ErrInvalidPeriod = errors.New("invalid period, expected YYYY-MM")

	// ErrUnknownEncoding is returned when the FEC encoding is not supported.
	ErrUnknownEncoding = errors.New("unknown FEC encoding")
)

// Offender is one invoice refused by the gate.
type Offender struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Vendor        string          `json:"vendor,omitempty"`
	Delta         decimal.Decimal `json:"delta"`
}

// GateError lists the invoices that blocked an export.
type GateError struct {
	// Op is the operation that refused the batch (e.g. "Gate.Check").
	Op string

	// Err is the underlying error, ErrIncoherentBatch for a refused batch.
	Err error

	// Offenders are the incoherent invoices in input order.
	Offenders []Offender
}

// Error implements the error interface.
func (e *GateError) Error() string {
	parts := make([]string, 0, len(e.Offenders))
	for _, o := range e.Offenders {
		name := o.ID
		if o.InvoiceNumber != "" {
			name = o.InvoiceNumber
		}
		parts = append(parts, fmt.Sprintf("%s (off by %s)", name, o.Delta.StringFixed(2)))
	}
	return fmt.Sprintf("export: %s failed: %v: %s", e.Op, e.Err, strings.Join(parts, ", "))
}

// Unwrap returns the underlying error for error unwrapping.
func (e *GateError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *GateError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
