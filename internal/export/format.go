package export

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Format is an output shape of the export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatFEC  Format = "fec"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name in any case.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatFEC, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain"
	}
}

// FileName returns the download name of an export for a period.
func (f Format) FileName(period string) string {
	if period == "" {
		period = "toutes-periodes"
	}
	if f == FormatFEC {
		return fmt.Sprintf("FEC_%s.txt", strings.ReplaceAll(period, "-", ""))
	}
	return fmt.Sprintf("export-comptable_%s.%s", period, f)
}

// Write renders records in the given format.
func (g *Generator) Write(w io.Writer, format Format, records []Record) error {
	switch format {
	case FormatCSV:
		return g.WriteCSV(w, records)
	case FormatFEC:
		return g.WriteFEC(w, records)
	case FormatXLSX:
		return g.WriteXLSX(w, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ValidatePeriod checks a YYYY-MM period filter. The empty period is valid.
func ValidatePeriod(period string) error {
	if period == "" {
		return nil
	}
	if _, err := time.Parse("2006-01", period); err != nil || len(period) != len("2006-01") {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return nil
}
