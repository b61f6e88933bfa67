package invoice

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts an extracted monetary value into a float.
//
// Accepted inputs are nil, any Go number, json.Number and loosely formatted
// strings such as "1 234,56 €" or "-12.50 EUR". Everything that is not a
// digit, a separator or a leading minus sign is dropped. A lone separator is
// the decimal point; when several are present the last one is the decimal
// point and the others are grouping. The second return value is false when
// nothing usable was found.
func ParseAmount(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		return ParseAmount(v.String())
	case string:
		return parseAmountString(v, true)
	default:
		return 0, false
	}
}

// ParseTaxRatePercent converts an extracted tax rate into a percentage.
//
// Models return rates either as a fraction (0.2) or as a percentage (20), so
// a value in (0, 1] is read as a fraction and multiplied by 100, a value in
// [0, 100] is taken as a percentage, and anything else, including negative
// rates, is rejected.
func ParseTaxRatePercent(value any) (float64, bool) {
	var r float64
	var ok bool
	if s, isString := value.(string); isString {
		if strings.Contains(s, "-") {
			return 0, false
		}
		r, ok = parseAmountString(s, false)
	} else {
		r, ok = ParseAmount(value)
	}
	if !ok {
		return 0, false
	}

	switch {
	case r > 0 && r <= 1:
		return Round2(r * 100), true
	case r >= 0 && r <= 100:
		return Round2(r), true
	default:
		return 0, false
	}
}

// CheckTaxRatePercent validates a rate that is already a percentage, such as
// a stored or user-confirmed rate. Unlike ParseTaxRatePercent it never reads
// a value in (0, 1] as a fraction.
func CheckTaxRatePercent(r float64) (float64, bool) {
	if math.IsNaN(r) || r < 0 || r > 100 {
		return 0, false
	}
	return Round2(r), true
}

// Round2 rounds n to two decimal places, half away from zero.
func Round2(n float64) float64 {
	return decimal.NewFromFloat(n).Round(2).InexactFloat64()
}

func parseAmountString(s string, allowMinus bool) (float64, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && allowMinus && b.Len() == 0:
			b.WriteRune(r)
		}
	}

	cleaned := normalizeSeparators(b.String())
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

// normalizeSeparators rewrites the decimal separator to a dot and drops
// grouping separators.
func normalizeSeparators(s string) string {
	last := strings.LastIndexAny(s, ".,")
	if last < 0 {
		return s
	}
	intPart := strings.NewReplacer(".", "", ",", "").Replace(s[:last])
	fracPart := s[last+1:]
	if intPart == "" || intPart == "-" {
		intPart += "0"
	}
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

// decimalString prints v without trailing zeros, e.g. 20 or 5.5.
func decimalString(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
