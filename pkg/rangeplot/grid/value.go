package grid

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

// errorCodes are the error values a spreadsheet cell can display.
var errorCodes = map[string]bool{
	"#NULL!":        true,
	"#DIV/0!":       true,
	"#VALUE!":       true,
	"#REF!":         true,
	"#NAME?":        true,
	"#NUM!":         true,
	"#N/A":          true,
	"#GETTING_DATA": true,
	"#SPILL!":       true,
	"#CALC!":        true,
}

// parseValue classifies an untyped cell string.
// Integers become CellInt, decimals CellFloat, error codes CellError and
// everything else CellText.
func parseValue(s string) models.CellValue {
	if s == "" {
		return models.Empty()
	}
	// Try integer first
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return models.Int(i)
	}
	if f, ok := ParseFloat(s); ok {
		return models.Float(f)
	}
	if errorCodes[s] {
		return models.Error(s)
	}
	return models.Text(s)
}

// ParseFloat parses s as a decimal floating-point literal: an optional
// sign, digits with an optional fraction and exponent, or inf, infinity
// and nan in any case. Hexadecimal mantissas and underscore separators
// are rejected. Magnitudes beyond float64 become ±Inf (or 0 on
// underflow) instead of failing.
func ParseFloat(s string) (float64, bool) {
	if strings.ContainsRune(s, '_') {
		return 0, false
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "+"), "-")
	if len(digits) < len(s)-1 {
		return 0, false
	}
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}
