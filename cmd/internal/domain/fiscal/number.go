package fiscal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DecodeBR parses Brazilian formatted numbers ("1.234,56").
// A nil or unparseable value decodes to zero; a single bad line item
// must not sink the whole document.
func DecodeBR(s *string) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}

	clean := strings.TrimSpace(*s)
	clean = strings.TrimPrefix(clean, "R$")
	clean = strings.TrimSpace(clean)
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.Replace(clean, ",", ".", 1)

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecodePlain parses dot-decimal values ("10.5000"). Values carrying a
// comma are handed to DecodeBR instead.
func DecodePlain(s *string) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}

	clean := strings.TrimSpace(*s)
	if strings.Contains(clean, ",") {
		return DecodeBR(&clean)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	return d
}
