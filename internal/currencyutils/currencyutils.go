// Package currencyutils provides lenient parsing of monetary amounts as they
// come out of AI extraction, plus currency-convention lookups used by the
// date resolver.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var symbolPattern = regexp.MustCompile(`[€$£¥₣₤₧₹₺₽₩฿₫₲₴₸₼₪\s]|CHF|EUR|USD|GBP`)

// ParseAmount parses a string representation of an amount into a decimal.
// It tolerates currency symbols and codes, thousand separators, and the
// European decimal comma. An empty string parses to zero.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	if amountStr == "" {
		return decimal.Zero, nil
	}

	standardized := StandardizeAmount(amountStr)

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// StandardizeAmount converts common currency string formats into a form that
// decimal.NewFromString accepts: "CHF 1'234.56", "€1.234,56", "$1,234.56",
// "1 234,56" all become plain decimals.
func StandardizeAmount(amountStr string) string {
	amountStr = symbolPattern.ReplaceAllString(amountStr, "")

	if strings.Contains(amountStr, ",") && strings.Contains(amountStr, ".") {
		if strings.LastIndex(amountStr, ".") < strings.LastIndex(amountStr, ",") {
			// European format (1.234,56)
			amountStr = strings.ReplaceAll(amountStr, ".", "")
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			// US format (1,234.56)
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	} else if strings.Contains(amountStr, ",") {
		parts := strings.Split(amountStr, ",")
		if len(parts) > 1 && len(parts[len(parts)-1]) <= 2 {
			// Comma used as decimal separator (1234,56)
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			// Comma used as thousand separator (1,234)
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	}

	// Apostrophes used as thousand separators (1'234.56)
	amountStr = strings.ReplaceAll(amountStr, "'", "")

	return amountStr
}

// FormatAmount formats a decimal amount with two decimal places and the
// currency code, e.g. "1234.56 EUR".
func FormatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}

// monthFirstCurrencies lists currencies whose issuing region conventionally
// writes dates month-first.
var monthFirstCurrencies = map[string]bool{
	"USD": true,
}

// MonthFirstConvention reports whether the issuing region of the given
// currency conventionally writes dates month-first. Used to bias day/month
// order when an extracted date is ambiguous.
func MonthFirstConvention(currency string) bool {
	return monthFirstCurrencies[strings.ToUpper(strings.TrimSpace(currency))]
}
