package models

import "regexp"

// Security identifiers extracted by the AI are at most weakly validated:
// a malformed identifier downgrades the field, but never rejects the record.

var (
	isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)
	wknPattern  = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

// IsPlausibleISIN reports whether s has the shape of an ISIN: two letters of
// country code, nine alphanumerics, and a check digit.
func IsPlausibleISIN(s string) bool {
	return isinPattern.MatchString(s)
}

// IsPlausibleWKN reports whether s has the shape of a WKN, the 6-character
// German securities code.
func IsPlausibleWKN(s string) bool {
	return wknPattern.MatchString(s)
}

// SecurityLabel returns the best display label for the record's security:
// name first, then ISIN, WKN, and ticker.
func (t ExtractedTransaction) SecurityLabel() string {
	switch {
	case t.SecurityName != "":
		return t.SecurityName
	case t.ISIN != "":
		return t.ISIN
	case t.WKN != "":
		return t.WKN
	case t.Ticker != "":
		return t.Ticker
	}
	return ""
}
