package schema

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

	// Accepted date shapes: ISO, slash, dash, and long-form ("January 2, 2025").
	reDateISO   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDateSlash = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	reDateDash  = regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`)
	reDateLong  = regexp.MustCompile(`^(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}$`)

	// Optional leading/trailing currency symbol, numeric amount, optional
	// thousands separators, optional two-decimal cents.
	reCurrency = regexp.MustCompile(`^[$€£¥]?\s?\d{1,3}(,\d{3})*(\.\d{2})?\s?[$€£¥]?$|^[$€£¥]?\s?\d+(\.\d{2})?\s?[$€£¥]?$`)
)

// MatchesKind reports whether value satisfies the format rule implied by kind.
// On a mismatch the second return value names the nature of the violation.
func MatchesKind(kind FieldKind, value string) (bool, string) {
	switch kind {
	case Email:
		if !reEmail.MatchString(value) {
			return false, "invalid email format"
		}
	case Date:
		if !reDateISO.MatchString(value) && !reDateSlash.MatchString(value) &&
			!reDateDash.MatchString(value) && !reDateLong.MatchString(value) {
			return false, "unrecognized date format"
		}
	case CurrencyAmount:
		if !reCurrency.MatchString(value) {
			return false, "invalid currency amount format"
		}
	case IdentifierNumber:
		if n := utf8.RuneCountInString(value); n < 2 || n > 50 {
			return false, fmt.Sprintf("identifier length %d outside 2-50", n)
		}
	case FreeText:
		if n := utf8.RuneCountInString(value); n < 2 || n > 200 {
			return false, fmt.Sprintf("text length %d outside 2-200", n)
		}
	}
	return true, ""
}
