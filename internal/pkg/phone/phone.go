// Package phone normalizes contact numbers to a canonical 10-digit form so
// that requests and donors can be matched regardless of how the number was
// typed ("+91 94283 54534", "0091...", "94283-54534" all compare equal).
package phone

import (
	"regexp"
	"strings"
)

var validMobile = regexp.MustCompile(`^[6-9]\d{9}$`)

// Normalize strips every non-digit character, drops a leading "91" country
// code when the result is longer than 10 digits, and keeps the last 10 digits
// otherwise. It is pure and total: no input fails, malformed input degrades
// to a best-effort digit string. Empty input yields "".
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	normalized := b.String()

	if strings.HasPrefix(normalized, "91") && len(normalized) > 10 {
		normalized = normalized[2:]
	}

	// Handles forms like "00919428354534" where stripping one country code
	// is not enough.
	if len(normalized) > 10 {
		normalized = normalized[len(normalized)-10:]
	}

	return normalized
}

// IsValid reports whether the normalized form is a plausible Indian mobile
// number. Callers treat anything shorter than 10 digits as unmatchable, not
// as an error.
func IsValid(raw string) bool {
	return validMobile.MatchString(Normalize(raw))
}

// FormatForDisplay renders a normalized number as "XXXXX XXXXX".
func FormatForDisplay(raw string) string {
	normalized := Normalize(raw)
	if len(normalized) == 10 {
		return normalized[:5] + " " + normalized[5:]
	}
	return normalized
}
