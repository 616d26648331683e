package registration

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a vehicle registration for equality comparison.
// Historical imports store the same plate as "LN64 XFG", "ln64xfg" or
// "LN64  XFG"; comparisons must happen on one canonical form.
// Uppercases and removes all whitespace. Total and idempotent.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Valid reports whether a normalized registration is plausible enough to
// store or query. It is deliberately loose: legacy data includes trade
// plates and non-UK formats, so this only rejects empty or oversized input.
func Valid(normalized string) bool {
	if normalized == "" || len(normalized) > 14 {
		return false
	}
	for _, r := range normalized {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
