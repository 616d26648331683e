package numbering

import (
	"fmt"
	"strconv"
	"strings"
)

// Scheme identifies a document numbering scheme: a fixed prefix and the
// zero-padded width of the numeric suffix, e.g. {Prefix: "JS", Width: 5}
// produces JS00001, JS00002, ...
type Scheme struct {
	Prefix string
	Width  int
}

// Format renders a sequence value under this scheme.
func (s Scheme) Format(n int64) string {
	return fmt.Sprintf("%s%0*d", s.Prefix, s.Width, n)
}

// NextNumber computes the next document number for a scheme given every
// number already issued in the shared namespace.
//
// The namespace spans all document types (job sheets, estimates, invoices)
// that draw from one sequence, and it mixes two historical formats: prefixed
// numbers ("JS00042") and legacy bare-numeric numbers ("42") left over from
// imported data. Both interpretations share the same integer space, so the
// maximum is taken over the union; otherwise switching a legacy dataset to
// prefixed numbering could re-issue a number a legacy record already holds.
//
// Numbers that match neither format, and suffixes that fail to parse, are
// ignored. With no usable existing numbers the sequence starts at 1.
//
// Callers must re-run this at allocation time rather than caching the
// result: deleting the highest document must not let the sequence move
// backwards.
func NextNumber(scheme Scheme, existing []string) string {
	var max int64
	for _, raw := range existing {
		n, ok := SequenceValue(scheme.Prefix, raw)
		if ok && n > max {
			max = n
		}
	}
	return scheme.Format(max + 1)
}

// NextInNamespace computes the next number for scheme over a namespace
// shared by several schemes. Every number is interpreted under whichever of
// the given prefixes it carries (or as legacy bare-numeric), so a job sheet
// is never issued a sequence value an invoice already holds.
func NextInNamespace(scheme Scheme, prefixes []string, existing []string) string {
	var max int64
	for _, raw := range existing {
		for _, p := range prefixes {
			if n, ok := SequenceValue(p, raw); ok {
				if n > max {
					max = n
				}
				break
			}
		}
	}
	return scheme.Format(max + 1)
}

// SequenceValue extracts the integer a document number occupies in the
// namespace, accepting both the prefixed and the legacy bare-numeric form.
func SequenceValue(prefix, number string) (int64, bool) {
	suffix := number
	if prefix != "" && strings.HasPrefix(number, prefix) {
		suffix = number[len(prefix):]
	}
	if suffix == "" || !digitsOnly(suffix) {
		return 0, false
	}
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		// Suffix longer than an int64; treat as non-matching like any
		// other unparseable number.
		return 0, false
	}
	return n, true
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
