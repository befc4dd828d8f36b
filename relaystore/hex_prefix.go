package relaystore

import (
	"fmt"
	"strings"
)

// HexPrefix is the decoded form of one hex identifier criterion.
//
// An even-length hex string decodes to a whole number of bytes and matches an
// identifier's byte prefix of the same length exactly. An odd-length hex
// string leaves the low nibble of its last byte open, so it matches via an
// inclusive byte range: the criterion with a trailing '0' nibble up to the
// criterion with a trailing 'f' nibble, compared against the equal-length
// byte prefix.
//
// Callers must pick the predicate shape from IsExact: equality for the exact
// form, an inclusive BETWEEN for the range form.
type HexPrefix struct {
	exact   string
	lower   string
	upper   string
	byteLen int
}

// BuildHexPrefix is a factory method for HexPrefix.
//
// The value must contain only hex digits and be at least one digit long;
// anything else fails with ErrMalformedHexValue. Uppercase input is normalized
// to lowercase.
func BuildHexPrefix(value string) (HexPrefix, error) {
	normalized := strings.ToLower(value)

	if !isHexDigits(normalized) {
		return HexPrefix{}, fmt.Errorf("%w: %q", ErrMalformedHexValue, value)
	}

	if len(normalized)%2 == 0 {
		return HexPrefix{
			exact:   normalized,
			byteLen: len(normalized) / 2,
		}, nil
	}

	return HexPrefix{
		lower:   normalized + "0",
		upper:   normalized + "f",
		byteLen: (len(normalized) + 1) / 2,
	}, nil
}

// IsExact reports whether the criterion matches a byte prefix exactly; when
// false the criterion matches via the inclusive range returned by BoundsHex.
func (p HexPrefix) IsExact() bool {
	return p.exact != ""
}

// ExactHex returns the even-length hex form for an exact-match criterion.
func (p HexPrefix) ExactHex() string {
	return p.exact
}

// BoundsHex returns the inclusive lower and upper bounds of a range-match
// criterion, both byte-aligned even-length hex.
func (p HexPrefix) BoundsHex() (string, string) {
	return p.lower, p.upper
}

// ByteLen returns the length in bytes of the identifier prefix this criterion
// compares against (the input's rounded-up byte count).
func (p HexPrefix) ByteLen() int {
	return p.byteLen
}

func isHexDigits(s string) bool {
	if len(s) == 0 {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}
