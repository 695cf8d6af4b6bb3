// Package phone normalizes phone numbers for the WhatsApp gateway.
package phone

import "strings"

// DefaultCountryCode replaces the trunk zero of ten digit local numbers.
const DefaultCountryCode = "94"

// Normalize keeps digits only and rewrites a local "0XXXXXXXXX" number to
// international form.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 && strings.HasPrefix(digits, "0") {
		digits = DefaultCountryCode + digits[1:]
	}
	return digits
}

// IsValid reports whether the number has between 10 and 15 digits.
func IsValid(number string) bool {
	n := 0
	for _, r := range number {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n >= 10 && n <= 15
}
