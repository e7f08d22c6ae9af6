package dispatch

import "strings"

// NormalizeDestination reduces a stored contact phone to its national
// significant digits (last 10) and prefixes the resolved country code.
// Stored numbers arrive in every shape — bare digits, formatted,
// already-prefixed — and this collapses them all to one dialable form.
func NormalizeDestination(phone, countryCode string) string {
	digits := digitsOnly(phone)
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	if digits == "" {
		return ""
	}

	code := countryCode
	if code == "" {
		code = "+1"
	}
	if !strings.HasPrefix(code, "+") {
		code = "+" + code
	}
	return code + digits
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
