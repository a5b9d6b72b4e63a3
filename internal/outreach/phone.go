package outreach

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const countryPrefix = "62"

// NormalizePhone converts free-form Indonesian phone input into the digits-only
// form accepted by wa.me. It never fails; empty input yields the bare prefix.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + len(countryPrefix))
	for i := 0; i < len(raw); i++ {
		if ch := raw[i]; ch >= '0' && ch <= '9' {
			b.WriteByte(ch)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, "0") {
		digits = countryPrefix + digits[1:]
	}
	if !strings.HasPrefix(digits, countryPrefix) {
		digits = countryPrefix + digits
	}
	return digits
}

// PhoneLooksDialable reports whether a canonical number parses as a valid
// Indonesian number. Numbers that fail still get a link; callers surface a warning.
func PhoneLooksDialable(canonical string) bool {
	if canonical == "" {
		return false
	}
	num, err := phonenumbers.Parse("+"+canonical, "ID")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}
