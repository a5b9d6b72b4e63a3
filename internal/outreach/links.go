package outreach

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// WhatsAppLink builds a wa.me deep link carrying a prefilled message.
func WhatsAppLink(canonicalPhone, message string) string {
	return "https://wa.me/" + canonicalPhone + "?text=" + encodeComponent(message)
}

// MailtoLink builds a mailto link with subject and body. Internationalised
// domains are converted to their ASCII form.
func MailtoLink(email, subject, body string) (string, error) {
	address, err := asciiAddress(strings.TrimSpace(email))
	if err != nil {
		return "", err
	}
	return "mailto:" + address + "?subject=" + encodeComponent(subject) + "&body=" + encodeComponent(body), nil
}

func asciiAddress(email string) (string, error) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", fmt.Errorf("invalid email address %q", email)
	}
	domain, err := idna.Lookup.ToASCII(email[at+1:])
	if err != nil {
		return "", fmt.Errorf("invalid email domain: %w", err)
	}
	return email[:at+1] + domain, nil
}

const upperhex = "0123456789ABCDEF"

// encodeComponent percent-encodes s the way browsers encode a URI component:
// only ASCII letters, digits and -_.!~*'() stay literal.
func encodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isUnreserved(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[ch>>4])
		b.WriteByte(upperhex[ch&0x0F])
	}
	return b.String()
}

func isUnreserved(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	switch ch {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
