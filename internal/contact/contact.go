// Package contact turns free-form contact input into the canonical keys used
// for identity matching.
package contact

import (
	"errors"
	"regexp"
	"strings"
)

const countryPrefix = "+234"

var (
	ErrInvalidPhoneFormat = errors.New("invalid phone format")

	canonicalPhone = regexp.MustCompile(`^\+234\d{10}$`)
)

// NormalizePhone returns the +234XXXXXXXXXX form of raw. Applying it to its
// own output returns the same value.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	var b strings.Builder
	for i, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	phone := b.String()

	switch {
	case strings.HasPrefix(phone, "0"):
		phone = countryPrefix + phone[1:]
	case strings.HasPrefix(phone, "234"):
		phone = "+" + phone
	}

	if !canonicalPhone.MatchString(phone) {
		return "", ErrInvalidPhoneFormat
	}
	return phone, nil
}

// NormalizeEmail trims and lower-cases. Format checks belong to the form.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return mask(email, 1, 0)
	}
	return mask(email[:at], 1, 0) + email[at:]
}

// MaskPhone keeps the country prefix and the last three digits.
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, countryPrefix) {
		return countryPrefix + mask(phone[len(countryPrefix):], 0, 3)
	}
	return mask(phone, 0, 3)
}

func mask(s string, keepHead, keepTail int) string {
	if len(s) <= keepHead+keepTail {
		return strings.Repeat("*", len(s))
	}
	return s[:keepHead] + strings.Repeat("*", len(s)-keepHead-keepTail) + s[len(s)-keepTail:]
}
