package util

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number")

var nonDigitPattern = regexp.MustCompile(`\D`)

// NormalizePhone canonicalizes an Indian mobile number to +91XXXXXXXXXX.
// Accepts bare 10-digit numbers and numbers already carrying the country
// code, with or without separators.
func NormalizePhone(raw string) (string, error) {
	digits := nonDigitPattern.ReplaceAllString(strings.TrimSpace(raw), "")

	switch {
	case len(digits) == 10:
	case len(digits) == 11 && digits[0] == '0':
		digits = digits[1:]
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	default:
		return "", ErrInvalidPhone
	}

	// Indian mobile numbers start with 6-9.
	if digits[0] < '6' {
		return "", ErrInvalidPhone
	}
	return "+91" + digits, nil
}
