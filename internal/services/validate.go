package services

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

func isDigits(value string, minLen, maxLen int) bool {
	if len(value) < minLen || len(value) > maxLen {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validPhone(phone string) bool { return isDigits(phone, 8, 8) }

func validPIN(pin string) bool { return isDigits(pin, 4, 4) }

// NormalizePhone accepts a local 8-digit number or one carrying a country prefix
// (+222XXXXXXXX, 00222XXXXXXXX) and returns the local 8 digits.
func NormalizePhone(raw string) (string, bool) {
	var digits strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == ' ' || r == '-':
		default:
			return "", false
		}
	}

	d := digits.String()
	if len(d) < 8 || len(d) > 15 {
		return "", false
	}
	return d[len(d)-8:], true
}

func textLength(value string, minLen, maxLen int) bool {
	n := utf8.RuneCountInString(value)
	return n >= minLen && n <= maxLen
}

func parseID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, newError(ErrValidation, msgInvalidID)
	}
	return id, nil
}
