package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPhone is returned when a phone number cannot be normalized.
var ErrInvalidPhone = errors.New("invalid phone number format")

// NormalizePhone maps a Kenyan phone number to the canonical 254XXXXXXXXX
// form the gateway expects. "+" and spaces are stripped first; a leading
// "0" is replaced with "254", a leading "7" gets "254" prepended, and a
// number already starting with "254" is returned unchanged.
func NormalizePhone(phone string) (string, error) {
	p := strings.ReplaceAll(phone, "+", "")
	p = strings.ReplaceAll(p, " ", "")

	switch {
	case strings.HasPrefix(p, "0"):
		return "254" + p[1:], nil
	case strings.HasPrefix(p, "7"):
		return "254" + p, nil
	case strings.HasPrefix(p, "254"):
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidPhone, phone)
}
