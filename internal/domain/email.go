package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// emailPattern requires a local part, an "@" and a dotted domain. It is the
// same address shape the frontend validates against, so both ends reject the
// same inputs before any upstream call.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail lower-cases and trims an address and validates its syntax.
// Uniqueness everywhere downstream is defined over this normalized form.
func NormalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !emailPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return trimmed, nil
}
