package domain

import (
	"fmt"
	"regexp"
)

var identityRegex = regexp.MustCompile(`^[A-Za-z0-9_.:\-]{1,64}$`)

// ValidateIdentity checks an opaque user or guild identifier.
func ValidateIdentity(kind, id string) error {
	if id == "" {
		return ErrInvalidSelection(fmt.Sprintf("%s id is required", kind))
	}
	if !identityRegex.MatchString(id) {
		return ErrInvalidSelection(fmt.Sprintf("invalid %s id %q", kind, id))
	}
	return nil
}

// ValidatePositiveAmount checks that an amount of credits is positive.
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidSelection(fmt.Sprintf("amount must be positive, got %d", amount))
	}
	return nil
}
