package validation

import (
	"strings"
	"unicode/utf8"

	"star-task/internal/config"
)

// Validator provides common validation utilities
type Validator struct {
	config *config.Config
}

// NewValidator creates a new validator instance with no length limits
func NewValidator() *Validator {
	return &Validator{}
}

// NewValidatorWithConfig creates a new validator instance with configuration
func NewValidatorWithConfig(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// FitsLength reports whether s has at most max characters. A max below 1 disables the check.
func (v *Validator) FitsLength(s string, max int) bool {
	if max < 1 {
		return true
	}
	return utf8.RuneCountInString(s) <= max
}

// TitleMaxLength returns the configured maximum title length; 0 means unlimited
func (v *Validator) TitleMaxLength() int {
	if v.config != nil {
		return v.config.Validation.TitleMaxLength
	}
	return 0
}

// DescriptionMaxLength returns the configured maximum description length
func (v *Validator) DescriptionMaxLength() int {
	if v.config != nil {
		return v.config.Validation.DescriptionMaxLength
	}
	return 0
}
