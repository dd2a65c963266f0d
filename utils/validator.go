// utils/validator.go - Input validation
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// FormatBindingError turns a gin binding failure into a readable message.
func FormatBindingError(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	var b strings.Builder
	for i, e := range validationErrors {
		if i > 0 {
			b.WriteString("; ")
		}
		switch e.Tag() {
		case "required":
			b.WriteString(e.Field() + " is required")
		case "min":
			b.WriteString(e.Field() + " must have at least " + e.Param() + " entries")
		case "max":
			b.WriteString(e.Field() + " must have at most " + e.Param() + " entries")
		case "oneof":
			b.WriteString(e.Field() + " must be one of: " + e.Param())
		default:
			b.WriteString(e.Field() + " is invalid")
		}
	}
	return b.String()
}
