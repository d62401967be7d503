package validation

import (
	"fmt"
	"html"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy удаляет все HTML теги, оставляя только текст
var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup and surrounding whitespace from user supplied text.
// bluemonday escapes entities in its output, the result is unescaped back to plain text.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// Required checks that value is not blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Reason: field + " is required"}
	}
	return nil
}

// MaxLen checks value length in runes.
func MaxLen(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return &FieldError{Field: field, Reason: fmt.Sprintf("%s must not exceed %d characters", field, limit)}
	}
	return nil
}

// OneOf checks that value is one of allowed. Empty value passes, combine with Required if needed.
func OneOf(field, value string, allowed ...string) error {
	if value == "" || slices.Contains(allowed, value) {
		return nil
	}
	return &FieldError{Field: field, Reason: fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", "))}
}

// NonNegative checks numeric measurements.
func NonNegative(field string, value float64) error {
	if value < 0 {
		return &FieldError{Field: field, Reason: field + " must not be negative"}
	}
	return nil
}
