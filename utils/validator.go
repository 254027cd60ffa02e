// utils/validator.go - Input validation
package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	yearMonthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword checks password strength
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	return true, ""
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// ValidYearMonth reports whether the value is a YYYY-MM string with a real
// month. Experience windows and experience starts use this form everywhere.
func ValidYearMonth(value string) bool {
	return yearMonthRegex.MatchString(value)
}

// YearMonthLTE compares two YYYY-MM values; both must already be valid.
// String comparison is ordering-correct for the zero padded form.
func YearMonthLTE(a, b string) bool {
	return a <= b
}

// YearMonthInWindow reports whether value falls inside [start, end]. Empty
// window bounds do not constrain that side.
func YearMonthInWindow(value, start, end string) bool {
	if start != "" && value < start {
		return false
	}
	if end != "" && value > end {
		return false
	}
	return true
}

// CheckLimit validates a long-text field against its configured character
// limit. Limits count runes, not bytes, so multi-byte text is not
// shortchanged. A limit of zero means the field has no cap.
func CheckLimit(field, value string, limit int) error {
	if limit <= 0 {
		return nil
	}
	if utf8.RuneCountInString(value) > limit {
		return fmt.Errorf("%s exceeds the limit of %d characters", field, limit)
	}
	return nil
}

// CheckRequired validates that a long-text field is non-empty after trimming.
func CheckRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}
