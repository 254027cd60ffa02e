package utils

import (
	"strings"
	"testing"
)

func TestValidYearMonth(t *testing.T) {
	valid := []string{"2024-01", "2024-12", "1999-06"}
	invalid := []string{"", "2024", "2024-13", "2024-00", "2024-1", "24-01", "2024/01", "2024-01-15"}

	for _, value := range valid {
		if !ValidYearMonth(value) {
			t.Errorf("%q should be valid", value)
		}
	}
	for _, value := range invalid {
		if ValidYearMonth(value) {
			t.Errorf("%q should be invalid", value)
		}
	}
}

func TestYearMonthInWindow(t *testing.T) {
	cases := []struct {
		value, start, end string
		want              bool
	}{
		{"2024-06", "2024-01", "2024-12", true},
		{"2024-01", "2024-01", "2024-12", true},
		{"2024-12", "2024-01", "2024-12", true},
		{"2023-12", "2024-01", "2024-12", false},
		{"2025-01", "2024-01", "2024-12", false},
		{"1990-01", "", "2024-12", true},
		{"2030-01", "2024-01", "", true},
		{"2030-01", "", "", true},
	}
	for _, tc := range cases {
		if got := YearMonthInWindow(tc.value, tc.start, tc.end); got != tc.want {
			t.Errorf("YearMonthInWindow(%q, %q, %q) = %v, want %v",
				tc.value, tc.start, tc.end, got, tc.want)
		}
	}
}

func TestCheckLimit(t *testing.T) {
	if err := CheckLimit("title", strings.Repeat("a", 10), 10); err != nil {
		t.Fatalf("value at the limit rejected: %v", err)
	}
	if err := CheckLimit("title", strings.Repeat("a", 11), 10); err == nil {
		t.Fatalf("value over the limit accepted")
	}
	if err := CheckLimit("title", strings.Repeat("é", 10), 10); err != nil {
		t.Fatalf("limits must count runes, not bytes: %v", err)
	}
	if err := CheckLimit("title", strings.Repeat("a", 1000), 0); err != nil {
		t.Fatalf("zero limit must not cap the field: %v", err)
	}
}

func TestCheckRequired(t *testing.T) {
	if err := CheckRequired("introduction", "text"); err != nil {
		t.Fatalf("non-empty value rejected: %v", err)
	}
	if err := CheckRequired("introduction", ""); err == nil {
		t.Fatalf("empty value accepted")
	}
	if err := CheckRequired("introduction", "   "); err == nil {
		t.Fatalf("whitespace-only value accepted")
	}
}

func TestValidateEmail(t *testing.T) {
	if !ValidateEmail("author@example.com") {
		t.Fatalf("valid email rejected")
	}
	for _, value := range []string{"", "author", "author@", "@example.com"} {
		if ValidateEmail(value) {
			t.Errorf("%q should be invalid", value)
		}
	}
}
