package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDueDate_Valid(t *testing.T) {
	d, err := ParseDueDate("15/06/2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.June || d.Day() != 15 {
		t.Errorf("parsed wrong date: %v", d)
	}
}

func TestParseDueDate_InvalidCalendarDate(t *testing.T) {
	if _, err := ParseDueDate("31/02/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate for 31/02/2024, got %v", err)
	}
}

func TestParseDueDate_WrongFormat(t *testing.T) {
	for _, s := range []string{"2024-06-15", "15.06.2024", "15/6/24", "June 15, 2024", "garbage"} {
		if _, err := ParseDueDate(s); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDueDate(%q): expected ErrInvalidDate, got %v", s, err)
		}
	}
}

func TestFormatDueDate(t *testing.T) {
	d, _ := ParseDueDate("01/12/2025")
	if got := FormatDueDate(d); got != "01/12/2025" {
		t.Errorf("expected 01/12/2025, got %q", got)
	}
	if got := FormatDueDate(time.Time{}); got != "" {
		t.Errorf("zero time must format empty, got %q", got)
	}
}
