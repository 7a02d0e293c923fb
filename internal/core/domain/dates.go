package domain

import (
	"fmt"
	"time"
)

// dueDateLayout is the only accepted textual due-date format at the boundary.
const dueDateLayout = "02/01/2006"

// ParseDueDate parses a dd/mm/yyyy string. Out-of-range calendar dates such
// as 31/02/2024 are rejected.
func ParseDueDate(s string) (time.Time, error) {
	t, err := time.Parse(dueDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDueDate renders a due date in dd/mm/yyyy form. The zero time means
// "no due date" and renders as the empty string.
func FormatDueDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dueDateLayout)
}
