package domain

import (
	"errors"
	"testing"
)

func TestParseBoardKind_RoundTrip(t *testing.T) {
	for _, display := range []string{"University", "Work", "Free Time"} {
		kind, err := ParseBoardKind(display)
		if err != nil {
			t.Fatalf("ParseBoardKind(%q): %v", display, err)
		}
		if kind.String() != display {
			t.Errorf("round trip %q → %q", display, kind.String())
		}
	}
}

func TestParseBoardKind_Invalid(t *testing.T) {
	for _, s := range []string{"", "free time", "FREETIME", "Uni", "Work ", "Hobby"} {
		if _, err := ParseBoardKind(s); !errors.Is(err, ErrInvalidBoardKind) {
			t.Errorf("ParseBoardKind(%q): expected ErrInvalidBoardKind, got %v", s, err)
		}
	}
}

func TestDefaultBoardKinds(t *testing.T) {
	kinds := DefaultBoardKinds()
	if len(kinds) != 3 {
		t.Fatalf("expected 3 default kinds, got %d", len(kinds))
	}
	seen := map[BoardKind]bool{}
	for _, k := range kinds {
		if !k.Valid() {
			t.Errorf("default kind %q is not valid", k)
		}
		if seen[k] {
			t.Errorf("duplicate default kind %q", k)
		}
		seen[k] = true
	}
}
