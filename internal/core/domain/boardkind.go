package domain

import "fmt"

// BoardKind is the closed set of board categories. The string value doubles
// as the display string shown at the boundary.
type BoardKind string

const (
	BoardUniversity BoardKind = "University"
	BoardWork       BoardKind = "Work"
	BoardFreeTime   BoardKind = "Free Time"
)

// DefaultBoardKinds lists the kinds every user gets a board for at registration.
func DefaultBoardKinds() []BoardKind {
	return []BoardKind{BoardUniversity, BoardWork, BoardFreeTime}
}

// ParseBoardKind converts a display string into a BoardKind.
func ParseBoardKind(s string) (BoardKind, error) {
	k := BoardKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBoardKind, s)
	}
	return k, nil
}

func (k BoardKind) Valid() bool {
	switch k {
	case BoardUniversity, BoardWork, BoardFreeTime:
		return true
	default:
		return false
	}
}

func (k BoardKind) String() string { return string(k) }
