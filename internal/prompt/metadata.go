package prompt

import (
	"cmp"
	"strings"
	"time"
)

// Metadata is the descriptive record stored for every prompt.
type Metadata struct {
	ID    ID      `json:"id"`
	Title *string `json:"title"`

	// Default marks the prompt for inclusion in the composed default prompt.
	Default bool `json:"default"`

	// SavedAt strictly increases on every persisted update of the same ID.
	SavedAt time.Time `json:"saved_at"`
}

// TitleOrEmpty returns the title, or "" when unset.
func (m Metadata) TitleOrEmpty() string {
	if m.Title == nil {
		return ""
	}
	return *m.Title
}

// DisplayTitle returns the title, or "Untitled" when unset.
func (m Metadata) DisplayTitle() string {
	if m.Title == nil {
		return "Untitled"
	}
	return *m.Title
}

// Compare orders metadata for listing: untitled first, then by title,
// then most recently saved first. The ID string breaks remaining ties.
func Compare(a, b Metadata) int {
	switch {
	case a.Title == nil && b.Title != nil:
		return -1
	case a.Title != nil && b.Title == nil:
		return 1
	case a.Title != nil && b.Title != nil:
		if c := strings.Compare(*a.Title, *b.Title); c != 0 {
			return c
		}
	}
	if c := b.SavedAt.Compare(a.SavedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

// SavedAtResolution is the precision at which SavedAt is stored.
const SavedAtResolution = time.Microsecond

// NextSavedAt returns a UTC timestamp that is at least now and strictly after prev.
func NextSavedAt(prev, now time.Time) time.Time {
	next := now.UTC().Truncate(SavedAtResolution)
	if !prev.IsZero() && !next.After(prev) {
		next = prev.UTC().Truncate(SavedAtResolution).Add(SavedAtResolution)
	}
	return next
}
