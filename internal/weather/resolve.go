package weather

import (
	"fmt"
	"strings"

	appLog "thermalprint/internal/log"
)

// contentLines is the number of lines after the title that Fill indexes.
const contentLines = 5

// Model is a resolved, printable template.
type Model struct {
	// Requested is the key derived from icon and band; Key is the one that
	// was actually found.
	Requested string
	Key       string

	Summary string
	Art     string
	// Lines are the art lines after the title line.
	Lines []string
	// Diagonals label the diagonal wind sectors.
	Diagonals Diagonals
}

// Resolve picks the model for icon at band. The lookup tries "icon-band",
// then "icon", then UnknownKey; the key that produced the summary is also
// used for the art. A missing key is logged and recovered; alias cycles,
// a missing UnknownKey and malformed art are errors.
func (s *Store) Resolve(icon string, band Band) (Model, error) {
	requested := Key(icon, band)
	key := requested
	if !s.Summary.Has(key) {
		key = icon
		if !s.Summary.Has(key) {
			appLog.Warn("missing weather model, using fallback", "key", requested, "fallback", UnknownKey)
			key = UnknownKey
		}
	}

	summary, err := s.Summary.Follow(key)
	if err != nil {
		return Model{}, fmt.Errorf("summary for %q: %w", key, err)
	}

	art, err := s.Models.Follow(key)
	if err != nil {
		return Model{}, fmt.Errorf("model for %q: %w", key, err)
	}
	if s.Filler != "" {
		art = strings.ReplaceAll(art, s.Filler, "")
	}

	lines := splitLines(art)
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) < contentLines {
		return Model{}, fmt.Errorf("%w: %q has %d lines after the title, want %d",
			ErrMalformedTemplate, key, len(lines), contentLines)
	}
	if !strings.Contains(lines[3], windMarker) {
		return Model{}, fmt.Errorf("%w: %q wind line has no %q marker", ErrMalformedTemplate, key, windMarker)
	}

	return Model{
		Requested: requested,
		Key:       key,
		Summary:   summary,
		Art:       art,
		Lines:     lines,
		Diagonals: s.Diagonals,
	}, nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
