package weather

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// AliasPrefix marks an entry that points at another key.
	AliasPrefix = "::"
	// UnknownKey is the last-resort model.
	UnknownKey = "unknown"
	// DefaultFiller pads art to a fixed glyph width in the editor font and
	// is removed before printing.
	DefaultFiller = "a"
	// MaxAliasHops bounds alias redirection.
	MaxAliasHops = 8
)

var (
	ErrMissingTemplate   = errors.New("weather: missing template")
	ErrAliasCycle        = errors.New("weather: alias chain too long or cyclic")
	ErrMalformedTemplate = errors.New("weather: malformed template")
)

// Entry is either a direct body or an alias to another key.
type Entry struct {
	Body  string
	Alias string
}

// IsAlias reports whether the entry redirects to another key.
func (e Entry) IsAlias() bool {
	return e.Alias != ""
}

// ParseEntry recognizes the "::name" alias form.
func ParseEntry(v string) Entry {
	if name, ok := strings.CutPrefix(v, AliasPrefix); ok {
		return Entry{Alias: strings.TrimSpace(name)}
	}
	return Entry{Body: v}
}

// Table is one flat key → entry mapping.
type Table map[string]Entry

// Has reports whether key is present, alias or not.
func (t Table) Has(key string) bool {
	_, ok := t[key]
	return ok
}

// Follow resolves key through aliases to a direct body.
func (t Table) Follow(key string) (string, error) {
	cur := key
	for range MaxAliasHops + 1 {
		e, ok := t[cur]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrMissingTemplate, cur)
		}
		if !e.IsAlias() {
			return e.Body, nil
		}
		cur = e.Alias
	}
	return "", fmt.Errorf("%w: starting at %q", ErrAliasCycle, key)
}

func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*t = make(Table, len(raw))
	for k, v := range raw {
		(*t)[k] = ParseEntry(v)
	}
	return nil
}

// Store holds the summary and model tables loaded from configuration.
type Store struct {
	Filler    string    `yaml:"filler"`
	Diagonals Diagonals `yaml:"diagonals"`
	Summary   Table     `yaml:"summary"`
	Models    Table     `yaml:"models"`
}

// ParseStore decodes a YAML template store.
func ParseStore(data []byte) (*Store, error) {
	s := &Store{Filler: DefaultFiller, Diagonals: DefaultDiagonals}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("weather: decode templates: %w", err)
	}
	if s.Summary == nil {
		s.Summary = Table{}
	}
	if s.Models == nil {
		s.Models = Table{}
	}
	return s, nil
}

// LoadStore reads and decodes the template store at path.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("weather: read templates: %w", err)
	}
	return ParseStore(data)
}
