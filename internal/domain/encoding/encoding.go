// Package encoding maps categorical match fields to the integer codes the
// model was trained on. Codes are positions in the sorted class list, the
// same scheme a fitted label encoder uses.
package encoding

import (
	"fmt"
	"slices"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Categories present in the encoder artifact.
const (
	CategoryBattingTeam = "batting_team"
	CategoryBowlingTeam = "bowling_team"
)

// Encoder is immutable after construction and safe for concurrent use.
type Encoder struct {
	classes map[string][]string
	codes   map[string]map[string]int
}

// New builds an Encoder from class lists keyed by category. Each list is
// sorted and deduplicated before codes are assigned.
func New(classes map[string][]string) *Encoder {
	e := &Encoder{
		classes: make(map[string][]string, len(classes)),
		codes:   make(map[string]map[string]int, len(classes)),
	}
	for category, values := range classes {
		sorted := slices.Clone(values)
		sort.Strings(sorted)
		sorted = slices.Compact(sorted)

		idx := make(map[string]int, len(sorted))
		for i, v := range sorted {
			idx[v] = i
		}
		e.classes[category] = sorted
		e.codes[category] = idx
	}
	return e
}

// Load reads a YAML artifact of the form
//
//	batting_team: [Afghanistan, Australia, ...]
//	bowling_team: [Afghanistan, Australia, ...]
//
// Both team categories must be present and non-empty.
func Load(path string) (*Encoder, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadEncoders, path, err)
	}

	classes := make(map[string][]string)
	for _, category := range k.Keys() {
		classes[category] = k.Strings(category)
	}
	for _, required := range []string{CategoryBattingTeam, CategoryBowlingTeam} {
		if len(classes[required]) == 0 {
			return nil, fmt.Errorf("%w: %s: missing category %q", ErrLoadEncoders, path, required)
		}
	}
	return New(classes), nil
}

// Encode returns the code for value within category.
func (e *Encoder) Encode(category, value string) (int, error) {
	idx, ok := e.codes[category]
	if !ok {
		return 0, fmt.Errorf("%w: category %q", ErrUnknownCategory, category)
	}
	code, ok := idx[value]
	if !ok {
		return 0, fmt.Errorf("%w: %q not in %s", ErrUnknownCategory, value, category)
	}
	return code, nil
}

// Classes returns the sorted vocabulary of category, or nil if unknown.
func (e *Encoder) Classes(category string) []string {
	return slices.Clone(e.classes[category])
}
