package pipeline

import (
	"fmt"
	"strings"
)

// SlideCapacity is the maximum number of physical lines per language on one
// slide.
const SlideCapacity = 2

// CheckCapacity validates a single pair. It never truncates: a side with
// more than SlideCapacity lines is reported as a CapacityExceededError and a
// side with no text as ErrIncompletePair.
func CheckCapacity(p LinePair) error {
	if strings.TrimSpace(p.English) == "" || strings.TrimSpace(p.Korean) == "" {
		return fmt.Errorf("%w: english=%q korean=%q", ErrIncompletePair, p.English, p.Korean)
	}
	for _, lang := range []Language{English, Korean} {
		if n := p.Lines(lang); n > SlideCapacity {
			return &CapacityExceededError{Language: lang, Lines: n}
		}
	}
	return nil
}

// Partition applies CheckCapacity to every pair of a song and returns a copy
// of the pairs, unchanged, when all of them fit.
func Partition(title string, pairs []LinePair) ([]LinePair, error) {
	for i, p := range pairs {
		if err := CheckCapacity(p); err != nil {
			if ce, ok := err.(*CapacityExceededError); ok {
				ce.Title = title
				return nil, ce
			}
			return nil, fmt.Errorf("%q pair %d: %w", title, i, err)
		}
	}
	out := make([]LinePair, len(pairs))
	copy(out, pairs)
	return out, nil
}
