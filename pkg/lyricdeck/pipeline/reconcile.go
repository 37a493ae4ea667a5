package pipeline

import (
	"fmt"
	"strings"
)

// Reconcile pairs the English and Korean tracks of a song position by
// position and groups adjacent positions into slide-sized pairs.
//
// Both tracks must have the same number of lines. A pair holds at most
// SlideCapacity positions and never spans a structural boundary (a change of
// Section or Role in either track). Two empty tracks reconcile to no pairs.
func Reconcile(title string, english, korean []LyricLine) ([]LinePair, error) {
	if len(english) != len(korean) {
		return nil, &LineCountMismatchError{Title: title, English: len(english), Korean: len(korean)}
	}
	if err := checkTrack(title, English, english); err != nil {
		return nil, err
	}
	if err := checkTrack(title, Korean, korean); err != nil {
		return nil, err
	}

	n := len(english)
	pairs := make([]LinePair, 0, (n+SlideCapacity-1)/SlideCapacity)
	for start := 0; start < n; {
		end := start + 1
		for end < n && end-start < SlideCapacity &&
			!crossesBoundary(english[end-1], english[end]) &&
			!crossesBoundary(korean[end-1], korean[end]) {
			end++
		}
		pairs = append(pairs, LinePair{
			English: joinLines(english[start:end]),
			Korean:  joinLines(korean[start:end]),
		})
		start = end
	}
	return pairs, nil
}

func checkTrack(title string, lang Language, lines []LyricLine) error {
	for i, l := range lines {
		if l.Language != "" && l.Language != lang {
			return fmt.Errorf("%q: %s line %d tagged %s: %w", title, lang, i, l.Language, ErrLanguageMismatch)
		}
		if strings.TrimSpace(l.Text) == "" {
			return fmt.Errorf("%q: %s line %d is blank: %w", title, lang, i, ErrIncompletePair)
		}
		// One position is one physical line; a pair may only grow by joining.
		if strings.ContainsAny(strings.TrimSpace(l.Text), "\r\n") {
			return fmt.Errorf("%q: %s line %d holds several lines: %w", title, lang, i, ErrIncompletePair)
		}
	}
	return nil
}

func crossesBoundary(prev, next LyricLine) bool {
	return prev.Section != next.Section || prev.Role != next.Role
}

func joinLines(lines []LyricLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = strings.TrimSpace(l.Text)
	}
	return strings.Join(parts, "\n")
}
