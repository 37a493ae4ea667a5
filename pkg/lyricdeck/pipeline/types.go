// Package pipeline turns per-song English/Korean lyric tracks into an ordered
// deck of bilingual slides.
//
// The pipeline has three deterministic stages. Reconcile pairs the two tracks
// line by line and groups them into slide-sized pairs, Partition checks every
// pair against the slide capacity, and Assemble concatenates the songs in
// order. Run drives the stages for a list of titles against a Source and hands
// the finished deck to a Renderer exactly once.
package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Language identifies which track a lyric line belongs to.
type Language string

const (
	English Language = "english"
	Korean  Language = "korean"
)

func (l Language) String() string { return string(l) }

// Role is the structural part of the song a line belongs to.
type Role string

const (
	RoleUnknown   Role = ""
	RoleVerse     Role = "verse"
	RolePreChorus Role = "pre-chorus"
	RoleChorus    Role = "chorus"
	RoleBridge    Role = "bridge"
	RoleTag       Role = "tag"
	RoleIntro     Role = "intro"
	RoleEnding    Role = "ending"
)

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// LyricLine is one physical line of lyrics in one language.
//
// Section is the 0-based ordinal of the structural segment the line sits in
// (consecutive verses are different sections), Index its 0-based position in
// the whole track.
type LyricLine struct {
	Text     string
	Language Language
	Role     Role
	Section  int
	Index    int
}

// LinePair is the content of one slide: up to SlideCapacity English lines and
// up to SlideCapacity Korean lines, each side joined by "\n".
type LinePair struct {
	English string `json:"english"`
	Korean  string `json:"korean"`
}

// Lines returns the number of physical lines on the given side.
func (p LinePair) Lines(lang Language) int {
	text := p.English
	if lang == Korean {
		text = p.Korean
	}
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}

// Origin records where a song's lyrics came from.
type Origin string

const (
	OriginStorage    Origin = "found-in-storage"
	OriginUser       Origin = "user-provided"
	OriginTranslated Origin = "translated"
)

// Song is a title with both lyric tracks.
type Song struct {
	Title   string
	Origin  Origin
	English []LyricLine
	Korean  []LyricLine
}

// Track returns the song's lines for lang.
func (s *Song) Track(lang Language) []LyricLine {
	if lang == Korean {
		return s.Korean
	}
	return s.English
}

// SongPairs is one song's reconciled, capacity-checked pairs.
type SongPairs struct {
	Title string
	Pairs []LinePair
}

// Deck is the ordered slide content across all songs of a run.
type Deck []LinePair

// Template selects the presentation template a deck is rendered into.
type Template string

const (
	TemplateSunday Template = "sunday"
	TemplateFriday Template = "friday"
)

func (t Template) String() string { return string(t) }

// ParseTemplate accepts "sunday", "friday", "auto" or an English weekday
// name. "auto" and the empty string pick the template for now.
func ParseTemplate(name string, now time.Time) (Template, error) {
	switch s := strings.ToLower(strings.TrimSpace(name)); s {
	case "", "auto":
		return TemplateFor(now.Weekday()), nil
	case string(TemplateSunday):
		return TemplateSunday, nil
	case string(TemplateFriday):
		return TemplateFriday, nil
	default:
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.ToLower(d.String()) == s {
				return TemplateFor(d), nil
			}
		}
		return "", fmt.Errorf("unknown template %q (want sunday, friday or auto)", name)
	}
}

// TemplateFor returns the Friday template on Fridays and the Sunday template
// on every other day.
func TemplateFor(day time.Weekday) Template {
	if day == time.Friday {
		return TemplateFriday
	}
	return TemplateSunday
}
