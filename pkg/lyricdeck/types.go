package lyricdeck

import (
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/source"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/models"
)

// DeckRequest asks for a presentation of the given songs, in order.
type DeckRequest struct {
	Titles []string `json:"titles"`
	// Template is "sunday", "friday", a weekday name, or empty/"auto" for
	// today's service.
	Template string `json:"template,omitempty"`
	// Lyrics supplied here win over the library and remote sources.
	Lyrics []source.UserLyrics `json:"lyrics,omitempty"`
	// DryRun writes the deck to a JSON file instead of Google Slides.
	DryRun bool `json:"dry_run,omitempty"`
}

// DeckResult describes a finished (or empty) build.
type DeckResult struct {
	RunID    string                 `json:"run_id"`
	Status   string                 `json:"status"`
	Locator  string                 `json:"locator,omitempty"`
	Template pipeline.Template      `json:"template"`
	Slides   int                    `json:"slides"`
	Songs    []pipeline.SongSummary `json:"songs"`
	Failures []models.SongFailure   `json:"failures,omitempty"`
	Deck     pipeline.Deck          `json:"deck,omitempty"`
}
