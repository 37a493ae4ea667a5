package models

import "time"

// Run status values.
const (
	RunRendered  = "rendered"
	RunEmpty     = "empty"
	RunFailed    = "failed"
	RunCancelled = "cancelled"
)

// Run is the record of one deck build.
type Run struct {
	ID         string        `json:"id"`
	Titles     []string      `json:"titles"`
	Template   string        `json:"template"`
	Status     string        `json:"status"`
	Locator    string        `json:"locator,omitempty"`
	Slides     int           `json:"slides"`
	Failures   []SongFailure `json:"failures,omitempty"`
	DurationMs int64         `json:"duration_ms"`
	CreatedAt  time.Time     `json:"created_at"`
}

// SongFailure is a song that was left out of a deck, and why.
type SongFailure struct {
	Title string `json:"title"`
	Error string `json:"error"`
}
