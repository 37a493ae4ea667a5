package models

import "time"

// Song is a lyric library entry. English and Korean hold the raw lyric text
// with section labels, one lyric line per text line.
type Song struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	English     string    `json:"english"`
	Korean      string    `json:"korean"`
	Origin      string    `json:"origin"`                  // found-in-storage, user-provided or translated
	DriveFileID string    `json:"drive_file_id,omitempty"` // Drive file the lyrics came from (if any)
	Aliases     []string  `json:"aliases,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SongInput is what a caller supplies to add or replace a song.
type SongInput struct {
	Title   string   `json:"title"`
	English string   `json:"english"`
	Korean  string   `json:"korean"`
	Origin  string   `json:"origin,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}
