package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/models"
)

// Request limits
const (
	// MaxTitlesPerDeck bounds a single service order.
	MaxTitlesPerDeck = 40

	// MaxBodyBytes bounds JSON request bodies (lyrics included).
	MaxBodyBytes = 1 << 20
)

// BuildDeckRequest is the request body for POST /api/decks
type BuildDeckRequest struct {
	lyricdeck.DeckRequest
}

// Validate checks if the request is valid
func (r *BuildDeckRequest) Validate() error {
	count := 0
	for _, t := range r.Titles {
		if strings.TrimSpace(t) != "" {
			count++
		}
	}
	if count == 0 {
		return fmt.Errorf("titles cannot be empty")
	}
	if count > MaxTitlesPerDeck {
		return fmt.Errorf("too many titles: %d (maximum: %d)", count, MaxTitlesPerDeck)
	}
	if _, err := pipeline.ParseTemplate(r.Template, time.Now()); err != nil {
		return err
	}
	return nil
}

// AddSongRequest is the request body for POST /api/songs
type AddSongRequest struct {
	Title string `json:"title" binding:"required"`

	// English and Korean may also be given together in English as one
	// bilingual text.
	English string   `json:"english"`
	Korean  string   `json:"korean,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

// Validate checks if the request is valid
func (r *AddSongRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.English) == "" && strings.TrimSpace(r.Korean) == "" {
		return fmt.Errorf("lyrics are required")
	}
	return nil
}

// AddSongResponse is the response for successful song addition
type AddSongResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Title   string `json:"title"`
}

// SongDTO represents a song in API responses
type SongDTO struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Origin  string   `json:"origin"`
	Aliases []string `json:"aliases,omitempty"`
	English string   `json:"english,omitempty"`
	Korean  string   `json:"korean,omitempty"`
}

func toSongDTO(song models.Song, withLyrics bool) SongDTO {
	dto := SongDTO{ID: song.ID, Title: song.Title, Origin: song.Origin, Aliases: song.Aliases}
	if withLyrics {
		dto.English, dto.Korean = song.English, song.Korean
	}
	return dto
}

// ListSongsResponse is the response for GET /api/songs
type ListSongsResponse struct {
	Songs []SongDTO `json:"songs"`
	Count int       `json:"count"`
}

// DeleteSongResponse is the response for DELETE /api/songs/{id}
type DeleteSongResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ListRunsResponse is the response for GET /api/runs
type ListRunsResponse struct {
	Runs  []models.Run `json:"runs"`
	Count int          `json:"count"`
}

// AgentRequest is the request body for POST /api/agent
type AgentRequest struct {
	Message string `json:"message" binding:"required"`
}

// AgentResponse is one assistant reply
type AgentResponse struct {
	Reply string `json:"reply"`
}

// MetricsResponse provides server health and library metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	SongCount    int    `json:"song_count"`
	RunCount     int    `json:"run_count"`
	Google       bool   `json:"google"`
	Assistant    bool   `json:"assistant"`
}

// ClientMessage is a chat message received over /ws/agent
type ClientMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// ServerMessage is a chat message sent over /ws/agent
type ServerMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
