package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/logger"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/models"
)

// Conversation is one multi-turn chat with the assistant.
type Conversation interface {
	Send(ctx context.Context, message string) (string, error)
}

// Assistant is the LLM front end, when one is configured.
type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
	StartConversation() Conversation
}

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service   lyricdeck.Service
	assistant Assistant
	config    *ServerConfig
	log       lyricdeck.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	Google         bool
	AllowedOrigins []string
	DeckTimeout    time.Duration
	AgentTimeout   time.Duration
}

// NewServer creates a new server instance. assistant may be nil.
func NewServer(service lyricdeck.Service, assistant Assistant, config *ServerConfig) *Server {
	if config.DeckTimeout == 0 {
		config.DeckTimeout = 5 * time.Minute
	}
	if config.AgentTimeout == 0 {
		config.AgentTimeout = 5 * time.Minute
	}
	return &Server{
		service:   service,
		assistant: assistant,
		config:    config,
		log:       logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// decodeBody reads a size-limited JSON body into v
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// statusFor maps deck pipeline errors to HTTP status codes
func statusFor(err error) int {
	// An empty deck wraps its per-song failures, so it is matched first.
	switch {
	case errors.Is(err, pipeline.ErrEmptyDeck):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrCapacityExceeded):
		return http.StatusInternalServerError
	case errors.Is(err, lyricdeck.ErrNotFound), errors.Is(err, pipeline.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrLineCountMismatch), errors.Is(err, pipeline.ErrIncompletePair):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrRenderingFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "LyricDeck API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":          "GET /health",
			"metrics":         "GET /api/health/metrics",
			"songs":           "GET /api/songs",
			"addSong":         "POST /api/songs",
			"getSong":         "GET /api/songs/{id}",
			"deleteSong":      "DELETE /api/songs/{id}",
			"buildDeck":       "POST /api/decks",
			"runs":            "GET /api/runs",
			"previewPlaylist": "GET /api/playlists/preview?url=",
			"agent":           "POST /api/agent",
			"agentChat":       "GET /ws/agent",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	songs, err := s.service.ListSongs()
	if err != nil {
		s.log.Errorf("Failed to get song count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}
	runs, err := s.service.ListRuns(0)
	if err != nil {
		s.log.Errorf("Failed to get run count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		SongCount:    len(songs),
		RunCount:     len(runs),
		Google:       s.config.Google,
		Assistant:    s.assistant != nil,
	})
}

// handleListSongs handles GET /api/songs
func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.service.ListSongs()
	if err != nil {
		s.log.Errorf("Failed to list songs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve songs")
		return
	}

	songDTOs := make([]SongDTO, len(songs))
	for i, song := range songs {
		songDTOs[i] = toSongDTO(song, false)
	}

	s.respondJSON(w, http.StatusOK, ListSongsResponse{
		Songs: songDTOs,
		Count: len(songDTOs),
	})
}

// handleAddSong handles POST /api/songs
func (s *Server) handleAddSong(w http.ResponseWriter, r *http.Request) {
	var req AddSongRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	songID, err := s.service.AddSong(r.Context(), models.SongInput{
		Title:   req.Title,
		English: req.English,
		Korean:  req.Korean,
		Aliases: req.Aliases,
	})
	if err != nil {
		s.log.Warnf("Failed to add song %q: %v", req.Title, err)
		code := statusFor(err)
		if code == http.StatusNotFound {
			// A missing language in the request is a client error.
			code = http.StatusUnprocessableEntity
		}
		s.respondError(w, code, fmt.Sprintf("Failed to add song: %v", err))
		return
	}

	s.log.Infof("Successfully added song: %s (ID: %s)", req.Title, songID)
	s.respondJSON(w, http.StatusCreated, AddSongResponse{
		Message: "Song added successfully",
		ID:      songID,
		Title:   req.Title,
	})
}

// handleGetSong handles GET /api/songs/{id}
func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request, songID string) {
	song, err := s.service.GetSongByID(songID)
	if err != nil {
		s.log.Warnf("Song not found: %s", songID)
		s.respondError(w, statusFor(err), fmt.Sprintf("Song with ID %s not found", songID))
		return
	}

	s.respondJSON(w, http.StatusOK, toSongDTO(*song, true))
}

// handleDeleteSong handles DELETE /api/songs/{id}
func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request, songID string) {
	// Get song info before deletion
	song, err := s.service.GetSongByID(songID)
	if err != nil {
		s.log.Warnf("Song not found for deletion: %s", songID)
		s.respondError(w, statusFor(err), fmt.Sprintf("Song with ID %s not found", songID))
		return
	}

	if err := s.service.DeleteSong(songID); err != nil {
		s.log.Errorf("Failed to delete song %s: %v", songID, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to delete song")
		return
	}

	s.log.Infof("Deleted song: %s (ID: %s)", song.Title, songID)
	s.respondJSON(w, http.StatusOK, DeleteSongResponse{
		Message: "Song deleted successfully",
		ID:      songID,
	})
}

// handleBuildDeck handles POST /api/decks
func (s *Server) handleBuildDeck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.DeckTimeout)
	defer cancel()

	var req BuildDeckRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Infof("Building deck for %d titles", len(req.Titles))
	res, err := s.service.BuildDeck(ctx, req.DeckRequest)
	if err != nil {
		code := statusFor(err)
		s.log.Warnf("Deck build failed (%d): %v", code, err)
		if res != nil && errors.Is(err, pipeline.ErrEmptyDeck) {
			// The failures explain why nothing could be built.
			s.respondJSON(w, code, res)
			return
		}
		s.respondError(w, code, err.Error())
		return
	}

	s.log.Infof("Deck ready: %s (%d slides)", res.Locator, res.Slides)
	s.respondJSON(w, http.StatusCreated, res)
}

// handleListRuns handles GET /api/runs?limit=
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.service.ListRuns(limit)
	if err != nil {
		s.log.Errorf("Failed to list runs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	s.respondJSON(w, http.StatusOK, ListRunsResponse{Runs: runs, Count: len(runs)})
}

// handlePreviewPlaylist handles GET /api/playlists/preview?url=
func (s *Server) handlePreviewPlaylist(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.URL.Query().Get("url"))
	if ref == "" {
		s.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	preview, err := s.service.PreviewPlaylist(r.Context(), ref)
	if err != nil {
		s.log.Warnf("Failed to preview playlist %s: %v", ref, err)
		s.respondError(w, http.StatusBadGateway, fmt.Sprintf("Failed to preview playlist: %v", err))
		return
	}
	s.respondJSON(w, http.StatusOK, preview)
}

// handleAgent handles POST /api/agent
func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.config.AgentTimeout)
	defer cancel()

	var req AgentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.assistant.Ask(ctx, req.Message)
	if err != nil {
		s.log.Errorf("Assistant failed: %v", err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Assistant failed: %v", err))
		return
	}
	s.respondJSON(w, http.StatusOK, AgentResponse{Reply: reply})
}

// handleSongs routes requests to /api/songs
func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSongs(w, r)
	case http.MethodPost:
		s.handleAddSong(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSong routes requests to /api/songs/{id}
func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	// Extract ID from path
	id := strings.Trim(r.URL.Path[len("/api/songs/"):], "/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Song ID required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetSong(w, r, id)
	case http.MethodDelete:
		s.handleDeleteSong(w, r, id)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// postOnly rejects every method but POST
func (s *Server) postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

// getOnly rejects every method but GET
func (s *Server) getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}
