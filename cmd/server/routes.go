package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/logger"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Root endpoint
	mux.HandleFunc("/", s.handleRoot)

	// Health endpoints
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/health/metrics", s.handleMetrics)

	// Lyric library endpoints
	mux.HandleFunc("/api/songs", s.handleSongs)
	mux.HandleFunc("/api/songs/", s.handleSong)

	// Deck endpoints
	mux.HandleFunc("/api/decks", s.postOnly(s.handleBuildDeck))
	mux.HandleFunc("/api/runs", s.getOnly(s.handleListRuns))
	mux.HandleFunc("/api/playlists/preview", s.getOnly(s.handlePreviewPlaylist))

	// Assistant endpoints
	mux.HandleFunc("/api/agent", s.postOnly(s.handleAgent))
	mux.HandleFunc("/ws/agent", s.handleAgentChat)

	// Wrap with CORS and logging middleware
	return loggingMiddleware(corsMiddleware(s.config.AllowedOrigins)(mux))
}

// originAllowed reports whether origin may call the API. Requests without
// an Origin header are not cross-site and always pass.
func originAllowed(allowedOrigins []string, origin string) bool {
	if origin == "" || len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		return true
	}
	for _, allowedOrigin := range allowedOrigins {
		if allowedOrigin == origin {
			return true
		}
	}
	return false
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else if origin != "" && originAllowed(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
				allowed = true
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WebSocket upgrades need the raw ResponseWriter (http.Hijacker).
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			logger.Infof("%s %s upgrade from %s", r.Method, r.URL.Path, getClientIP(r))
			next.ServeHTTP(w, r)
			return
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Infof("%s %s -> %d (%s)", r.Method, r.URL.Path, wrapped.statusCode, getClientIP(r))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr without the port
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Start starts the HTTP server
func (s *Server) Start() error {
	handler := s.setupRoutes()

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Infof("🚀 LyricDeck server starting on %s", addr)
	s.log.Infof("   Database: %s", s.config.DBPath)
	s.log.Infof("   Google Slides: %v", s.config.Google)
	s.log.Infof("   Assistant: %v", s.assistant != nil)
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)
	s.log.Infof("\nEndpoints:")
	s.log.Infof("   GET    /health                      - Health check")
	s.log.Infof("   GET    /api/health/metrics          - Server metrics")
	s.log.Infof("   GET    /api/songs                   - List library songs")
	s.log.Infof("   POST   /api/songs                   - Add or replace song lyrics")
	s.log.Infof("   GET    /api/songs/{id}              - Get song with lyrics")
	s.log.Infof("   DELETE /api/songs/{id}              - Delete song")
	s.log.Infof("   POST   /api/decks                   - Build a lyric deck")
	s.log.Infof("   GET    /api/runs                    - Recent deck builds")
	s.log.Infof("   GET    /api/playlists/preview?url=  - List playlist songs")
	s.log.Infof("   POST   /api/agent                   - Ask the assistant")
	s.log.Infof("   GET    /ws/agent                    - Chat with the assistant")

	return http.ListenAndServe(addr, handler)
}
