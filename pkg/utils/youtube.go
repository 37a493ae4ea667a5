package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// YouTubeVideoURLTemplate builds a watch URL from a video ID.
const YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"

var playlistIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)

// ExtractPlaylistID returns the playlist ID from a playlist or watch URL
// ("...?list=PL..."). A bare playlist ID is returned unchanged.
func ExtractPlaylistID(playlist string) (string, error) {
	playlist = strings.TrimSpace(playlist)
	if playlist == "" {
		return "", fmt.Errorf("empty playlist reference")
	}

	if !strings.Contains(playlist, "/") && !strings.Contains(playlist, "=") {
		if playlistIDPattern.MatchString(playlist) {
			return playlist, nil
		}
		return "", fmt.Errorf("invalid playlist ID: %s", playlist)
	}

	u, err := url.Parse(playlist)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Host != "" && !IsYouTubeURL(playlist) {
		return "", fmt.Errorf("not a YouTube URL: %s", playlist)
	}

	if id := u.Query().Get("list"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no playlist ID found in URL: %s", playlist)
}

func IsYouTubeURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Host)
	return strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be")
}
