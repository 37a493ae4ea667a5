package playlist

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"google.golang.org/api/youtube/v3"
)

// SnippetRunes is how much caption text a preview shows per video.
const SnippetRunes = 300

// Captioner returns the caption text of a video, or "" when it has none.
type Captioner func(ctx context.Context, videoID string) (string, error)

var captionText = regexp.MustCompile(`(?s)<text[^>]*>(.*?)</text>`)

// YouTubeCaptions reads the first caption track of a video through the
// YouTube Data API in the srv1 (XML) format.
func YouTubeCaptions(svc *youtube.Service) Captioner {
	return func(ctx context.Context, videoID string) (string, error) {
		list, err := svc.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to list captions: %w", err)
		}
		if len(list.Items) == 0 {
			return "", nil
		}

		resp, err := svc.Captions.Download(list.Items[0].Id).Tfmt("srv1").Context(ctx).Download()
		if err != nil {
			return "", fmt.Errorf("failed to download captions: %w", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read captions: %w", err)
		}

		var parts []string
		for _, m := range captionText.FindAllStringSubmatch(string(body), -1) {
			if t := strings.TrimSpace(html.UnescapeString(m[1])); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, " "), nil
	}
}

// Snippet cuts caption text to SnippetRunes runes, marking a cut with "...".
func Snippet(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= SnippetRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:SnippetRunes])) + "..."
}
