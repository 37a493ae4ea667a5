// Package playlist lists the videos of a YouTube worship playlist so the
// song titles for a service can be confirmed before building a deck.
package playlist

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
)

const DefaultTimeout = 60 * time.Second

// Video is one playlist entry.
type Video struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	// SongTitle is Title with channel names and video decorations removed.
	SongTitle string `json:"song_title"`
	// CaptionSnippet is the start of the video's captions, when available.
	CaptionSnippet string `json:"caption_snippet,omitempty"`
}

// Preview is the listing of a playlist.
type Preview struct {
	PlaylistID string  `json:"playlist_id"`
	Videos     []Video `json:"videos"`
}

// Titles returns the cleaned song titles in playlist order.
func (p *Preview) Titles() []string {
	out := make([]string, 0, len(p.Videos))
	for _, v := range p.Videos {
		if v.SongTitle != "" {
			out = append(out, v.SongTitle)
		}
	}
	return out
}

// Lister fetches the raw entries of a playlist.
type Lister func(ctx context.Context, playlistID string) ([]Video, error)

type Previewer struct {
	timeout  time.Duration
	list     Lister
	captions Captioner
	log      Logger
}

// Logger is the part of the house logger the previewer uses.
type Logger interface {
	Warnf(format string, args ...any)
}

type Option func(*Previewer)

func WithTimeout(d time.Duration) Option {
	return func(p *Previewer) { p.timeout = d }
}

// WithLister replaces the YouTube client, mostly for tests.
func WithLister(l Lister) Option {
	return func(p *Previewer) { p.list = l }
}

// WithCaptions adds a caption snippet to every video.
func WithCaptions(c Captioner) Option {
	return func(p *Previewer) { p.captions = c }
}

func WithLogger(log Logger) Option {
	return func(p *Previewer) { p.log = log }
}

func NewPreviewer(opts ...Option) *Previewer {
	p := &Previewer{timeout: DefaultTimeout, list: listYouTube}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preview lists a playlist given its URL or bare ID.
func (p *Previewer) Preview(ctx context.Context, playlist string) (*Preview, error) {
	id, err := utils.ExtractPlaylistID(playlist)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	videos, err := p.list(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist %s: %w", id, err)
	}
	for i := range videos {
		if videos[i].URL == "" {
			videos[i].URL = fmt.Sprintf(utils.YouTubeVideoURLTemplate, videos[i].ID)
		}
		videos[i].SongTitle = SongTitle(videos[i].Title)
	}
	if err := p.addCaptions(ctx, videos); err != nil {
		return nil, err
	}
	return &Preview{PlaylistID: id, Videos: videos}, nil
}

// addCaptions fills CaptionSnippet. A video whose captions cannot be read
// keeps an empty snippet; only cancellation stops the preview.
func (p *Previewer) addCaptions(ctx context.Context, videos []Video) error {
	if p.captions == nil {
		return nil
	}
	for i := range videos {
		text, err := p.captions(ctx, videos[i].ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("failed to read captions: %w", ctxErr)
			}
			if p.log != nil {
				p.log.Warnf("Skipping captions for %s: %v", videos[i].ID, err)
			}
			continue
		}
		videos[i].CaptionSnippet = Snippet(text)
	}
	return nil
}

func listYouTube(ctx context.Context, playlistID string) ([]Video, error) {
	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}
	videos := make([]Video, 0, len(items))
	for _, it := range items {
		videos = append(videos, Video{ID: it.VideoID, Title: it.Title})
	}
	return videos, nil
}

var (
	bracketed = regexp.MustCompile(`\s*[\(\[【][^\)\]】]*[\)\]】]`)
	trailer   = regexp.MustCompile(`(?i)\s*[-|｜/]\s*(official|lyrics?|live|mv|m/v|cover|audio|worship)\b.*$`)
	// "Artist - Song" is the common channel format; the song is on the right.
	artistSep = regexp.MustCompile(`\s+[-–|｜]\s+`)
)

// SongTitle strips decorations such as "(Official Video)", "[Lyrics]" and a
// leading "Artist - " from a video title.
func SongTitle(videoTitle string) string {
	t := bracketed.ReplaceAllString(videoTitle, "")
	t = trailer.ReplaceAllString(t, "")
	if parts := artistSep.Split(t, -1); len(parts) > 1 {
		t = parts[len(parts)-1]
	}
	return strings.TrimSpace(strings.Trim(t, `"'`))
}
