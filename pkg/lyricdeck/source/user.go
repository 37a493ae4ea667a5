package source

import (
	"context"
	"strings"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
)

// UserLyrics is lyric text supplied with a request. English may hold
// interleaved bilingual text when Korean is empty, and the other way round.
type UserLyrics struct {
	Title   string `json:"title"`
	English string `json:"english,omitempty"`
	Korean  string `json:"korean,omitempty"`
}

// UserSource serves lyrics provided for a single run.
type UserSource struct {
	songs map[string]UserLyrics
}

func NewUserSource(entries ...UserLyrics) *UserSource {
	s := &UserSource{songs: make(map[string]UserLyrics, len(entries))}
	for _, e := range entries {
		s.songs[utils.NormalizeTitle(e.Title)] = e
	}
	return s
}

func (s *UserSource) Len() int { return len(s.songs) }

func (s *UserSource) Lookup(_ context.Context, title string) (*pipeline.Song, error) {
	e, ok := s.songs[utils.NormalizeTitle(title)]
	if !ok {
		return nil, &pipeline.SourceNotFoundError{Title: title}
	}
	return songFromText(strings.TrimSpace(title), pipeline.OriginUser, e.English, e.Korean)
}
