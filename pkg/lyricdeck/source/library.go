package source

import (
	"context"
	"fmt"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
)

// LibraryName is the Named.Name of the library source; songs it returns are
// not saved back.
const LibraryName = "library"

// StoredLyrics is a library record in raw-text form.
type StoredLyrics struct {
	Title       string
	English     string
	Korean      string
	Origin      pipeline.Origin
	DriveFileID string
}

// Library is the persistent lyric store. FindLyrics returns nil, nil when
// nothing is stored under the title.
type Library interface {
	FindLyrics(title string) (*StoredLyrics, error)
	SaveLyrics(title string, lyrics StoredLyrics) error
}

// LibrarySource serves songs from a Library.
type LibrarySource struct {
	lib Library
}

func NewLibrarySource(lib Library) *LibrarySource {
	return &LibrarySource{lib: lib}
}

func (s *LibrarySource) Lookup(_ context.Context, title string) (*pipeline.Song, error) {
	stored, err := s.lib.FindLyrics(title)
	if err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}
	if stored == nil {
		return nil, &pipeline.SourceNotFoundError{Title: title}
	}
	song, err := songFromText(stored.Title, pipeline.OriginStorage, stored.English, stored.Korean)
	if err != nil {
		return nil, err
	}
	// Translated songs keep their origin so a reviewer knows to check them.
	if stored.Origin == pipeline.OriginTranslated {
		song.Origin = pipeline.OriginTranslated
	}
	return song, nil
}
