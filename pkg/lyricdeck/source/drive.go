package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
)

const (
	mimePlainText = "text/plain"
	mimeGoogleDoc = "application/vnd.google-apps.document"

	// DefaultLyricsFolderID is the shared Drive folder holding lyric files.
	DefaultLyricsFolderID = "1hiSf6DSAO2RIv7ZCT7ltU8uBYQFvaOQu"

	maxLyricFileBytes = 1 << 20
)

// DriveFile is one search hit in the lyrics folder.
type DriveFile struct {
	ID       string
	Name     string
	MimeType string
}

// Chooser picks one of several search hits. Returning -1 means none fits.
type Chooser func(title string, candidates []DriveFile) (int, error)

// DriveSource searches a Google Drive folder for lyric files named after
// the song.
type DriveSource struct {
	files    *drive.FilesService
	folderID string
	choose   Chooser
}

type DriveOption func(*DriveSource)

func WithFolder(id string) DriveOption {
	return func(s *DriveSource) { s.folderID = id }
}

// WithChooser resolves ambiguous searches, e.g. by prompting in the CLI.
func WithChooser(c Chooser) DriveOption {
	return func(s *DriveSource) { s.choose = c }
}

func NewDriveSource(svc *drive.Service, opts ...DriveOption) *DriveSource {
	s := &DriveSource{files: svc.Files, folderID: DefaultLyricsFolderID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DriveSource) Lookup(ctx context.Context, title string) (*pipeline.Song, error) {
	term := utils.SearchTerm(title)
	if term == "" {
		return nil, &pipeline.SourceNotFoundError{Title: title}
	}

	hits, err := s.search(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, &pipeline.SourceNotFoundError{Title: title}
	}

	file, err := s.pick(title, hits)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, &pipeline.SourceNotFoundError{Title: title}
	}

	text, err := s.read(ctx, *file)
	if err != nil {
		return nil, err
	}
	english, korean := pipeline.TracksFromText(text)
	if len(english) == 0 && len(korean) == 0 {
		return nil, &pipeline.SourceNotFoundError{Title: title}
	}
	return &pipeline.Song{
		Title:   strings.TrimSpace(title),
		Origin:  pipeline.OriginStorage,
		English: english,
		Korean:  korean,
	}, nil
}

func (s *DriveSource) search(ctx context.Context, term string) ([]DriveFile, error) {
	q := fmt.Sprintf("name contains '%s' and trashed=false", escapeQuery(term))
	if s.folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(s.folderID))
	}

	list, err := s.files.List().
		Q(q).
		Spaces("drive").
		Fields("files(id, name, mimeType)").
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("searching drive for %q: %w", term, err)
	}

	hits := make([]DriveFile, 0, len(list.Files))
	for _, f := range list.Files {
		if f.MimeType != mimePlainText && f.MimeType != mimeGoogleDoc {
			continue
		}
		hits = append(hits, DriveFile{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
	}
	return hits, nil
}

// pick prefers a file whose name matches the title exactly (ignoring case,
// punctuation and extension), then the chooser, then the first hit.
func (s *DriveSource) pick(title string, hits []DriveFile) (*DriveFile, error) {
	want := utils.NormalizeTitle(title)
	for i := range hits {
		name := strings.TrimSuffix(hits[i].Name, ".txt")
		if utils.NormalizeTitle(name) == want {
			return &hits[i], nil
		}
	}
	if len(hits) == 1 || s.choose == nil {
		return &hits[0], nil
	}

	idx, err := s.choose(title, hits)
	if err != nil {
		return nil, fmt.Errorf("choosing lyric file for %q: %w", title, err)
	}
	if idx < 0 || idx >= len(hits) {
		return nil, nil
	}
	return &hits[idx], nil
}

func (s *DriveSource) read(ctx context.Context, f DriveFile) (string, error) {
	var (
		resp *http.Response
		err  error
	)
	if f.MimeType == mimeGoogleDoc {
		resp, err = s.files.Export(f.ID, mimePlainText).Context(ctx).Download()
	} else {
		resp, err = s.files.Get(f.ID).Context(ctx).Download()
	}
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", f.Name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLyricFileBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
