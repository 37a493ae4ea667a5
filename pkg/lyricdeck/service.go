// Package lyricdeck builds bilingual worship-lyric presentations and keeps
// the lyric library they are built from.
package lyricdeck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/logger"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/playlist"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/render"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/source"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/models"
)

// deckService is the default implementation of the Service interface.
type deckService struct {
	storage Storage
	library *libraryAdapter
	log     Logger
	config  *Config
	now     func() time.Time
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	// Create or use provided storage
	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}
	if cfg.Previewer == nil {
		cfg.Previewer = playlist.NewPreviewer()
	}

	return &deckService{
		storage: stor,
		library: &libraryAdapter{store: stor, log: cfg.Logger},
		log:     cfg.Logger,
		config:  cfg,
		now:     time.Now,
	}, nil
}

// BuildDeck finds lyrics for every requested title, pairs them into slides
// and renders the deck. Every call is recorded as a run, including failed
// ones. A run with no usable songs returns a result and an error matching
// pipeline.ErrEmptyDeck.
func (s *deckService) BuildDeck(ctx context.Context, req DeckRequest) (*DeckResult, error) {
	start := s.now()
	titles := cleanTitles(req.Titles)

	tmpl := pipeline.TemplateFor(start.Weekday())
	if req.Template != "" {
		var err error
		if tmpl, err = pipeline.ParseTemplate(req.Template, start); err != nil {
			return nil, err
		}
	}

	p := &pipeline.Pipeline{
		Source:   s.chain(req.Lyrics),
		Renderer: s.renderer(req.DryRun),
		Logger:   s.log,
	}
	s.log.Infof("Building %s deck for %d songs", tmpl, len(titles))

	res, runErr := p.Run(ctx, pipeline.RunInput{Titles: titles, Template: tmpl})

	out := &DeckResult{Template: tmpl, Status: runStatus(runErr)}
	if res != nil {
		out.Locator = res.Locator
		out.Slides = len(res.Deck)
		out.Songs = res.Songs
		out.Deck = res.Deck
		out.Failures = songFailures(res.Failures)
	} else {
		var empty *pipeline.EmptyDeckError
		if errors.As(runErr, &empty) {
			out.Failures = songFailures(empty.Failures)
		}
	}

	run := &models.Run{
		Titles:     titles,
		Template:   tmpl.String(),
		Status:     out.Status,
		Locator:    out.Locator,
		Slides:     out.Slides,
		Failures:   out.Failures,
		DurationMs: s.now().Sub(start).Milliseconds(),
	}
	if runErr != nil && len(out.Failures) == 0 {
		run.Failures = []models.SongFailure{{Error: runErr.Error()}}
	}
	if err := s.storage.RecordRun(run); err != nil {
		s.log.Warnf("Failed to record run: %v", err)
	}
	out.RunID = run.ID

	if runErr != nil {
		s.log.Warnf("Deck build %s: %v", out.Status, runErr)
		return out, runErr
	}
	s.log.Infof("Rendered %d slides to %s", out.Slides, out.Locator)
	return out, nil
}

// chain orders sources as: lyrics from the request, the library, then the
// configured remote sources.
func (s *deckService) chain(user []source.UserLyrics) *source.Chain {
	var named []source.Named
	if len(user) > 0 {
		named = append(named, source.Named{Name: "request", Source: source.NewUserSource(user...)})
	}
	named = append(named, source.Named{Name: source.LibraryName, Source: source.NewLibrarySource(s.library)})
	named = append(named, s.config.Sources...)

	opts := []source.ChainOption{source.WithRemember(s.library), source.WithLogger(s.log)}
	if s.config.Translator != nil {
		opts = append(opts, source.WithTranslator(s.config.Translator))
	}
	return source.NewChain(named, opts...)
}

func (s *deckService) renderer(dryRun bool) pipeline.Renderer {
	if dryRun || s.config.Renderer == nil {
		return render.NewFileRenderer(s.config.OutputDir)
	}
	return s.config.Renderer
}

// AddSong stores lyrics given by the user, replacing any stored copy. Both
// languages are required and must pair up into slides.
func (s *deckService) AddSong(ctx context.Context, in models.SongInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return "", errors.New("song title is required")
	}

	var english, korean []pipeline.LyricLine
	switch {
	case in.English != "" && in.Korean != "":
		english = pipeline.ParseTrack(in.English, pipeline.English)
		korean = pipeline.ParseTrack(in.Korean, pipeline.Korean)
	default:
		english, korean = pipeline.TracksFromText(in.English + in.Korean)
	}
	if len(english) == 0 {
		return "", &pipeline.SourceNotFoundError{Title: in.Title, Language: pipeline.English}
	}
	if len(korean) == 0 {
		return "", &pipeline.SourceNotFoundError{Title: in.Title, Language: pipeline.Korean}
	}

	pairs, err := pipeline.Reconcile(in.Title, english, korean)
	if err != nil {
		return "", err
	}
	if _, err := pipeline.Partition(in.Title, pairs); err != nil {
		return "", err
	}

	in.English = pipeline.FormatTrack(english)
	in.Korean = pipeline.FormatTrack(korean)
	if in.Origin == "" {
		in.Origin = string(pipeline.OriginUser)
	}

	songID, err := s.storage.RegisterSong(in)
	if err != nil {
		return "", fmt.Errorf("failed to register song: %w", err)
	}
	// RegisterSong keeps existing lyrics; an explicit add replaces them.
	if err := s.storage.UpdateLyrics(songID, in); err != nil {
		return "", fmt.Errorf("failed to store lyrics: %w", err)
	}
	if len(in.Aliases) > 0 {
		if err := s.storage.AddAliases(songID, in.Aliases...); err != nil {
			return "", fmt.Errorf("failed to add aliases: %w", err)
		}
	}

	s.log.Infof("Stored %q (%d slides) as %s", in.Title, len(pairs), songID)
	return songID, nil
}

// GetSongByID retrieves a song by its library ID.
func (s *deckService) GetSongByID(songID string) (*models.Song, error) {
	return s.storage.GetSongByID(songID)
}

// ListSongs returns the library ordered by title.
func (s *deckService) ListSongs() ([]models.Song, error) {
	return s.storage.ListSongs()
}

// DeleteSong removes a song and its aliases.
func (s *deckService) DeleteSong(songID string) error {
	return s.storage.DeleteSongByID(songID)
}

// ListRuns returns recent runs, newest first. limit <= 0 returns all.
func (s *deckService) ListRuns(limit int) ([]models.Run, error) {
	return s.storage.ListRuns(limit)
}

func (s *deckService) PreviewPlaylist(ctx context.Context, ref string) (*playlist.Preview, error) {
	return s.config.Previewer.Preview(ctx, ref)
}

// Close releases all resources held by the service.
func (s *deckService) Close() error {
	return s.storage.Close()
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return models.RunRendered
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.RunCancelled
	case errors.Is(err, pipeline.ErrEmptyDeck):
		return models.RunEmpty
	default:
		return models.RunFailed
	}
}

func songFailures(failures []pipeline.SongFailure) []models.SongFailure {
	if len(failures) == 0 {
		return nil
	}
	out := make([]models.SongFailure, len(failures))
	for i, f := range failures {
		out[i] = models.SongFailure{Title: f.Title, Error: f.Err.Error()}
	}
	return out
}

func cleanTitles(titles []string) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
