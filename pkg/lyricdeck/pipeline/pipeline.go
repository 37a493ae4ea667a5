package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source supplies both lyric tracks for a title. A title that cannot be found
// is reported with an error matching ErrSourceNotFound.
type Source interface {
	Lookup(ctx context.Context, title string) (*Song, error)
}

// Renderer turns a finished deck into a presentation and returns a locator
// (URL or path) for it.
type Renderer interface {
	Render(ctx context.Context, deck Deck, tmpl Template) (string, error)
}

// Logger is the subset of the house logger the pipeline writes to.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

// RunInput is one request: song titles in presentation order and the
// template to render into. An empty Template is resolved from today's date.
type RunInput struct {
	Titles   []string
	Template Template
}

// SongSummary describes a song that made it into the deck.
type SongSummary struct {
	Title  string `json:"title"`
	Origin Origin `json:"origin"`
	Slides int    `json:"slides"`
}

// RunResult is the outcome of a successful run. Failures lists the songs that
// were left out; the deck holds everything else.
type RunResult struct {
	Locator  string
	Template Template
	Deck     Deck
	Songs    []SongSummary
	Failures []SongFailure
}

// Err joins the per-song failures, or returns nil when every song made it.
func (r *RunResult) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Pipeline wires a Source and a Renderer around the pairing stages.
type Pipeline struct {
	Source   Source
	Renderer Renderer
	Logger   Logger
}

// Run processes the titles in order, one at a time.
//
// Songs that cannot be found or whose tracks do not line up are skipped and
// reported in RunResult.Failures. A capacity violation aborts the run. When no
// song survives Run returns an EmptyDeckError. The renderer is called once,
// after the whole deck is assembled, and never when the context is cancelled
// first.
func (p *Pipeline) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if p.Source == nil || p.Renderer == nil {
		return nil, errors.New("pipeline needs both a source and a renderer")
	}
	log := p.Logger
	if log == nil {
		log = nopLogger{}
	}

	tmpl := in.Template
	if tmpl == "" {
		tmpl = TemplateFor(time.Now().Weekday())
	}

	result := &RunResult{Template: tmpl}
	prepared := make([]SongPairs, 0, len(in.Titles))

	for _, raw := range in.Titles {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled before rendering: %w", err)
		}
		title := strings.TrimSpace(raw)
		if title == "" {
			continue
		}

		song, pairs, err := p.prepare(ctx, title)
		if err != nil {
			if errors.Is(err, ErrCapacityExceeded) {
				return nil, err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("run cancelled before rendering: %w", ctxErr)
			}
			log.Warnf("Skipping %q: %v", title, err)
			result.Failures = append(result.Failures, SongFailure{Title: title, Err: err})
			continue
		}

		log.Debugf("Prepared %q: %d slides (%s)", title, len(pairs), song.Origin)
		prepared = append(prepared, SongPairs{Title: title, Pairs: pairs})
		result.Songs = append(result.Songs, SongSummary{Title: title, Origin: song.Origin, Slides: len(pairs)})
	}

	if len(prepared) == 0 {
		return nil, &EmptyDeckError{Failures: result.Failures}
	}

	deck := Assemble(prepared)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled before rendering: %w", err)
	}

	log.Infof("Rendering %d slides from %d songs with the %s template", len(deck), len(prepared), tmpl)
	locator, err := p.Renderer.Render(ctx, deck, tmpl)
	if err != nil {
		return nil, &RenderingError{Err: err}
	}

	result.Locator = locator
	result.Deck = deck
	return result, nil
}

func (p *Pipeline) prepare(ctx context.Context, title string) (*Song, []LinePair, error) {
	song, err := p.Source.Lookup(ctx, title)
	if err != nil {
		return nil, nil, err
	}
	if song == nil {
		return nil, nil, &SourceNotFoundError{Title: title}
	}

	pairs, err := Reconcile(title, song.English, song.Korean)
	if err != nil {
		return nil, nil, err
	}
	if len(pairs) == 0 {
		return nil, nil, &SourceNotFoundError{Title: title}
	}

	pairs, err = Partition(title, pairs)
	if err != nil {
		return nil, nil, err
	}
	return song, pairs, nil
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}
