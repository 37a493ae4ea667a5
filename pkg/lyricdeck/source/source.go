// Package source finds lyrics for song titles.
//
// Each source answers pipeline.Source for one place lyrics can live: text
// the user supplied, the local library, a Drive folder, or an LLM agent. A
// Chain tries them in order, fills a missing language through a Translator
// and writes what it found back to the library.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
)

// Retriever looks lyrics up outside the library, e.g. by asking an agent.
type Retriever interface {
	Retrieve(ctx context.Context, title string) (*Retrieved, error)
}

// Retrieved is raw lyric text returned by a Retriever. Either side may be
// empty. Translated is set when one side was machine translated.
type Retrieved struct {
	Title      string `json:"title"`
	English    string `json:"english"`
	Korean     string `json:"korean"`
	Translated bool   `json:"translated"`
}

// Translator produces the missing language for a song, one output line per
// input line.
type Translator interface {
	Translate(ctx context.Context, title string, lines []pipeline.LyricLine, to pipeline.Language) ([]string, error)
}

// Named pairs a source with the name used in logs.
type Named struct {
	Name   string
	Source pipeline.Source
}

// Chain tries its sources in order. A source reporting ErrSourceNotFound or
// any other error passes the title on to the next one.
type Chain struct {
	sources    []Named
	translator Translator
	library    Library
	log        pipeline.Logger
}

type ChainOption func(*Chain)

// WithTranslator fills a missing track by translating the other one.
func WithTranslator(t Translator) ChainOption {
	return func(c *Chain) { c.translator = t }
}

// WithRemember saves songs found by non-library sources into lib.
func WithRemember(lib Library) ChainOption {
	return func(c *Chain) { c.library = lib }
}

func WithLogger(log pipeline.Logger) ChainOption {
	return func(c *Chain) { c.log = log }
}

func NewChain(sources []Named, opts ...ChainOption) *Chain {
	c := &Chain{sources: sources, log: nopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the first complete song any source has. A song found with
// only one language is completed by the translator when one is configured;
// otherwise it is reported as not found for the missing language.
func (c *Chain) Lookup(ctx context.Context, title string) (*pipeline.Song, error) {
	var (
		partial     *pipeline.Song
		partialFrom string
		errs        []error
	)

	for _, s := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		song, err := s.Source.Lookup(ctx, title)
		if err != nil {
			if !errors.Is(err, pipeline.ErrSourceNotFound) {
				c.log.Warnf("%s lookup for %q failed: %v", s.Name, title, err)
				errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			}
			continue
		}
		if song == nil || (len(song.English) == 0 && len(song.Korean) == 0) {
			continue
		}
		if len(song.English) > 0 && len(song.Korean) > 0 {
			c.log.Debugf("Found %q in %s", title, s.Name)
			c.remember(title, s.Name, song)
			return song, nil
		}
		if partial == nil {
			partial, partialFrom = song, s.Name
		}
	}

	if partial == nil {
		return nil, errors.Join(append([]error{&pipeline.SourceNotFoundError{Title: title}}, errs...)...)
	}

	missing := pipeline.English
	have := partial.Korean
	if len(partial.English) > 0 {
		missing, have = pipeline.Korean, partial.English
	}
	if c.translator == nil {
		return nil, &pipeline.SourceNotFoundError{Title: title, Language: missing}
	}

	translated, err := c.translate(ctx, partial.Title, have, missing)
	if err != nil {
		return nil, errors.Join(&pipeline.SourceNotFoundError{Title: title, Language: missing}, err)
	}

	song := &pipeline.Song{Title: partial.Title, Origin: pipeline.OriginTranslated}
	if missing == pipeline.English {
		song.English, song.Korean = translated, partial.Korean
	} else {
		song.English, song.Korean = partial.English, translated
	}
	c.log.Infof("Translated %s lyrics for %q (found in %s)", missing, title, partialFrom)
	c.remember(title, partialFrom, song)
	return song, nil
}

// translate keeps the layout of the source track: line i of the result has
// the Role and Section of line i of have.
func (c *Chain) translate(ctx context.Context, title string, have []pipeline.LyricLine, to pipeline.Language) ([]pipeline.LyricLine, error) {
	texts, err := c.translator.Translate(ctx, title, have, to)
	if err != nil {
		return nil, fmt.Errorf("translating %q: %w", title, err)
	}
	if len(texts) != len(have) {
		return nil, fmt.Errorf("translating %q: got %d lines for %d", title, len(texts), len(have))
	}
	out := make([]pipeline.LyricLine, len(have))
	for i, l := range have {
		text := strings.TrimSpace(texts[i])
		if text == "" {
			return nil, fmt.Errorf("translating %q: line %d came back empty", title, i)
		}
		if strings.ContainsAny(text, "\r\n") {
			return nil, fmt.Errorf("translating %q: line %d came back as several lines", title, i)
		}
		out[i] = pipeline.LyricLine{Text: text, Language: to, Role: l.Role, Section: l.Section, Index: l.Index}
	}
	return out, nil
}

// remember stores a remote song only when it pairs up; a song the pipeline
// would reject stays out so the next run asks its source again.
func (c *Chain) remember(title, from string, song *pipeline.Song) {
	if c.library == nil || from == LibraryName {
		return
	}
	pairs, err := pipeline.Reconcile(title, song.English, song.Korean)
	if err == nil {
		_, err = pipeline.Partition(title, pairs)
	}
	if err != nil {
		c.log.Warnf("Not saving %q from %s: %v", title, from, err)
		return
	}
	err = c.library.SaveLyrics(title, StoredLyrics{
		Title:   song.Title,
		English: pipeline.FormatTrack(song.English),
		Korean:  pipeline.FormatTrack(song.Korean),
		Origin:  song.Origin,
	})
	if err != nil {
		c.log.Warnf("Could not save %q to the library: %v", title, err)
	}
}

// songFromText builds a song from raw text, reporting not found when the
// text has no lyric lines at all.
func songFromText(title string, origin pipeline.Origin, english, korean string) (*pipeline.Song, error) {
	song := &pipeline.Song{Title: title, Origin: origin}
	switch {
	case english != "" && korean != "":
		song.English = pipeline.ParseTrack(english, pipeline.English)
		song.Korean = pipeline.ParseTrack(korean, pipeline.Korean)
	case english != "":
		song.English, song.Korean = pipeline.TracksFromText(english)
	case korean != "":
		song.English, song.Korean = pipeline.TracksFromText(korean)
	}
	if len(song.English) == 0 && len(song.Korean) == 0 {
		return nil, &pipeline.SourceNotFoundError{Title: title}
	}
	return song, nil
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}
