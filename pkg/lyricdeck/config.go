package lyricdeck

import (
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/playlist"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/source"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/storage"
)

type Config struct {
	DBPath     string
	OutputDir  string
	Logger     Logger
	Storage    Storage
	Sources    []source.Named
	Translator source.Translator
	Renderer   pipeline.Renderer
	Previewer  *playlist.Previewer
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithOutputDir sets where dry runs (and runs without a renderer) write
// their JSON decks.
func WithOutputDir(dir string) Option {
	return func(c *Config) {
		c.OutputDir = dir
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithSource adds a lyric source consulted after user lyrics and the
// library, in the order the options are given.
func WithSource(name string, src pipeline.Source) Option {
	return func(c *Config) {
		c.Sources = append(c.Sources, source.Named{Name: name, Source: src})
	}
}

func WithTranslator(t source.Translator) Option {
	return func(c *Config) {
		c.Translator = t
	}
}

func WithRenderer(r pipeline.Renderer) Option {
	return func(c *Config) {
		c.Renderer = r
	}
}

func WithPreviewer(p *playlist.Previewer) Option {
	return func(c *Config) {
		c.Previewer = p
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:    storage.DefaultDBFile,
		OutputDir: "decks",
		Logger:    nil,
	}
}
