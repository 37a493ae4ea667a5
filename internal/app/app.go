// Package app assembles the lyricdeck service, its lyric sources and the
// assistant from process configuration. Both binaries build through it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/slides/v1"
	"google.golang.org/api/youtube/v3"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/googleauth"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/logger"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/agent"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/playlist"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/render"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/source"
)

// Config is everything the binaries read from flags and the environment.
type Config struct {
	DBPath    string
	OutputDir string

	// Offline skips Google entirely; decks are written as JSON files.
	Offline         bool
	CredentialsFile string
	TokenFile       string
	// Prompt runs the OAuth consent flow when no token is stored.
	Prompt         func(authURL string) (string, error)
	DriveFolderID  string
	SlidesFolderID string
	TemplateIDs    map[pipeline.Template]string
	Chooser        source.Chooser

	// OpenAIKey enables the agents. The key itself is read by the agents
	// SDK from OPENAI_API_KEY.
	OpenAIKey    string
	Model        string
	AnthropicKey string
	ClaudeModel  string

	// MemoSize bounds the cached lookups per remote source.
	MemoSize int64

	Logger *logger.Logger
}

// App holds the assembled service. Assistant is nil when no model is
// configured.
type App struct {
	Service   lyricdeck.Service
	Assistant *agent.Orchestrator
	Google    bool

	session *googleauth.Session
	memos   []*source.Memo
	log     *logger.Logger
}

func Build(ctx context.Context, cfg Config) (*App, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	a := &App{log: cfg.Logger}

	store, err := lyricdeck.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	library := lyricdeck.NewLibrary(store, cfg.Logger)

	opts := []lyricdeck.Option{
		lyricdeck.WithStorage(store),
		lyricdeck.WithLogger(cfg.Logger),
		lyricdeck.WithOutputDir(cfg.OutputDir),
	}
	previewOpts := []playlist.Option{playlist.WithLogger(cfg.Logger)}

	// 1. Google Drive lyrics, Slides rendering and playlist captions
	var drives []source.Named
	if !cfg.Offline {
		g, err := a.openGoogle(ctx, cfg)
		if err != nil {
			a.Close()
			store.Close()
			return nil, err
		}
		if g != nil {
			drives = append(drives, source.Named{Name: "drive", Source: g.lyrics})
			opts = append(opts, lyricdeck.WithSource("drive", g.lyrics), lyricdeck.WithRenderer(g.renderer))
			previewOpts = append(previewOpts, playlist.WithCaptions(g.captions))
		}
	}
	previewer := playlist.NewPreviewer(previewOpts...)
	opts = append(opts, lyricdeck.WithPreviewer(previewer))

	// 2. Lyric retrieval agent and translators
	agentOpts := []agent.Option{agent.WithLogger(cfg.Logger)}
	if cfg.Model != "" {
		agentOpts = append(agentOpts, agent.WithModel(cfg.Model))
	}
	var retriever *agent.LyricRetriever
	if cfg.OpenAIKey != "" {
		lookup := source.NewChain(
			append([]source.Named{{Name: source.LibraryName, Source: source.NewLibrarySource(library)}}, drives...),
			source.WithLogger(cfg.Logger),
		)
		retriever = agent.NewLyricRetriever(lookup, previewer, agentOpts...)
		memo, err := a.memo(source.NewAgentSource(retriever), cfg.MemoSize)
		if err != nil {
			a.Close()
			store.Close()
			return nil, err
		}
		opts = append(opts, lyricdeck.WithSource("agent", memo), lyricdeck.WithTranslator(retriever))
	}
	// Claude takes over translation when both keys are set.
	if cfg.AnthropicKey != "" {
		opts = append(opts, lyricdeck.WithTranslator(agent.NewClaudeTranslator(cfg.ClaudeModel, option.WithAPIKey(cfg.AnthropicKey))))
	}

	// 3. Service and assistant
	svc, err := lyricdeck.NewService(opts...)
	if err != nil {
		a.Close()
		store.Close()
		return nil, err
	}
	a.Service = svc
	if retriever != nil {
		a.Assistant = agent.NewOrchestrator(retriever, agent.NewSlideCreator(svc, agentOpts...), agentOpts...)
	}
	return a, nil
}

// googleServices are the collaborators backed by the Google session.
type googleServices struct {
	lyrics   pipeline.Source
	renderer pipeline.Renderer
	captions playlist.Captioner
}

// openGoogle returns the memoised Drive source, the Slides renderer and the
// caption reader, or nil when no token is stored and the consent flow
// cannot run.
func (a *App) openGoogle(ctx context.Context, cfg Config) (*googleServices, error) {
	sess, err := googleauth.Open(ctx, googleauth.Config{
		CredentialsFile: cfg.CredentialsFile,
		TokenFile:       cfg.TokenFile,
		Prompt:          cfg.Prompt,
	})
	if errors.Is(err, googleauth.ErrNoToken) {
		a.log.Warnf("Google access disabled: %v", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to authorize Google access: %w", err)
	}
	a.session = sess

	driveSvc, err := drive.NewService(ctx, sess.Options()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive client: %w", err)
	}
	slidesSvc, err := slides.NewService(ctx, sess.Options()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Slides client: %w", err)
	}
	youtubeSvc, err := youtube.NewService(ctx, sess.Options()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	driveOpts := []source.DriveOption{}
	if cfg.DriveFolderID != "" {
		driveOpts = append(driveOpts, source.WithFolder(cfg.DriveFolderID))
	}
	if cfg.Chooser != nil {
		driveOpts = append(driveOpts, source.WithChooser(cfg.Chooser))
	}
	driveSrc, err := a.memo(source.NewDriveSource(driveSvc, driveOpts...), cfg.MemoSize)
	if err != nil {
		return nil, err
	}

	renderOpts := []render.SlidesOption{render.WithLogger(a.log)}
	if cfg.SlidesFolderID != "" {
		renderOpts = append(renderOpts, render.WithTargetFolder(cfg.SlidesFolderID))
	}
	if len(cfg.TemplateIDs) > 0 {
		renderOpts = append(renderOpts, render.WithTemplates(cfg.TemplateIDs))
	}
	a.Google = true
	return &googleServices{
		lyrics:   driveSrc,
		renderer: render.NewSlidesRenderer(driveSvc, slidesSvc, renderOpts...),
		captions: playlist.YouTubeCaptions(youtubeSvc),
	}, nil
}

func (a *App) memo(src pipeline.Source, size int64) (*source.Memo, error) {
	m, err := source.NewMemo(src, size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}
	a.memos = append(a.memos, m)
	return m, nil
}

// Close releases the service, caches and Google session.
func (a *App) Close() error {
	var errs []error
	if a.Service != nil {
		errs = append(errs, a.Service.Close())
	}
	for _, m := range a.memos {
		m.Close()
	}
	errs = append(errs, a.session.Close())
	return errors.Join(errs...)
}
