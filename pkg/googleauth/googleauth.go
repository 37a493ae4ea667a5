// Package googleauth runs the installed-app OAuth flow for the Google
// Drive, Slides and YouTube APIs and keeps the resulting token on disk.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/slides/v1"
	"google.golang.org/api/youtube/v3"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
)

const (
	DefaultCredentialsFile = "credentials.json"
	DefaultTokenFile       = "token.json"
)

// DefaultScopes covers reading lyric files, writing presentations and
// reading playlist captions.
var DefaultScopes = []string{drive.DriveScope, slides.PresentationsScope, youtube.YoutubeForceSslScope}

// ErrNoToken is returned when no token is stored and there is no way to
// ask the user for an authorization code.
var ErrNoToken = errors.New("no stored Google token and no interactive prompt")

// Config locates the OAuth client secrets and the token cache.
type Config struct {
	CredentialsFile string
	TokenFile       string
	Scopes          []string
	// Prompt shows authURL to the user and returns the authorization code
	// they paste back. Nil disables the interactive flow.
	Prompt func(authURL string) (string, error)
}

// Session is an authorized HTTP client whose refreshed tokens are written
// back to the token file.
type Session struct {
	client *http.Client
	source *persistingSource
}

// Open loads the stored token or, failing that, runs the consent flow
// through cfg.Prompt.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = DefaultCredentialsFile
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = DefaultTokenFile
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}

	secrets, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading client secrets: %w", err)
	}
	conf, err := google.ConfigFromJSON(secrets, cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secrets: %w", err)
	}

	tok, err := loadToken(cfg.TokenFile)
	if err != nil {
		if cfg.Prompt == nil {
			return nil, fmt.Errorf("%w (%v)", ErrNoToken, err)
		}
		tok, err = authorize(ctx, conf, cfg.Prompt)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.TokenFile, tok); err != nil {
			return nil, err
		}
	}

	src := &persistingSource{
		base: conf.TokenSource(ctx, tok),
		path: cfg.TokenFile,
		last: tok.AccessToken,
	}
	return &Session{
		client: oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)),
		source: src,
	}, nil
}

// Client returns the authorized HTTP client.
func (s *Session) Client() *http.Client { return s.client }

// Options returns the client options for google.golang.org/api services.
func (s *Session) Options() []option.ClientOption {
	return []option.ClientOption{option.WithHTTPClient(s.client)}
}

// Close flushes the most recent token to disk.
func (s *Session) Close() error {
	if s == nil || s.source == nil {
		return nil
	}
	return s.source.flush()
}

func authorize(ctx context.Context, conf *oauth2.Config, prompt func(string) (string, error)) (*oauth2.Token, error) {
	state := utils.NewObjectID("state")
	code, err := prompt(conf.AuthCodeURL(state, oauth2.AccessTypeOffline))
	if err != nil {
		return nil, fmt.Errorf("reading authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("empty authorization code")
	}
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tok, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%s holds no token", path)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// persistingSource writes every newly minted token to disk.
type persistingSource struct {
	base oauth2.TokenSource
	path string

	mu      sync.Mutex
	last    string
	pending *oauth2.Token
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := saveToken(p.path, tok); err != nil {
			// Keep it for Close to retry.
			p.pending = tok
		} else {
			p.pending = nil
		}
	}
	return tok, nil
}

func (p *persistingSource) flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return nil
	}
	if err := saveToken(p.path, p.pending); err != nil {
		return err
	}
	p.pending = nil
	return nil
}
