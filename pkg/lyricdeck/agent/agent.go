// Package agent wires the LLM side of lyricdeck: a lyric retriever that
// searches and translates, a slide creator that drives the deterministic
// deck pipeline, and a root assistant that delegates to both.
package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nlpodyssey/openai-agents-go/agents"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
)

const (
	DefaultModel    = "gpt-4.1-mini"
	DefaultMaxTurns = 12
)

// ErrNoAnswer is returned when an agent run ends without any text output.
var ErrNoAnswer = errors.New("agent returned no answer")

type config struct {
	model    string
	instance agents.Model
	maxTurns uint64
	log      pipeline.Logger
}

type Option func(*config)

// WithModel selects the model by name through the default provider.
func WithModel(name string) Option {
	return func(c *config) { c.model = name }
}

// WithModelInstance uses m directly, bypassing the provider.
func WithModelInstance(m agents.Model) Option {
	return func(c *config) { c.instance = m }
}

func WithMaxTurns(n uint64) Option {
	return func(c *config) { c.maxTurns = n }
}

func WithLogger(log pipeline.Logger) Option {
	return func(c *config) { c.log = log }
}

func newConfig(opts []Option) *config {
	c := &config{model: DefaultModel, maxTurns: DefaultMaxTurns, log: nopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) build(a *agents.Agent) *agents.Agent {
	if c.instance != nil {
		return a.WithModelInstance(c.instance)
	}
	return a.WithModel(c.model)
}

func (c *config) runner() agents.Runner {
	return agents.Runner{Config: agents.RunConfig{MaxTurns: c.maxTurns}}
}

// finalText returns the text answer of a run.
func finalText(res *agents.RunResult) (string, error) {
	if res == nil || res.FinalOutput == nil {
		return "", ErrNoAnswer
	}
	text, ok := res.FinalOutput.(string)
	if !ok {
		text = fmt.Sprint(res.FinalOutput)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoAnswer
	}
	return text, nil
}

// decodeJSON reads the first JSON value in text. Models like to wrap answers
// in markdown fences or a sentence of prose.
func decodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, "{["); i > 0 {
		text = text[i:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	if err := json.NewDecoder(strings.NewReader(text)).Decode(v); err != nil {
		return fmt.Errorf("decoding agent answer: %w", err)
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Debugf(string, ...any) {}
