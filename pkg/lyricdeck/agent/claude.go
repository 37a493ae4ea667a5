package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
)

const (
	DefaultClaudeModel     = "claude-sonnet-4-5"
	claudeMaxTokens  int64 = 4096
)

// ClaudeTranslator translates lyric lines with a single Messages call. It
// is the translator used when an Anthropic key is configured.
type ClaudeTranslator struct {
	client anthropic.Client
	model  string
}

func NewClaudeTranslator(model string, opts ...option.RequestOption) *ClaudeTranslator {
	if model == "" {
		model = DefaultClaudeModel
	}
	return &ClaudeTranslator{client: anthropic.NewClient(opts...), model: model}
}

func (t *ClaudeTranslator) Translate(ctx context.Context, title string, lines []pipeline.LyricLine, to pipeline.Language) ([]string, error) {
	prompt, err := translationPrompt(title, lines, to)
	if err != nil {
		return nil, err
	}

	msg, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(t.model),
		MaxTokens: claudeMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: translatorInstructions}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("translating %q: %w", title, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, ErrNoAnswer
	}
	return parseTranslation(text.String(), len(lines))
}
