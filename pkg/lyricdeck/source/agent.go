package source

import (
	"context"
	"fmt"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
)

// AgentSource asks a Retriever (usually the lyric retrieval agent) for a
// song. Text marked as translated keeps the translated origin.
type AgentSource struct {
	retriever Retriever
}

func NewAgentSource(r Retriever) *AgentSource {
	return &AgentSource{retriever: r}
}

func (s *AgentSource) Lookup(ctx context.Context, title string) (*pipeline.Song, error) {
	got, err := s.retriever.Retrieve(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("retrieving %q: %w", title, err)
	}
	if got == nil {
		return nil, &pipeline.SourceNotFoundError{Title: title}
	}

	name := got.Title
	if name == "" {
		name = title
	}
	origin := pipeline.OriginStorage
	if got.Translated {
		origin = pipeline.OriginTranslated
	}
	return songFromText(name, origin, got.English, got.Korean)
}
