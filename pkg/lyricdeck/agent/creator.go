package agent

import (
	"context"
	"errors"

	"github.com/nlpodyssey/openai-agents-go/agents"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/models"
)

const creatorInstructions = `You create the lyric slide presentation for a church service.
Call create_presentation once with the song titles in service order and the template ("sunday", "friday", or "" for today's service).
Report the presentation link, the number of slides, and every song that failed with its reason. Never claim a song is in the deck when it failed.`

// DeckBuilder is the part of lyricdeck.Service the slide creator needs.
type DeckBuilder interface {
	BuildDeck(ctx context.Context, req lyricdeck.DeckRequest) (*lyricdeck.DeckResult, error)
}

// SlideCreator runs the slide creation agent. Its only tool goes through
// the deck pipeline, so every deck it produces passes the capacity check.
type SlideCreator struct {
	agent  *agents.Agent
	runner agents.Runner
}

func NewSlideCreator(builder DeckBuilder, opts ...Option) *SlideCreator {
	cfg := newConfig(opts)
	return &SlideCreator{
		agent: cfg.build(agents.New("SlideCreatorAgent").
			WithInstructions(creatorInstructions).
			WithHandoffDescription("Builds the Google Slides deck for a list of songs.").
			WithTools(createPresentationTool(builder, cfg))),
		runner: cfg.runner(),
	}
}

func (c *SlideCreator) Agent() *agents.Agent { return c.agent }

type createPresentationArgs struct {
	Titles   []string `json:"titles"`
	Template string   `json:"template"`
}

type deckReport struct {
	Status   string               `json:"status"`
	Link     string               `json:"link,omitempty"`
	Slides   int                  `json:"slides"`
	Failures []models.SongFailure `json:"failures,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func createPresentationTool(builder DeckBuilder, cfg *config) agents.FunctionTool {
	return agents.NewFunctionTool(
		"create_presentation",
		"Builds the bilingual lyric presentation for the given songs, in order.",
		func(ctx context.Context, args createPresentationArgs) (deckReport, error) {
			res, err := builder.BuildDeck(ctx, lyricdeck.DeckRequest{Titles: args.Titles, Template: args.Template})
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return deckReport{}, err
			}
			var report deckReport
			if res != nil {
				report = deckReport{Status: res.Status, Link: res.Locator, Slides: res.Slides, Failures: res.Failures}
			}
			if err != nil {
				cfg.log.Warnf("create_presentation failed: %v", err)
				report.Error = err.Error()
				if report.Status == "" {
					report.Status = models.RunFailed
				}
			}
			return report, nil
		},
	)
}
