package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nlpodyssey/openai-agents-go/agents"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/playlist"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/source"
)

const retrieverInstructions = `You find the lyrics of worship songs in English and Korean.

1. Always call find_lyrics first with the song title you were given.
2. When you are given a YouTube playlist instead of titles, call preview_playlist and work with the song titles it returns.
3. When only one language is found, translate the other one line by line. Keep exactly one output line per input line, keep the blank lines between sections, and set "translated" to true.
4. Never invent lyrics for a song you cannot find.

Answer with one JSON object and nothing else:
{"title": "<canonical title>", "english": "<lyrics>", "korean": "<lyrics>", "translated": false}
Leave "english" and "korean" empty when the song cannot be found.`

const translatorInstructions = `You translate worship song lyrics between English and Korean for projection in church.
You receive JSON: {"title": ..., "to": "english" | "korean", "lines": [...]}.
Translate every line on its own so it can be sung or read next to the original. Never merge or split lines.
Answer with one JSON object and nothing else: {"lines": [...]} with exactly as many lines as you received.`

// LyricRetriever runs the lyric retrieval agent. It answers both
// source.Retriever and source.Translator.
type LyricRetriever struct {
	agent      *agents.Agent
	translator *agents.Agent
	runner     agents.Runner
	log        pipeline.Logger
}

// NewLyricRetriever builds the agent. lookup backs the find_lyrics tool and
// must not include the agent itself. previewer may be nil.
func NewLyricRetriever(lookup pipeline.Source, previewer *playlist.Previewer, opts ...Option) *LyricRetriever {
	cfg := newConfig(opts)

	tools := []agents.Tool{findLyricsTool(lookup)}
	if previewer != nil {
		tools = append(tools, previewPlaylistTool(previewer))
	}

	return &LyricRetriever{
		agent: cfg.build(agents.New("LyricRetrieverAgent").
			WithInstructions(retrieverInstructions).
			WithHandoffDescription("Finds English and Korean lyrics for worship songs.").
			WithTools(tools...)),
		translator: cfg.build(agents.New("LyricTranslatorAgent").
			WithInstructions(translatorInstructions)),
		runner: cfg.runner(),
		log:    cfg.log,
	}
}

// Agent exposes the retrieval agent so it can be used as a tool.
func (r *LyricRetriever) Agent() *agents.Agent { return r.agent }

// Retrieve asks the agent for a song. A nil result means the agent could
// not find it.
func (r *LyricRetriever) Retrieve(ctx context.Context, title string) (*source.Retrieved, error) {
	res, err := r.runner.Run(ctx, r.agent, "Find the lyrics of: "+title)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", r.agent.Name, err)
	}
	text, err := finalText(res)
	if err != nil {
		return nil, err
	}

	var got source.Retrieved
	if err := decodeJSON(text, &got); err != nil {
		return nil, err
	}
	if strings.TrimSpace(got.English) == "" && strings.TrimSpace(got.Korean) == "" {
		r.log.Debugf("Agent found nothing for %q", title)
		return nil, nil
	}
	return &got, nil
}

// Translate asks the translation agent for one line per input line.
func (r *LyricRetriever) Translate(ctx context.Context, title string, lines []pipeline.LyricLine, to pipeline.Language) ([]string, error) {
	prompt, err := translationPrompt(title, lines, to)
	if err != nil {
		return nil, err
	}
	res, err := r.runner.Run(ctx, r.translator, prompt)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", r.translator.Name, err)
	}
	text, err := finalText(res)
	if err != nil {
		return nil, err
	}
	return parseTranslation(text, len(lines))
}

type translationRequest struct {
	Title string   `json:"title"`
	To    string   `json:"to"`
	Lines []string `json:"lines"`
}

type translationAnswer struct {
	Lines []string `json:"lines"`
}

func translationPrompt(title string, lines []pipeline.LyricLine, to pipeline.Language) (string, error) {
	req := translationRequest{Title: title, To: to.String(), Lines: make([]string, len(lines))}
	for i, l := range lines {
		req.Lines[i] = l.Text
	}
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parseTranslation(text string, want int) ([]string, error) {
	var ans translationAnswer
	if err := decodeJSON(text, &ans); err != nil {
		return nil, err
	}
	if len(ans.Lines) != want {
		return nil, fmt.Errorf("translation has %d lines, want %d", len(ans.Lines), want)
	}
	for i, l := range ans.Lines {
		if strings.ContainsAny(strings.TrimSpace(l), "\r\n") {
			return nil, fmt.Errorf("translation line %d spans several lines", i)
		}
	}
	return ans.Lines, nil
}

type findLyricsArgs struct {
	Title string `json:"title"`
}

type findLyricsResult struct {
	Found   bool   `json:"found"`
	Title   string `json:"title"`
	Origin  string `json:"origin,omitempty"`
	English string `json:"english,omitempty"`
	Korean  string `json:"korean,omitempty"`
	Note    string `json:"note,omitempty"`
}

func findLyricsTool(lookup pipeline.Source) agents.FunctionTool {
	return agents.NewFunctionTool(
		"find_lyrics",
		"Looks a song up in the church lyric library and the shared Drive lyric folder.",
		func(ctx context.Context, args findLyricsArgs) (findLyricsResult, error) {
			song, err := lookup.Lookup(ctx, args.Title)
			if err != nil {
				if ctx.Err() != nil {
					return findLyricsResult{}, ctx.Err()
				}
				var nf *pipeline.SourceNotFoundError
				if errors.As(err, &nf) && nf.Language != "" {
					return findLyricsResult{Title: args.Title, Note: "only found without " + nf.Language.String()}, nil
				}
				return findLyricsResult{Title: args.Title, Note: err.Error()}, nil
			}
			return findLyricsResult{
				Found:   true,
				Title:   song.Title,
				Origin:  string(song.Origin),
				English: pipeline.FormatTrack(song.English),
				Korean:  pipeline.FormatTrack(song.Korean),
			}, nil
		},
	)
}

type previewPlaylistArgs struct {
	Playlist string `json:"playlist"`
}

type previewPlaylistResult struct {
	Titles []string         `json:"titles"`
	Videos []playlist.Video `json:"videos"`
}

func previewPlaylistTool(p *playlist.Previewer) agents.FunctionTool {
	return agents.NewFunctionTool(
		"preview_playlist",
		"Lists the videos of a YouTube playlist (URL or ID) with cleaned song titles.",
		func(ctx context.Context, args previewPlaylistArgs) (previewPlaylistResult, error) {
			preview, err := p.Preview(ctx, args.Playlist)
			if err != nil {
				return previewPlaylistResult{}, err
			}
			return previewPlaylistResult{Titles: preview.Titles(), Videos: preview.Videos}, nil
		},
	)
}
