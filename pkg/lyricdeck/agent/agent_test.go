package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/nlpodyssey/openai-agents-go/agents"
	"github.com/nlpodyssey/openai-agents-go/agentstesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/playlist"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/models"
)

type mapSource struct {
	songs  map[string]*pipeline.Song
	titles []string
}

func (s *mapSource) Lookup(_ context.Context, title string) (*pipeline.Song, error) {
	s.titles = append(s.titles, title)
	if song, ok := s.songs[title]; ok {
		return song, nil
	}
	return nil, &pipeline.SourceNotFoundError{Title: title}
}

type fakeBuilder struct {
	reqs []lyricdeck.DeckRequest
	res  *lyricdeck.DeckResult
	err  error
}

func (b *fakeBuilder) BuildDeck(_ context.Context, req lyricdeck.DeckRequest) (*lyricdeck.DeckResult, error) {
	b.reqs = append(b.reqs, req)
	return b.res, b.err
}

func turns(outputs ...agents.TResponseOutputItem) []agentstesting.FakeModelTurnOutput {
	out := make([]agentstesting.FakeModelTurnOutput, len(outputs))
	for i, o := range outputs {
		out[i] = agentstesting.FakeModelTurnOutput{Value: []agents.TResponseOutputItem{o}}
	}
	return out
}

func TestRetrieveUsesFindLyricsTool(t *testing.T) {
	model := agentstesting.NewFakeModel(false, nil)
	lookup := &mapSource{songs: map[string]*pipeline.Song{
		"Amazing Grace": {
			Title:   "Amazing Grace",
			Origin:  pipeline.OriginStorage,
			English: pipeline.ParseTrack("Amazing grace\nhow sweet the sound", pipeline.English),
		},
	}}
	r := NewLyricRetriever(lookup, nil, WithModelInstance(model))

	model.AddMultipleTurnOutputs(turns(
		agentstesting.GetFunctionToolCall("find_lyrics", `{"title": "Amazing Grace"}`),
		agentstesting.GetTextMessage("```json\n"+
			`{"title": "Amazing Grace", "english": "Amazing grace\nhow sweet the sound", "korean": "나 같은 죄인\n살리신 주", "translated": true}`+
			"\n```"),
	))

	got, err := r.Retrieve(t.Context(), "Amazing Grace")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Amazing Grace", got.Title)
	assert.Equal(t, "나 같은 죄인\n살리신 주", got.Korean)
	assert.True(t, got.Translated)
	assert.Equal(t, []string{"Amazing Grace"}, lookup.titles)
}

func TestRetrieveNotFound(t *testing.T) {
	model := agentstesting.NewFakeModel(false, nil)
	r := NewLyricRetriever(&mapSource{}, playlist.NewPreviewer(), WithModelInstance(model))
	model.SetNextOutput(agentstesting.FakeModelTurnOutput{Value: []agents.TResponseOutputItem{
		agentstesting.GetTextMessage(`{"title": "Unknown", "english": "", "korean": ""}`),
	}})

	got, err := r.Retrieve(t.Context(), "Unknown")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRetrieveRejectsProse(t *testing.T) {
	model := agentstesting.NewFakeModel(false, nil)
	r := NewLyricRetriever(&mapSource{}, nil, WithModelInstance(model))
	model.SetNextOutput(agentstesting.FakeModelTurnOutput{Value: []agents.TResponseOutputItem{
		agentstesting.GetTextMessage("I could not find that song, sorry."),
	}})

	_, err := r.Retrieve(t.Context(), "Unknown")
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	model := agentstesting.NewFakeModel(false, nil)
	r := NewLyricRetriever(&mapSource{}, nil, WithModelInstance(model))
	lines := pipeline.ParseTrack("Amazing grace\nhow sweet the sound", pipeline.English)

	model.SetNextOutput(agentstesting.FakeModelTurnOutput{Value: []agents.TResponseOutputItem{
		agentstesting.GetTextMessage(`{"lines": ["나 같은 죄인", "살리신 주"]}`),
	}})
	got, err := r.Translate(t.Context(), "Amazing Grace", lines, pipeline.Korean)
	require.NoError(t, err)
	assert.Equal(t, []string{"나 같은 죄인", "살리신 주"}, got)

	model.SetNextOutput(agentstesting.FakeModelTurnOutput{Value: []agents.TResponseOutputItem{
		agentstesting.GetTextMessage(`{"lines": ["나 같은 죄인 살리신 주"]}`),
	}})
	_, err = r.Translate(t.Context(), "Amazing Grace", lines, pipeline.Korean)
	assert.ErrorContains(t, err, "has 1 lines, want 2")

	model.SetNextOutput(agentstesting.FakeModelTurnOutput{Value: []agents.TResponseOutputItem{
		agentstesting.GetTextMessage(`{"lines": ["나 같은 죄인\n살리신", "주"]}`),
	}})
	_, err = r.Translate(t.Context(), "Amazing Grace", lines, pipeline.Korean)
	assert.ErrorContains(t, err, "line 0 spans several lines")
}

func TestCreatePresentationTool(t *testing.T) {
	model := agentstesting.NewFakeModel(false, nil)
	builder := &fakeBuilder{res: &lyricdeck.DeckResult{
		Status:   models.RunRendered,
		Locator:  "https://docs.google.com/presentation/d/p1/edit",
		Slides:   7,
		Failures: []models.SongFailure{{Title: "B", Error: "not found"}},
	}}
	c := NewSlideCreator(builder, WithModelInstance(model))

	model.AddMultipleTurnOutputs(turns(
		agentstesting.GetFunctionToolCall("create_presentation", `{"titles": ["A", "B"], "template": "friday"}`),
		agentstesting.GetTextMessage("Created 7 slides. B could not be found."),
	))

	res, err := c.runner.Run(t.Context(), c.Agent(), "Make slides for A then B on Friday")
	require.NoError(t, err)
	text, err := finalText(res)
	require.NoError(t, err)
	assert.Contains(t, text, "7 slides")

	require.Len(t, builder.reqs, 1)
	assert.Equal(t, []string{"A", "B"}, builder.reqs[0].Titles)
	assert.Equal(t, "friday", builder.reqs[0].Template)
	assert.False(t, builder.reqs[0].DryRun)
}

func TestCreatePresentationReportsBuildError(t *testing.T) {
	builder := &fakeBuilder{
		res: &lyricdeck.DeckResult{Status: models.RunEmpty},
		err: pipeline.ErrEmptyDeck,
	}
	tool := createPresentationTool(builder, newConfig(nil))
	out, err := tool.OnInvokeTool(t.Context(), `{"titles": ["A"], "template": ""}`)
	require.NoError(t, err)

	report, ok := out.(deckReport)
	require.True(t, ok)
	assert.Equal(t, models.RunEmpty, report.Status)
	assert.Equal(t, pipeline.ErrEmptyDeck.Error(), report.Error)
}

func TestOrchestratorDelegatesToSlideCreator(t *testing.T) {
	model := agentstesting.NewFakeModel(false, nil)
	builder := &fakeBuilder{res: &lyricdeck.DeckResult{Status: models.RunRendered, Locator: "https://docs.google.com/presentation/d/p2/edit", Slides: 3}}
	o := NewOrchestrator(
		NewLyricRetriever(&mapSource{}, nil, WithModelInstance(model)),
		NewSlideCreator(builder, WithModelInstance(model)),
		WithModelInstance(model),
	)

	model.AddMultipleTurnOutputs(turns(
		agentstesting.GetFunctionToolCall("create_slides", `{"input": "Create slides for Holy Forever, sunday"}`),
		agentstesting.GetFunctionToolCall("create_presentation", `{"titles": ["Holy Forever"], "template": "sunday"}`),
		agentstesting.GetTextMessage("Created https://docs.google.com/presentation/d/p2/edit"),
		agentstesting.GetTextMessage("Your deck is ready: https://docs.google.com/presentation/d/p2/edit"),
	))

	answer, err := o.Ask(t.Context(), "Yes, build it")
	require.NoError(t, err)
	assert.Contains(t, answer, "/p2/edit")
	require.Len(t, builder.reqs, 1)
	assert.Equal(t, []string{"Holy Forever"}, builder.reqs[0].Titles)
}

func TestConversationKeepsHistory(t *testing.T) {
	model := agentstesting.NewFakeModel(false, nil)
	o := NewOrchestrator(
		NewLyricRetriever(&mapSource{}, nil, WithModelInstance(model)),
		NewSlideCreator(&fakeBuilder{}, WithModelInstance(model)),
		WithModelInstance(model),
	)
	conv := o.NewConversation()

	model.SetNextOutput(agentstesting.FakeModelTurnOutput{Value: []agents.TResponseOutputItem{
		agentstesting.GetTextMessage("Which songs?"),
	}})
	reply, err := conv.Send(t.Context(), "I need slides")
	require.NoError(t, err)
	assert.Equal(t, "Which songs?", reply)
	first := conv.Turns()
	assert.Equal(t, 2, first)

	model.SetNextOutput(agentstesting.FakeModelTurnOutput{Value: []agents.TResponseOutputItem{
		agentstesting.GetTextMessage("Sunday or Friday?"),
	}})
	_, err = conv.Send(t.Context(), "Way Maker")
	require.NoError(t, err)
	assert.Equal(t, 4, conv.Turns())

	model.SetNextOutput(agentstesting.FakeModelTurnOutput{Error: errors.New("model down")})
	_, err = conv.Send(t.Context(), "Sunday")
	assert.ErrorContains(t, err, "model down")
	assert.Equal(t, 4, conv.Turns())
}

func TestChatLoop(t *testing.T) {
	model := agentstesting.NewFakeModel(false, nil)
	o := NewOrchestrator(
		NewLyricRetriever(&mapSource{}, nil, WithModelInstance(model)),
		NewSlideCreator(&fakeBuilder{}, WithModelInstance(model)),
		WithModelInstance(model),
	)
	model.SetNextOutput(agentstesting.FakeModelTurnOutput{Value: []agents.TResponseOutputItem{
		agentstesting.GetTextMessage("Hello! Which songs?"),
	}})

	var out strings.Builder
	err := o.Chat(t.Context(), strings.NewReader("hi\nexit\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Hello! Which songs?")
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"plain", `{"lines": ["a"]}`, true},
		{"fenced", "```json\n{\"lines\": [\"a\"]}\n```", true},
		{"prose before", "Here you go:\n{\"lines\": [\"a\"]}", true},
		{"prose only", "no lyrics", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ans translationAnswer
			err := decodeJSON(tt.in, &ans)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, ans.Lines)
		})
	}
}

func TestClaudeTranslator(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		System   []struct{ Text string } `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_1",
			"type":          "message",
			"role":          "assistant",
			"model":         got.Model,
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content": []map[string]any{
				{"type": "text", "text": `{"lines": ["Holy forever", "Holy forever"]}`},
			},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 10},
		})
	}))
	defer srv.Close()

	tr := NewClaudeTranslator("", option.WithBaseURL(srv.URL+"/"), option.WithAPIKey("test-key"), option.WithMaxRetries(0))
	lines := pipeline.ParseTrack("영원히 거룩\n영원히 거룩", pipeline.Korean)

	out, err := tr.Translate(t.Context(), "Holy Forever", lines, pipeline.English)
	require.NoError(t, err)
	assert.Equal(t, []string{"Holy forever", "Holy forever"}, out)

	assert.Equal(t, DefaultClaudeModel, got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content[0].Text, `"to":"english"`)
	require.Len(t, got.System, 1)
	assert.Contains(t, got.System[0].Text, "Never merge or split lines")
}
