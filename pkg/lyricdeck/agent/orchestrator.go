package agent

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/nlpodyssey/openai-agents-go/agents"
	"github.com/nlpodyssey/openai-agents-go/modelsettings"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/responses"
)

const orchestratorInstructions = `You help the worship team prepare the lyric slides for a service.

- Ask for the song titles in order, or a YouTube playlist, and for the service (Sunday or Friday) when it is not obvious.
- Use retrieve_lyrics to check that every song can be found. Show the user the titles you will use and wait for them to confirm.
- After the user confirms, call create_slides once with the confirmed titles in order and the template.
- Share the presentation link and list any songs that could not be included, with the reason.
Keep your answers short.`

// Orchestrator is the assistant users talk to. It delegates lyric lookups
// and deck creation to the other two agents.
type Orchestrator struct {
	agent  *agents.Agent
	runner agents.Runner
}

func NewOrchestrator(retriever *LyricRetriever, creator *SlideCreator, opts ...Option) *Orchestrator {
	cfg := newConfig(opts)
	root := agents.New("LyricDeckAssistant").
		WithInstructions(orchestratorInstructions).
		WithModelSettings(modelsettings.ModelSettings{Temperature: param.NewOpt(0.01)}).
		WithTools(
			retriever.Agent().AsTool(agents.AgentAsToolParams{
				ToolName:        "retrieve_lyrics",
				ToolDescription: "Finds the English and Korean lyrics of one song or lists a playlist.",
			}),
			creator.Agent().AsTool(agents.AgentAsToolParams{
				ToolName:        "create_slides",
				ToolDescription: "Creates the presentation for confirmed song titles and reports the link.",
			}),
		)
	return &Orchestrator{agent: cfg.build(root), runner: cfg.runner()}
}

// Ask runs one stateless turn.
func (o *Orchestrator) Ask(ctx context.Context, message string) (string, error) {
	res, err := o.runner.Run(ctx, o.agent, message)
	if err != nil {
		return "", fmt.Errorf("running %s: %w", o.agent.Name, err)
	}
	return finalText(res)
}

// Chat runs an interactive conversation over r and w until the user types
// "exit" or r is exhausted.
func (o *Orchestrator) Chat(ctx context.Context, r io.Reader, w io.Writer) error {
	return agents.RunDemoLoopRW(ctx, o.agent, false, r, w)
}

// Conversation keeps the history of a multi-turn exchange.
type Conversation struct {
	o     *Orchestrator
	mu    sync.Mutex
	items []agents.TResponseInputItem
}

func (o *Orchestrator) NewConversation() *Conversation {
	return &Conversation{o: o}
}

// Send adds a user message and returns the assistant's reply. A failed turn
// leaves the history unchanged.
func (c *Conversation) Send(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	input := append(append([]agents.TResponseInputItem(nil), c.items...), userMessage(message))
	res, err := c.o.runner.RunInputs(ctx, c.o.agent, input)
	if err != nil {
		return "", fmt.Errorf("running %s: %w", c.o.agent.Name, err)
	}
	text, err := finalText(res)
	if err != nil {
		return "", err
	}
	c.items = res.ToInputList()
	return text, nil
}

// Turns returns the number of history items.
func (c *Conversation) Turns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func userMessage(content string) agents.TResponseInputItem {
	return agents.TResponseInputItem{
		OfMessage: &responses.EasyInputMessageParam{
			Content: responses.EasyInputMessageContentUnionParam{
				OfString: param.NewOpt(content),
			},
			Role: responses.EasyInputMessageRoleUser,
			Type: responses.EasyInputMessageTypeMessage,
		},
	}
}
