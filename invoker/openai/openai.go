// Package openai provides a core.Invoker adapter for the OpenAI Chat
// Completions API. Prompt construction stays in the adapter: the engine only
// hands over the resolved step input.
package openai

import (
	"context"
	"fmt"

	"github.com/flowmesh/flowmesh/core"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI invoker. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options without breaking
// callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64

	// SystemPrompts maps agent ids to system prompts.
	SystemPrompts map[string]string

	// Models maps agent ids to model overrides.
	Models map[string]string
}

// Invoker wraps the OpenAI Chat Completions API behind the core.Invoker interface.
type Invoker struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI invoker from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Invoker {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{client: client, opts: opts}
}

// Invoke implements core.Invoker with a single non-streaming completion call.
func (i *Invoker) Invoke(ctx context.Context, agentID, input string, execCtx core.ExecutionContext) (*core.Invocation, error) {
	model := i.opts.Model
	if override, ok := i.opts.Models[agentID]; ok {
		model = override
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if system, ok := i.opts.SystemPrompts[agentID]; ok && system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(input))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               model,
		Temperature:         openai.Float(i.opts.Temperature),
		MaxCompletionTokens: openai.Int(i.opts.MaxCompletionTokens),
	}

	resp, err := i.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return &core.Invocation{Content: resp.Choices[0].Message.Content, Raw: resp}, nil
}
