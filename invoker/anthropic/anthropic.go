// Package anthropic provides a core.Invoker adapter for the Anthropic
// Messages API. Each agent id may carry its own system prompt and model
// override; the engine itself stays ignorant of both.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/flowmesh/flowmesh/core"
)

// Options configures the Anthropic invoker (default model, temperature, max
// tokens, API key, per-agent overrides).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string

	// SystemPrompts maps agent ids to system prompts. Agents without an
	// entry are invoked with no system prompt.
	SystemPrompts map[string]string

	// Models maps agent ids to model overrides.
	Models map[string]anthropic.Model
}

// Invoker wraps the Anthropic Messages API behind the core.Invoker interface.
type Invoker struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Invoker{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic invoker from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Invoker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Invoke implements core.Invoker with a single non-streaming message call.
func (i *Invoker) Invoke(ctx context.Context, agentID, input string, execCtx core.ExecutionContext) (*core.Invocation, error) {
	model := i.opts.Model
	if override, ok := i.opts.Models[agentID]; ok {
		model = override
	}

	params := anthropic.MessageNewParams{
		Model:       model,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(input))},
		MaxTokens:   i.opts.MaxTokens,
		Temperature: anthropic.Float(i.opts.Temperature),
	}

	if system, ok := i.opts.SystemPrompts[agentID]; ok && system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := i.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}

	return &core.Invocation{Content: b.String(), Raw: resp}, nil
}
