// Package anthropic provides a drafting annotator backed by the Anthropic
// Messages API, mirroring the openai sub-package behind the same contract.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/labelloop/labelloop/annotate"
	"github.com/labelloop/labelloop/internal/util"
)

const instructionTemplate = `You are a careful data annotator for the session "{{.session}}".
Answer every task below for the presented item.

Tasks:
{{.tasks}}

Reply with a single JSON object mapping each task name to its answer.
Use JSON booleans for bool tasks, numbers for int/float tasks, the exact
choice string for choice tasks, an array of choice strings for multichoice
tasks and RFC 3339 strings for timestamp tasks. Use null only where a task
is nullable. No prose, no code fences.`

// Options configure the Anthropic annotator (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Annotator wraps the Anthropic Messages API behind the generic
// annotate.Annotator contract.
type Annotator struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic annotator using the official client.
func New(optFns ...func(o *Options)) *Annotator {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.2,
		MaxTokens:   1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Annotator{
		client: &client,
		opts:   opts,
	}
}

// NewFromClient creates a new Anthropic annotator from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Annotator {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.2,
		MaxTokens:   1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Annotator{
		client: client,
		opts:   opts,
	}
}

// Annotate implements annotate.Annotator by drafting one answer set per item.
func (a *Annotator) Annotate(ctx context.Context, prompt annotate.Prompt) (map[string]any, error) {
	instructions, err := util.RenderTemplate(instructionTemplate, map[string]any{
		"session": prompt.Progress.SessionName,
		"tasks":   annotate.TaskBrief(prompt.Tasks),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render instructions: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:       a.opts.Model,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: anthropic.Float(a.opts.Temperature),
		System:      []anthropic.TextBlockParam{{Text: instructions}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(annotate.FieldText(prompt.Fields))),
		},
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	values, err := util.ParseLooseJSON(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model answers: %w", err)
	}
	return values, nil
}
