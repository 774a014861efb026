// Package openai provides a drafting annotator backed by the OpenAI Chat
// Completions API. It asks the model to answer every session task for the
// presented item and parses the reply as a JSON answer set. Compose it with
// a human reviewer via annotate.Reviewed, or use it standalone for fully
// automatic labelling.
package openai

import (
	"context"
	"fmt"

	"github.com/labelloop/labelloop/annotate"
	"github.com/labelloop/labelloop/internal/util"
	"github.com/openai/openai-go"
)

// instructionTemplate frames the labelling request. The model must reply
// with a bare JSON object keyed by task name.
const instructionTemplate = `You are a careful data annotator for the session "{{.session}}".
Answer every task below for the presented item.

Tasks:
{{.tasks}}

Reply with a single JSON object mapping each task name to its answer.
Use JSON booleans for bool tasks, numbers for int/float tasks, the exact
choice string for choice tasks, an array of choice strings for multichoice
tasks and RFC 3339 strings for timestamp tasks. Use null only where a task
is nullable. No prose, no code fences.`

// Options configure the OpenAI annotator. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Annotator wraps the OpenAI Chat Completions API behind the generic
// annotate.Annotator contract.
type Annotator struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI annotator using the official client.
func New(optFns ...func(o *Options)) *Annotator {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI annotator from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Annotator {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.2,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Annotator{client: client, opts: opts}
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

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instructions),
			openai.UserMessage(annotate.FieldText(prompt.Fields)),
		},
		Model:               a.opts.Model,
		Temperature:         openai.Float(a.opts.Temperature),
		MaxCompletionTokens: openai.Int(a.opts.MaxCompletionTokens),
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	values, err := util.ParseLooseJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model answers: %w", err)
	}
	return values, nil
}
