package console

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelloop/labelloop/annotate"
	"github.com/labelloop/labelloop/core"
)

func consoleTasks(t *testing.T) []core.Task {
	t.Helper()

	adverse, err := core.NewTask("adverse", core.ChoiceKind{
		Choices: []string{"0", "1"},
		Labels:  map[string]string{"0": "not adverse", "1": "adverse"},
	})
	require.NoError(t, err)

	political, err := core.NewTask("political", core.BoolKind{}, func(o *core.Task) {
		o.Nullable = true
	})
	require.NoError(t, err)

	return []core.Task{adverse, political}
}

func consolePrompt(t *testing.T) annotate.Prompt {
	t.Helper()
	return annotate.Prompt{
		ID:     "n-17",
		Fields: []core.Field{{Label: "title", Value: "storm warning"}},
		Tasks:  consoleTasks(t),
		Progress: annotate.Progress{
			Position:    0,
			Total:       2,
			SessionName: "LABELLOOP",
		},
	}
}

func newTestAnnotator(input string) (*Annotator, *bytes.Buffer) {
	var out bytes.Buffer
	a := New(func(o *Options) {
		o.Input = strings.NewReader(input)
		o.Output = &out
		o.ColorEnabled = false
	})
	return a, &out
}

// -------------------- Console Annotator Tests --------------------

func TestAnnotate_AnswersAllTasks(t *testing.T) {
	a, out := newTestAnnotator("1\ntrue\n")

	values, err := a.Annotate(context.Background(), consolePrompt(t))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"adverse": "1", "political": true}, values)

	rendered := out.String()
	assert.Contains(t, rendered, "LABELLOOP  item n-17  (1/2)")
	assert.Contains(t, rendered, "title: storm warning")
	assert.Contains(t, rendered, "1: adverse")
}

func TestAnnotate_EmptyLineLeavesUnanswered(t *testing.T) {
	a, _ := newTestAnnotator("1\n\n")

	values, err := a.Annotate(context.Background(), consolePrompt(t))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"adverse": "1"}, values)
}

func TestAnnotate_StopWord(t *testing.T) {
	for _, word := range []string{".", "exit", "quit"} {
		a, _ := newTestAnnotator(word + "\n")
		_, err := a.Annotate(context.Background(), consolePrompt(t))
		assert.ErrorIs(t, err, annotate.ErrStop)
	}
}

func TestAnnotate_EOFStops(t *testing.T) {
	a, _ := newTestAnnotator("")
	_, err := a.Annotate(context.Background(), consolePrompt(t))
	assert.ErrorIs(t, err, annotate.ErrStop)
}

func TestAnnotate_ReprompsOnBadInput(t *testing.T) {
	a, out := newTestAnnotator("7\n1\nmaybe\nfalse\n")

	values, err := a.Annotate(context.Background(), consolePrompt(t))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"adverse": "1", "political": false}, values)
	assert.Contains(t, out.String(), "7")
}

func TestAnnotate_DraftAcceptedOnEmptyLine(t *testing.T) {
	a, out := newTestAnnotator("\n\n")

	prompt := consolePrompt(t)
	prompt.Draft = map[string]any{"adverse": "1"}

	values, err := a.Annotate(context.Background(), prompt)
	require.NoError(t, err)

	// The drafted task is accepted; the undrafted one stays unanswered.
	assert.Equal(t, map[string]any{"adverse": "1"}, values)
	assert.Contains(t, out.String(), "draft: 1 (enter to accept)")
}

func TestAnnotate_ValidationErrorShown(t *testing.T) {
	a, out := newTestAnnotator("1\ntrue\n")

	prompt := consolePrompt(t)
	prompt.Err = fmt.Errorf("answer rejected")

	_, err := a.Annotate(context.Background(), prompt)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Invalid answer: answer rejected")
}

func TestAnnotate_MaxRetriesExceeded(t *testing.T) {
	a := New(func(o *Options) {
		o.Input = strings.NewReader("1\ntrue\n")
		o.Output = &bytes.Buffer{}
		o.ColorEnabled = false
		o.MaxRetries = 1
	})

	prompt := consolePrompt(t)
	prompt.Err = fmt.Errorf("answer rejected")

	_, err := a.Annotate(context.Background(), prompt)
	require.NoError(t, err)

	// A second re-presentation of the same item exceeds the bound.
	_, err = a.Annotate(context.Background(), prompt)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, annotate.ErrStop)
}

// -------------------- Highlighter Tests --------------------

func TestHighlighter_Apply(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	h := NewHighlighter(map[string][]color.Attribute{
		"storm": {color.FgRed},
	}, true)

	got := h.Apply("Storm warning: the storm intensifies")
	assert.NotEqual(t, "Storm warning: the storm intensifies", got)
	assert.Contains(t, got, "warning")

	// Case-insensitive match keeps the original casing.
	assert.Contains(t, got, "Storm")
}

func TestHighlighter_NonASCII(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	h := NewHighlighter(map[string][]color.Attribute{
		"x": {color.FgRed},
	}, true)

	// "Ⱥ" lowercases to "ⱥ", which is one byte longer; offsets from a
	// lowered copy of the text would run past the original's end.
	got := h.Apply("ȺX")
	assert.Contains(t, got, "Ⱥ")
	assert.Contains(t, got, "X")
	assert.NotEqual(t, "ȺX", got)

	// Folding applies to the phrase side as well.
	h = NewHighlighter(map[string][]color.Attribute{
		"ⱥ": {color.FgRed},
	}, true)
	got = h.Apply("Ⱥ plating")
	assert.NotEqual(t, "Ⱥ plating", got)
	assert.Contains(t, got, "plating")
}

func TestHighlighter_PassThrough(t *testing.T) {
	h := NewHighlighter(nil, true)
	assert.Equal(t, "storm warning", h.Apply("storm warning"))

	h = NewHighlighter(map[string][]color.Attribute{"storm": {color.FgRed}}, false)
	assert.Equal(t, "storm warning", h.Apply("storm warning"))
}
