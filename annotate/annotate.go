// Package annotate defines the contract between the annotation engine and
// whatever presents items to a reviewer: an interactive console, a notebook
// surface, or a model drafting answers for human review. The engine is
// agnostic to the implementation; it blocks on Annotate one item at a time.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/labelloop/labelloop/core"
)

// ErrStop is the cooperative stop signal. An annotator returns it to end the
// current run cleanly; remaining items stay eligible for future runs.
var ErrStop = errors.New("annotation stopped")

// Progress locates the current item inside the run's work list.
type Progress struct {
	Position    int    `json:"position"` // Zero-based position in the work list
	Total       int    `json:"total"`    // Work list length
	SessionName string `json:"session_name"`
}

// Prompt carries everything an annotator needs to present one item.
type Prompt struct {
	ID       core.ItemID  `json:"id"`
	Fields   []core.Field `json:"fields"` // Display fields in dataset order
	Tasks    []core.Task  `json:"tasks"`  // Session tasks in declaration order
	Progress Progress     `json:"progress"`

	// Draft holds machine-proposed answers when a drafting annotator is
	// composed in front of a reviewer (see Reviewed). Nil otherwise.
	Draft map[string]any `json:"draft,omitempty"`

	// Err carries the validation failure of the previous attempt when the
	// engine re-presents the same item. Nil on first presentation.
	Err error `json:"-"`
}

// Annotator presents one item and collects a raw answer set: task name to
// answer value. Returning ErrStop aborts the run cleanly. Must be
// synchronous from the engine's point of view.
type Annotator interface {
	Annotate(ctx context.Context, prompt Prompt) (map[string]any, error)
}

// Func adapts a plain function to the Annotator interface.
type Func func(ctx context.Context, prompt Prompt) (map[string]any, error)

// Annotate implements Annotator.
func (f Func) Annotate(ctx context.Context, prompt Prompt) (map[string]any, error) {
	return f(ctx, prompt)
}

// Scripted returns an annotator that plays back the given answer sets in
// order, then signals stop. Useful for tests and batch seeding.
func Scripted(answers ...map[string]any) Annotator {
	var mu sync.Mutex
	next := 0
	return Func(func(_ context.Context, _ Prompt) (map[string]any, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(answers) {
			return nil, ErrStop
		}
		values := answers[next]
		next++
		return values, nil
	})
}

// Reviewed composes a drafting annotator (typically model-backed) with a
// reviewer: the draft's answer set is attached to the prompt and the
// reviewer has the final word. A draft failure falls through to the reviewer
// with no draft rather than aborting the run.
func Reviewed(draft, reviewer Annotator) Annotator {
	return Func(func(ctx context.Context, prompt Prompt) (map[string]any, error) {
		if values, err := draft.Annotate(ctx, prompt); err == nil {
			prompt.Draft = values
		}
		return reviewer.Annotate(ctx, prompt)
	})
}

// TaskBrief renders a compact textual description of the task sequence for
// model instructions and console headers.
func TaskBrief(tasks []core.Task) string {
	var b strings.Builder
	for i, task := range tasks {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s (%s", task.Name, task.Kind.Name())
		switch k := task.Kind.(type) {
		case core.ChoiceKind:
			fmt.Fprintf(&b, ", one of: %s", strings.Join(k.Choices, ", "))
		case core.MultiChoiceKind:
			fmt.Fprintf(&b, ", any of: %s", strings.Join(k.Choices, ", "))
		}
		if task.Nullable {
			b.WriteString(", nullable")
		}
		b.WriteString(")")
		if task.Instruction != "" {
			fmt.Fprintf(&b, ": %s", task.Instruction)
		}
	}
	return b.String()
}

// FieldText renders the item's display fields as labelled lines.
func FieldText(fields []core.Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", f.Label, core.FormatCell(f.Value))
	}
	return b.String()
}

// MockAnnotator is a lightweight in-memory Annotator useful for tests &
// examples. Items without a registered answer signal stop; presented ids are
// recorded for assertions.
type MockAnnotator struct {
	mu        sync.Mutex
	answers   map[core.ItemID][]map[string]any
	presented []core.ItemID
}

// NewMockAnnotator constructs an empty MockAnnotator.
func NewMockAnnotator() *MockAnnotator {
	return &MockAnnotator{answers: make(map[core.ItemID][]map[string]any)}
}

// AddAnswer registers an answer set for an item. Multiple registrations for
// the same id are consumed in order, which exercises re-presentation after a
// validation failure.
func (m *MockAnnotator) AddAnswer(id core.ItemID, values map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[id] = append(m.answers[id], values)
}

// Presented returns the ids presented so far, in order.
func (m *MockAnnotator) Presented() []core.ItemID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.ItemID{}, m.presented...)
}

// Annotate implements Annotator.
func (m *MockAnnotator) Annotate(_ context.Context, prompt Prompt) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presented = append(m.presented, prompt.ID)
	queue := m.answers[prompt.ID]
	if len(queue) == 0 {
		return nil, ErrStop
	}
	values := queue[0]
	m.answers[prompt.ID] = queue[1:]
	return values, nil
}
