package core

import (
	"encoding/json"
	"fmt"
)

// Task is a single question definition applied to every item: a kind, a
// nullability flag, an optional default and an optional instruction shown to
// the reviewer. Tasks are immutable once a session begins.
type Task struct {
	Name        string // Unique within a session
	Kind        Kind   // Typed answer domain
	Nullable    bool   // Whether an explicit nil answer is permitted
	Default     any    // Used when the reviewer supplies nothing; nil means no default
	Instruction string // Optional guidance shown alongside the question
}

// NewTask constructs a task and validates its default against the kind.
func NewTask(name string, kind Kind, optFns ...func(t *Task)) (Task, error) {
	if name == "" {
		return Task{}, fmt.Errorf("task name must not be empty")
	}
	if kind == nil {
		return Task{}, fmt.Errorf("task %q has no kind", name)
	}

	t := Task{Name: name, Kind: kind}
	for _, fn := range optFns {
		fn(&t)
	}

	if t.Default != nil {
		normalized, err := kind.Validate(t.Default)
		if err != nil {
			return Task{}, fmt.Errorf("task %q has invalid default: %w", name, err)
		}
		t.Default = normalized
	}

	return t, nil
}

// Validate normalizes an answer for this task. A nil answer is accepted only
// when the task is nullable. Validation failures are InvalidAnswerError.
func (t Task) Validate(v any) (any, error) {
	if v == nil {
		if t.Nullable {
			return nil, nil
		}
		return nil, &InvalidAnswerError{Task: t.Name, Raw: v, Reason: "answer is required"}
	}
	normalized, err := t.Kind.Validate(v)
	if err != nil {
		return nil, &InvalidAnswerError{Task: t.Name, Raw: v, Reason: err.Error()}
	}
	return normalized, nil
}

// Missing resolves the answer for a task the reviewer left unanswered: the
// default if one exists, nil if the task is nullable, otherwise failure.
func (t Task) Missing() (any, error) {
	if t.Default != nil {
		return t.Default, nil
	}
	if t.Nullable {
		return nil, nil
	}
	return nil, &InvalidAnswerError{Task: t.Name, Raw: nil, Reason: "answer is required"}
}

// taskJSON is the wire shape of a Task. The kind is discriminated by its
// stable name; choice sets and labels travel alongside.
type taskJSON struct {
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	Choices     []string          `json:"choices,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Nullable    bool              `json:"nullable,omitempty"`
	Default     any               `json:"default,omitempty"`
	Instruction string            `json:"instruction,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t Task) MarshalJSON() ([]byte, error) {
	out := taskJSON{
		Name:        t.Name,
		Kind:        t.Kind.Name(),
		Nullable:    t.Nullable,
		Default:     t.Default,
		Instruction: t.Instruction,
	}
	switch k := t.Kind.(type) {
	case ChoiceKind:
		out.Choices = k.Choices
		out.Labels = k.Labels
	case MultiChoiceKind:
		out.Choices = k.Choices
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Task) UnmarshalJSON(data []byte) error {
	var in taskJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	kind, err := KindByName(in.Kind, in.Choices)
	if err != nil {
		return fmt.Errorf("task %q: %w", in.Name, err)
	}
	if ck, ok := kind.(ChoiceKind); ok && len(in.Labels) > 0 {
		ck.Labels = in.Labels
		kind = ck
	}

	parsed, err := NewTask(in.Name, kind, func(o *Task) {
		o.Nullable = in.Nullable
		o.Default = in.Default
		o.Instruction = in.Instruction
	})
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}

// validateTasks checks a task sequence for emptiness and duplicate names.
func validateTasks(tasks []Task) error {
	if len(tasks) == 0 {
		return fmt.Errorf("at least one task is required")
	}
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Name == "" {
			return fmt.Errorf("task name must not be empty")
		}
		if t.Kind == nil {
			return fmt.Errorf("task %q has no kind", t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate task name %q", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}
