package testutil

import (
	"fmt"

	"github.com/labelloop/labelloop/core"
)

// TaskBuilder provides a fluent helper for constructing tasks in tests.
// Example:
//
//	task := NewTaskBuilder("flag").Bool().Nullable().Build()
//
// Chain only the parts you need; the kind defaults to free text. Build
// panics on invalid combinations since tests should not construct them.
type TaskBuilder struct {
	name        string
	kind        core.Kind
	nullable    bool
	def         any
	instruction string
}

// NewTaskBuilder creates a builder for a task with the given name.
func NewTaskBuilder(name string) *TaskBuilder {
	return &TaskBuilder{name: name, kind: core.TextKind{}}
}

// Bool sets the kind to boolean (chainable).
func (b *TaskBuilder) Bool() *TaskBuilder { b.kind = core.BoolKind{}; return b }

// Int sets the kind to integer (chainable).
func (b *TaskBuilder) Int() *TaskBuilder { b.kind = core.IntKind{}; return b }

// Float sets the kind to numeric (chainable).
func (b *TaskBuilder) Float() *TaskBuilder { b.kind = core.FloatKind{}; return b }

// Text sets the kind to free text (chainable).
func (b *TaskBuilder) Text() *TaskBuilder { b.kind = core.TextKind{}; return b }

// Choice sets the kind to single choice over the given set (chainable).
func (b *TaskBuilder) Choice(choices ...string) *TaskBuilder {
	b.kind = core.ChoiceKind{Choices: choices}
	return b
}

// MultiChoice sets the kind to multi choice over the given set (chainable).
func (b *TaskBuilder) MultiChoice(choices ...string) *TaskBuilder {
	b.kind = core.MultiChoiceKind{Choices: choices}
	return b
}

// Timestamp sets the kind to timestamp (chainable).
func (b *TaskBuilder) Timestamp() *TaskBuilder { b.kind = core.TimestampKind{}; return b }

// Nullable marks the task nullable (chainable).
func (b *TaskBuilder) Nullable() *TaskBuilder { b.nullable = true; return b }

// Default sets the task default (chainable).
func (b *TaskBuilder) Default(v any) *TaskBuilder { b.def = v; return b }

// Instruction sets the instruction text (chainable).
func (b *TaskBuilder) Instruction(s string) *TaskBuilder { b.instruction = s; return b }

// Build constructs the core.Task value.
func (b *TaskBuilder) Build() core.Task {
	task, err := core.NewTask(b.name, b.kind, func(o *core.Task) {
		o.Nullable = b.nullable
		o.Default = b.def
		o.Instruction = b.instruction
	})
	if err != nil {
		panic(fmt.Sprintf("testutil: invalid task %q: %v", b.name, err))
	}
	return task
}
