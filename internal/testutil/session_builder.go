package testutil

import (
	"fmt"

	"github.com/labelloop/labelloop/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("review").
//		Tasks(flagTask).
//		Data(ds).
//		Commit("0", map[string]any{"flag": true}).
//		Build()
type SessionBuilder struct {
	name        string
	user        string
	includeData bool
	tasks       []core.Task
	data        core.Dataset
	commits     []commit
}

type commit struct {
	id     core.ItemID
	values map[string]any
}

// NewSessionBuilder creates a new builder for a session with the given name.
// Use chainable methods (Tasks, Data, User, Commit) then call Build.
func NewSessionBuilder(name string) *SessionBuilder {
	return &SessionBuilder{name: name}
}

// Tasks sets the session's task sequence (chainable).
func (b *SessionBuilder) Tasks(tasks ...core.Task) *SessionBuilder {
	b.tasks = append(b.tasks, tasks...)
	return b
}

// Data attaches a dataset (chainable).
func (b *SessionBuilder) Data(ds core.Dataset) *SessionBuilder {
	b.data = ds
	return b
}

// User sets the default reviewer name (chainable).
func (b *SessionBuilder) User(user string) *SessionBuilder {
	b.user = user
	return b
}

// IncludeData flags the session to persist its data payload (chainable).
func (b *SessionBuilder) IncludeData() *SessionBuilder {
	b.includeData = true
	return b
}

// Commit pre-populates a ledger row (chainable).
func (b *SessionBuilder) Commit(id core.ItemID, values map[string]any) *SessionBuilder {
	b.commits = append(b.commits, commit{id: id, values: values})
	return b
}

// Build returns a *core.Session with pre-populated ledger rows. It panics on
// invalid tasks or commits since tests should not construct them.
func (b *SessionBuilder) Build() *core.Session {
	sess, err := core.NewSession(b.tasks, func(o *core.SessionOptions) {
		o.Name = b.name
		o.User = b.user
		o.Data = b.data
		o.IncludeData = b.includeData
	})
	if err != nil {
		panic(fmt.Sprintf("testutil: invalid session %q: %v", b.name, err))
	}

	for _, c := range b.commits {
		if err := sess.Ledger().Upsert(c.id, c.values, b.user); err != nil {
			panic(fmt.Sprintf("testutil: invalid commit for %q: %v", string(c.id), err))
		}
	}

	return sess
}
