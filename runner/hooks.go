package runner

import (
	"context"
	"sync"

	"github.com/labelloop/labelloop/core"
	"github.com/labelloop/labelloop/snapshot"
)

// HookType defines the lifecycle points where hooks can be executed.
//
// Hooks provide a mechanism for observing the run loop without modifying
// its logic. They are executed synchronously: a hook returning an error
// terminates the run, so implementations should be fast and handle their own
// failures where termination is not intended.
type HookType string

const (
	// HookBeforeItem is triggered before an item is presented.
	// Use for progress reporting, auditing or pre-fetching.
	HookBeforeItem HookType = "before_item"

	// HookAfterCommit is triggered after an item's answers are committed.
	// Use for metrics, notifications or periodic persistence.
	HookAfterCommit HookType = "after_commit"
)

// HookContext provides context information for hook execution.
type HookContext struct {
	// Session is the session being annotated.
	Session *core.Session

	// ID identifies the item the run is positioned on.
	ID core.ItemID

	// Position is the zero-based position in the current work list.
	Position int

	// Total is the work list length.
	Total int

	// Record is the freshly committed ledger row. Nil for HookBeforeItem.
	Record *core.Record
}

// Hook defines the interface for run lifecycle observers.
type Hook interface {
	// Type returns the hook type this implementation handles.
	Type() HookType

	// Execute performs the hook logic. Returning an error terminates the run.
	Execute(ctx context.Context, hookCtx *HookContext) error
}

// FunctionHook wraps a function as a hook implementation.
//
// Example:
//
//	progress := NewFunctionHook(HookBeforeItem, func(_ context.Context, hc *HookContext) error {
//	    log.Printf("presenting %s (%d/%d)", hc.ID, hc.Position+1, hc.Total)
//	    return nil
//	})
type FunctionHook struct {
	hookType HookType
	fn       func(ctx context.Context, hookCtx *HookContext) error
}

// NewFunctionHook creates a new function-based hook.
func NewFunctionHook(hookType HookType, fn func(ctx context.Context, hookCtx *HookContext) error) *FunctionHook {
	return &FunctionHook{hookType: hookType, fn: fn}
}

// Type returns the hook type this function handles.
func (h *FunctionHook) Type() HookType { return h.hookType }

// Execute calls the wrapped function with the provided context.
func (h *FunctionHook) Execute(ctx context.Context, hookCtx *HookContext) error {
	return h.fn(ctx, hookCtx)
}

// HookManager routes hook execution to registered hooks in registration
// order. Registration is guarded so hooks may be added after construction;
// execution takes a snapshot of the registered hooks.
type HookManager struct {
	mu    sync.RWMutex
	hooks map[HookType][]Hook
}

// NewHookManager creates an empty hook manager.
func NewHookManager() *HookManager {
	return &HookManager{hooks: make(map[HookType][]Hook)}
}

// Register adds a hook for its declared type. Multiple hooks per type
// execute in registration order.
func (m *HookManager) Register(hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[hook.Type()] = append(m.hooks[hook.Type()], hook)
}

// Execute runs all registered hooks for the given type. The first error
// stops execution and is returned.
func (m *HookManager) Execute(ctx context.Context, hookType HookType, hookCtx *HookContext) error {
	m.mu.RLock()
	hooks := append([]Hook{}, m.hooks[hookType]...)
	m.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook.Execute(ctx, hookCtx); err != nil {
			return err
		}
	}
	return nil
}

// SnapshotEvery returns an after-commit hook that captures and stores a
// session snapshot every n commits, keyed by the session name. A crash
// between autosaves loses at most n-1 commits of the current run.
func SnapshotEvery(n int, store core.SnapshotStore) Hook {
	if n < 1 {
		n = 1
	}
	var mu sync.Mutex
	commits := 0
	return NewFunctionHook(HookAfterCommit, func(_ context.Context, hookCtx *HookContext) error {
		mu.Lock()
		defer mu.Unlock()
		commits++
		if commits%n != 0 {
			return nil
		}

		snap, err := snapshot.Capture(hookCtx.Session)
		if err != nil {
			return err
		}
		blob, err := snapshot.Encode(snap)
		if err != nil {
			return err
		}
		return store.Put(hookCtx.Session.Name(), blob)
	})
}
