package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labelloop/labelloop/annotate"
	"github.com/labelloop/labelloop/core"
	"github.com/labelloop/labelloop/internal/util"
	"github.com/labelloop/labelloop/logging"
)

// State is the lifecycle phase of a run.
type State string

const (
	// StateIdle means no run has started (or the last Run call no-opped).
	StateIdle State = "idle"
	// StateRunning means a run is walking its work list.
	StateRunning State = "running"
	// StateCompleted means the last run exhausted its work list.
	StateCompleted State = "completed"
	// StateAborted means the last run stopped early (stop signal,
	// cancellation or failure).
	StateAborted State = "aborted"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Hooks observe run lifecycle points (before item, after commit).
	Hooks []Hook
	// Logger receives run progress messages (defaults to NoOp).
	Logger logging.Logger
}

// StartOptions configures a single Run call.
type StartOptions struct {
	// IDs restricts the run to an explicit work list. An unknown id fails
	// the run; it is never silently dropped. Nil means all dataset ids.
	IDs []core.ItemID
	// User overrides (and persists onto) the session's reviewer name.
	User string
	// Redo re-presents items that already have committed answers.
	Redo bool
}

// Outcome summarizes a terminated run.
type Outcome struct {
	RunID     string // Unique id of this run
	State     State  // Terminal state (completed or aborted; idle if no-op)
	Presented int    // Items presented to the annotator
	Committed int    // Items whose answers were committed
}

// Runner drives the annotation loop over a session. Public methods are safe
// for concurrent use, but only one run may be in flight at a time: the
// session controller is single-writer by design.
type Runner struct {
	hooks  *HookManager
	logger logging.Logger

	mu      sync.RWMutex
	state   State
	running bool
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	hooks := NewHookManager()
	for _, h := range opts.Hooks {
		hooks.Register(h)
	}

	return &Runner{
		hooks:  hooks,
		logger: opts.Logger,
		state:  StateIdle,
	}
}

// State returns the lifecycle phase of the most recent run.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Hooks returns the runner's hook manager for late registration.
func (r *Runner) Hooks() *HookManager { return r.hooks }

// Run walks the resolved work list once. It is re-entrant: each call
// recomputes the work list fresh against current ledger state, so items
// committed by a previous call (or this one) are excluded unless redo.
//
// With no dataset attached the call is a no-op returning core.ErrNoData and
// no state transition. A stop signal from the annotator terminates the run
// cleanly (State Aborted, nil error); remaining items stay eligible.
func (r *Runner) Run(
	ctx context.Context,
	sess *core.Session,
	annotator annotate.Annotator,
	optFns ...func(o *StartOptions),
) (Outcome, error) {
	opts := StartOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.User != "" {
		sess.SetUser(opts.User)
	}

	data, err := sess.Data()
	if err != nil {
		r.logger.Warn("run skipped: no data attached session=%s", sess.Name())
		return Outcome{State: r.State()}, err
	}

	if err := r.acquire(); err != nil {
		return Outcome{State: r.State()}, err
	}
	defer r.release()

	runID := util.NewID()
	start := time.Now()

	workList, err := r.resolveWorkList(sess, data, opts)
	if err != nil {
		return Outcome{RunID: runID, State: r.State()}, err
	}

	r.setState(StateRunning)
	r.logger.Info("run started run_id=%s session=%s items=%d redo=%t", runID, sess.Name(), len(workList), opts.Redo)

	outcome := Outcome{RunID: runID, State: StateRunning}
	user := sess.User()

	for i, id := range workList {
		// Cancellation and stop are observed between items, never mid-commit.
		if err := ctx.Err(); err != nil {
			r.setState(StateAborted)
			outcome.State = StateAborted
			return outcome, err
		}

		committed, presented, err := r.presentItem(ctx, sess, data, annotator, id, i, len(workList), user)
		if presented {
			outcome.Presented++
		}
		if committed {
			outcome.Committed++
		}
		if err == nil {
			continue
		}
		r.setState(StateAborted)
		outcome.State = StateAborted
		if errors.Is(err, annotate.ErrStop) {
			r.logger.Info("run stopped run_id=%s presented=%d committed=%d duration=%s", runID, outcome.Presented, outcome.Committed, time.Since(start))
			return outcome, nil
		}
		r.logger.Error("run failed run_id=%s item=%s: %v", runID, string(id), err)
		return outcome, err
	}

	r.setState(StateCompleted)
	outcome.State = StateCompleted
	r.logger.Info("run completed run_id=%s presented=%d committed=%d duration=%s", runID, outcome.Presented, outcome.Committed, time.Since(start))
	return outcome, nil
}

// presentItem presents one item until its answers commit, the annotator
// signals stop, or a non-validation error occurs. Validation failures
// re-present the same item with the failure attached; retries are bounded by
// the annotator's own policy, not the runner's. The returns report whether
// the item's answers committed and whether it was presented at all.
func (r *Runner) presentItem(
	ctx context.Context,
	sess *core.Session,
	data core.Dataset,
	annotator annotate.Annotator,
	id core.ItemID,
	position, total int,
	user string,
) (committed, presented bool, err error) {
	fields, err := data.Fields(id)
	if err != nil {
		return false, false, err
	}

	prompt := annotate.Prompt{
		ID:     id,
		Fields: fields,
		Tasks:  sess.Tasks(),
		Progress: annotate.Progress{
			Position:    position,
			Total:       total,
			SessionName: sess.Name(),
		},
	}

	if err := r.hooks.Execute(ctx, HookBeforeItem, &HookContext{
		Session:  sess,
		ID:       id,
		Position: position,
		Total:    total,
	}); err != nil {
		return false, false, fmt.Errorf("before-item hook failed: %w", err)
	}

	for {
		values, err := annotator.Annotate(ctx, prompt)
		if err != nil {
			return false, true, err
		}

		if err := sess.Ledger().Upsert(id, values, user); err != nil {
			var invalid *core.InvalidAnswerError
			if errors.As(err, &invalid) {
				r.logger.Warn("invalid answer item=%s task=%s: %s", string(id), invalid.Task, invalid.Reason)
				prompt.Err = invalid
				continue
			}
			return false, true, err
		}

		record, _ := sess.Ledger().Get(id)
		if err := r.hooks.Execute(ctx, HookAfterCommit, &HookContext{
			Session:  sess,
			ID:       id,
			Position: position,
			Total:    total,
			Record:   &record,
		}); err != nil {
			return true, true, fmt.Errorf("after-commit hook failed: %w", err)
		}

		r.logger.Debug("answers committed item=%s user=%s", string(id), user)
		return true, true, nil
	}
}

// resolveWorkList computes the ordered id list for one run: explicit ids (an
// unknown one fails the run) or all dataset ids, minus committed ids unless
// redo. Filtering preserves relative order; no sorting is performed.
func (r *Runner) resolveWorkList(sess *core.Session, data core.Dataset, opts StartOptions) ([]core.ItemID, error) {
	ids := opts.IDs
	if ids == nil {
		ids = data.IDs()
	} else {
		known := make(map[core.ItemID]bool, data.Len())
		for _, id := range data.IDs() {
			known[id] = true
		}
		for _, id := range ids {
			if !known[id] {
				return nil, &core.UnknownIDError{ID: id}
			}
		}
	}

	if opts.Redo {
		return ids, nil
	}

	ledger := sess.Ledger()
	remaining := make([]core.ItemID, 0, len(ids))
	for _, id := range ids {
		if !ledger.Has(id) {
			remaining = append(remaining, id)
		}
	}
	return remaining, nil
}

func (r *Runner) acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("a run is already in progress")
	}
	r.running = true
	return nil
}

func (r *Runner) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}
