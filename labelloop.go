// Package labelloop provides a high-level façade over the annotation session
// engine: tasks, datasets, the answer ledger, the run loop and snapshot
// persistence. Most applications interact with this package by:
//  1. Creating an Engine via New() with tasks and a data collection
//  2. Starting a run with an annotator (console, model-assisted or custom)
//  3. Inspecting Annotated()/Merged() and saving snapshots for resumption
//
// The façade delegates orchestration to runner.Runner while keeping setup
// and usage ergonomics concise. All defaults are safe for local development;
// durable snapshot stores and structured loggers plug in via Options.
package labelloop

import (
	"context"

	"github.com/labelloop/labelloop/annotate"
	"github.com/labelloop/labelloop/core"
	"github.com/labelloop/labelloop/dataset"
	"github.com/labelloop/labelloop/logging"
	"github.com/labelloop/labelloop/runner"
	"github.com/labelloop/labelloop/snapshot"
)

// Options configures the Engine instance.
type Options struct {
	// Name is the session display name.
	Name string

	// User is the default reviewer name recorded on commits.
	User string

	// Data is the collection to annotate: an ordered sequence, a keyed
	// mapping, a *core.Table, anything registered with the dataset package
	// or a ready-made core.Dataset. Nil creates a data-less session; runs
	// no-op until data is attached.
	Data any

	// DataOptions tune adapter selection (id column, display columns).
	DataOptions []func(o *dataset.Options)

	// IncludeData controls whether snapshots carry the bulk data payload.
	IncludeData bool

	// Hooks observe the run lifecycle (before item, after commit).
	Hooks []runner.Hook

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Engine is the high-level façade aggregating a session and its runner.
type Engine struct {
	opts   Options
	sess   *core.Session
	runner *runner.Runner
}

// New creates an Engine over the given tasks with optional overrides.
func New(tasks []core.Task, optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Name:   core.DefaultSessionName,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	sess, err := core.NewSession(tasks, func(o *core.SessionOptions) {
		o.Name = opts.Name
		o.User = opts.User
		o.IncludeData = opts.IncludeData
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	return newEngine(sess, opts)
}

// FromTable creates an Engine whose tasks are inferred from a previously
// exported annotation table; existing cell values seed the ledger, so prior
// answers are skipped on the next run unless redo is requested.
func FromTable(table *core.Table, optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Name:   core.DefaultSessionName,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	sess, err := core.NewSessionFromTable(table, func(o *core.SessionOptions) {
		o.Name = opts.Name
		o.User = opts.User
		o.IncludeData = opts.IncludeData
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	return newEngine(sess, opts)
}

// FromSnapshot creates an Engine from a decoded snapshot. If the snapshot
// omits the data payload the session reports core.ErrNoData until a dataset
// is re-attached; ledger inspection stays usable either way.
func FromSnapshot(snap *snapshot.Snapshot, optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	sess, err := snapshot.Restore(snap, func(o *core.SessionOptions) {
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	opts.Name = sess.Name()
	return newEngine(sess, opts)
}

// Load fetches, decodes and restores the snapshot stored under name.
func Load(store core.SnapshotStore, name string, optFns ...func(o *Options)) (*Engine, error) {
	blob, err := store.Get(name)
	if err != nil {
		return nil, &core.PersistenceError{Op: "load", Err: err}
	}
	snap, err := snapshot.Decode(blob)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(snap, optFns...)
}

func newEngine(sess *core.Session, opts Options) (*Engine, error) {
	if opts.Data != nil {
		ds, err := dataset.New(opts.Data, opts.DataOptions...)
		if err != nil {
			return nil, err
		}
		sess.AttachData(ds)
	}

	r := runner.New(func(o *runner.Options) {
		o.Hooks = opts.Hooks
		o.Logger = opts.Logger
	})

	return &Engine{opts: opts, sess: sess, runner: r}, nil
}

// Session returns the underlying session aggregate.
func (e *Engine) Session() *core.Session { return e.sess }

// Runner returns the underlying runner (state inspection, late hooks).
func (e *Engine) Runner() *runner.Runner { return e.runner }

// AttachData adapts and attaches a data collection to the session.
func (e *Engine) AttachData(v any, optFns ...func(o *dataset.Options)) error {
	ds, err := dataset.New(v, optFns...)
	if err != nil {
		return err
	}
	e.sess.AttachData(ds)
	return nil
}

// Start runs the annotation loop once with the given annotator. Items with
// committed answers are skipped unless redo is requested; the annotator's
// stop signal terminates cleanly with remaining items eligible for the next
// Start call.
func (e *Engine) Start(
	ctx context.Context,
	annotator annotate.Annotator,
	optFns ...func(o *runner.StartOptions),
) (runner.Outcome, error) {
	return e.runner.Run(ctx, e.sess, annotator, optFns...)
}

// Annotated exports all committed answers as a flat table.
func (e *Engine) Annotated() *core.Table { return e.sess.Annotated() }

// Merged joins source data fields with committed answers under the DATA and
// ANNOTATIONS column groups.
func (e *Engine) Merged() (*core.Table, error) { return e.sess.Merged() }

// Snapshot captures the session as a serializable snapshot.
func (e *Engine) Snapshot() (*snapshot.Snapshot, error) {
	return snapshot.Capture(e.sess)
}

// Save captures, encodes and stores a snapshot under name.
func (e *Engine) Save(store core.SnapshotStore, name string) error {
	snap, err := e.Snapshot()
	if err != nil {
		return err
	}
	blob, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}
	if err := store.Put(name, blob); err != nil {
		return &core.PersistenceError{Op: "save", Err: err}
	}
	return nil
}
