package core

import (
	"sync"

	"github.com/labelloop/labelloop/logging"
)

// DefaultSessionName is used when no display name is configured.
const DefaultSessionName = "LABELLOOP"

// SessionOptions configures construction of a Session.
type SessionOptions struct {
	// Name is the display name of the session.
	Name string
	// User is the default reviewer name recorded on commits.
	User string
	// Data is the dataset to annotate. A session may be created without
	// data, but runs are no-ops until data is attached.
	Data Dataset
	// IncludeData controls whether snapshots carry the bulk data payload.
	IncludeData bool
	// Logger receives session lifecycle messages (defaults to NoOp).
	Logger logging.Logger
}

// Session is the aggregate of tasks, ledger, attached dataset and metadata.
// It is safe for concurrent access; the ledger carries its own lock, the
// session guards its mutable user/data fields.
type Session struct {
	*loggerAdapter

	name        string
	includeData bool

	mu     sync.RWMutex
	user   string
	ledger *Ledger
	data   Dataset
}

// NewSession creates a session over the given tasks with an empty ledger.
func NewSession(tasks []Task, optFns ...func(o *SessionOptions)) (*Session, error) {
	ledger, err := NewLedger(tasks)
	if err != nil {
		return nil, err
	}
	return newSession(ledger, optFns...), nil
}

// NewSessionFromTable creates a session whose tasks are inferred from a
// previously exported annotation table; existing cell values seed the ledger.
func NewSessionFromTable(table *Table, optFns ...func(o *SessionOptions)) (*Session, error) {
	_, ledger, err := LedgerFromTable(table)
	if err != nil {
		return nil, err
	}
	return newSession(ledger, optFns...), nil
}

func newSession(ledger *Ledger, optFns ...func(o *SessionOptions)) *Session {
	opts := SessionOptions{
		Name:   DefaultSessionName,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Session{
		loggerAdapter: newLoggerAdapter(opts.Logger),
		name:          opts.Name,
		includeData:   opts.IncludeData,
		user:          opts.User,
		ledger:        ledger,
		data:          opts.Data,
	}
	s.LogDebug("session created name=%s tasks=%d", s.name, len(ledger.Tasks()))
	return s
}

// Name returns the session display name.
func (s *Session) Name() string { return s.name }

// IncludeData reports whether snapshots carry the bulk data payload.
func (s *Session) IncludeData() bool { return s.includeData }

// User returns the current default reviewer name.
func (s *Session) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetUser changes the default reviewer name recorded on commits.
func (s *Session) SetUser(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// Tasks returns a copy of the task sequence in declaration order.
func (s *Session) Tasks() []Task { return s.ledger.Tasks() }

// Ledger returns the session's answer ledger.
func (s *Session) Ledger() *Ledger { return s.ledger }

// Data returns the attached dataset or ErrNoData when none is loaded.
// Ledger inspection stays usable without data.
func (s *Session) Data() (Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, ErrNoData
	}
	return s.data, nil
}

// AttachData attaches (or replaces) the dataset. Detaching does not
// invalidate the ledger.
func (s *Session) AttachData(ds Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = ds
	if ds != nil {
		s.LogDebug("session data attached name=%s items=%d", s.name, ds.Len())
	}
}

// DetachData removes the dataset from the session.
func (s *Session) DetachData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.LogDebug("session data detached name=%s", s.name)
}

// Annotated exports all committed answers as a flat table.
func (s *Session) Annotated() *Table { return s.ledger.Table() }

// Merged joins source data fields with committed answers under the DATA and
// ANNOTATIONS column groups. Fails with ErrNoData when no dataset is loaded.
func (s *Session) Merged() (*Table, error) {
	data, err := s.Data()
	if err != nil {
		return nil, err
	}
	return s.ledger.MergeWith(data)
}
