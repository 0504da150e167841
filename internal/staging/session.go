package staging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultCommitTimeout = 15 * time.Second

type State int

const (
	StateIdle State = iota
	StateStaging
	StateReviewing
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStaging:
		return "staging"
	case StateReviewing:
		return "reviewing"
	case StateCommitting:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type EventKind string

const (
	EventRefreshed EventKind = "refreshed"
	EventStaged    EventKind = "staged"
	EventDiscarded EventKind = "discarded"
	EventCommitted EventKind = "committed"
)

// Event is delivered to observers after a successful operation.
type Event struct {
	Kind    EventKind
	State   State
	Pending int
}

// Observer is called outside the session lock, so it may call back into the session.
type Observer func(Event)

type Option func(*Session)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithCommitTimeout bounds the fan-out of a commit. Zero disables the bound.
func WithCommitTimeout(d time.Duration) Option {
	return func(s *Session) { s.commitTimeout = d }
}

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// Session owns the stock list of one branch together with its pending deltas and
// drives the stage, review and commit workflow against a Backend.
type Session struct {
	backend       Backend
	branchID      uuid.UUID
	log           zerolog.Logger
	commitTimeout time.Duration

	mu        sync.Mutex
	rows      []StockRow
	index     map[uuid.UUID]int
	store     *DeltaStore
	state     State
	stale     bool // rows predate a committed change; cleared by a successful Refresh
	observers []Observer
}

func NewSession(backend Backend, branchID uuid.UUID, opts ...Option) *Session {
	s := &Session{
		backend:       backend,
		branchID:      branchID,
		log:           zerolog.Nop(),
		commitTimeout: DefaultCommitTimeout,
		index:         make(map[uuid.UUID]int),
		store:         NewDeltaStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) BranchID() uuid.UUID { return s.branchID }

// Subscribe registers an observer for subsequent events.
func (s *Session) Subscribe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Refresh replaces the stock list with the backend's authoritative one.
// Pending deltas are kept; entries whose row disappeared become stale.
func (s *Session) Refresh(ctx context.Context) error {
	rows, err := s.backend.FetchStocks(ctx, s.branchID)
	if err != nil {
		return fmt.Errorf("fetch stocks: %w", err)
	}

	index := make(map[uuid.UUID]int, len(rows))
	for i, r := range rows {
		index[r.ID] = i
	}

	s.mu.Lock()
	s.rows = rows
	s.index = index
	s.stale = false
	for _, c := range ProjectChanges(rows, s.store) {
		if c.NewQuantity < 0 {
			s.log.Warn().Str("stock_id", c.Row.ID.String()).Int("quantity", c.Row.Quantity).
				Int("delta", c.Delta).Msg("pending change now goes below zero")
		}
	}
	ev := s.eventLocked(EventRefreshed)
	s.mu.Unlock()

	s.notify(ev)
	return nil
}

// Stale reports whether the stock list must be refreshed before staging or committing.
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Rows returns a copy of the last fetched stock list.
func (s *Session) Rows() []StockRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StockRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// Quantity returns base plus pending delta for the row.
func (s *Session) Quantity(id uuid.UUID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return 0, false
	}
	return s.rows[i].Quantity + s.store.Delta(id), true
}

func (s *Session) Delta(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delta(id)
}

func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len()
}

func (s *Session) HasPendingChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.HasPendingChanges()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stage records amount against the row. applied is false when the adjustment would
// make the displayed quantity negative; the store is untouched in that case.
func (s *Session) Stage(id uuid.UUID, amount int) (applied bool, err error) {
	s.mu.Lock()
	switch {
	case s.state == StateCommitting:
		s.mu.Unlock()
		return false, ErrCommitInProgress
	case s.state == StateReviewing:
		s.mu.Unlock()
		return false, ErrReadOnly
	case s.stale:
		s.mu.Unlock()
		return false, ErrStale
	case amount == 0:
		s.mu.Unlock()
		return false, ErrInvalidAmount
	}
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false, ErrUnknownRow
	}

	if !s.store.Stage(id, s.rows[i].Quantity, amount) {
		s.mu.Unlock()
		s.log.Debug().Str("stock_id", id.String()).Int("amount", amount).Msg("stage rejected")
		return false, nil
	}
	s.state = s.restingStateLocked()
	ev := s.eventLocked(EventStaged)
	s.mu.Unlock()

	s.notify(ev)
	return true, nil
}

// Changes is the review projection of the current pending deltas.
func (s *Session) Changes() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ProjectChanges(s.rows, s.store)
}

// Review moves a session with pending changes into the read-only review state and
// returns the projection to confirm.
func (s *Session) Review() ([]Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCommitting {
		return nil, ErrCommitInProgress
	}
	if s.store.HasPendingChanges() {
		s.state = StateReviewing
	}
	return ProjectChanges(s.rows, s.store), nil
}

// CancelReview returns to editing without touching the pending deltas.
func (s *Session) CancelReview() {
	s.mu.Lock()
	if s.state == StateReviewing {
		s.state = s.restingStateLocked()
	}
	s.mu.Unlock()
}

// DiscardAll clears every pending delta.
func (s *Session) DiscardAll() error {
	s.mu.Lock()
	if s.state == StateCommitting {
		s.mu.Unlock()
		return ErrCommitInProgress
	}
	s.store.DiscardAll()
	s.state = StateIdle
	ev := s.eventLocked(EventDiscarded)
	s.mu.Unlock()

	s.notify(ev)
	return nil
}

type commitJob struct {
	update StockUpdate
	err    error
}

// Commit sends one update per pending delta concurrently. The store is cleared and
// the list re-fetched only when every update succeeds; otherwise the store is left
// exactly as it was and a *CommitError is returned.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateCommitting {
		s.mu.Unlock()
		return ErrCommitInProgress
	}
	if s.stale {
		s.mu.Unlock()
		return ErrStale
	}
	entries := s.store.Entries()
	if len(entries) == 0 {
		s.mu.Unlock()
		return nil
	}

	jobs := make([]commitJob, 0, len(entries))
	for _, e := range entries {
		job := commitJob{update: StockUpdate{ID: e.ID, Delta: e.Delta}}
		i, ok := s.index[e.ID]
		switch {
		case !ok:
			job.err = fmt.Errorf("stock %s: %w", e.ID, ErrRowMissing)
		case s.rows[i].Quantity+e.Delta < 0:
			job.err = fmt.Errorf("stock %s: %w", e.ID, ErrNegativeQuantity)
		default:
			job.update.Quantity = s.rows[i].Quantity + e.Delta
		}
		jobs = append(jobs, job)
	}
	s.state = StateCommitting
	s.mu.Unlock()

	s.log.Debug().Str("branch_id", s.branchID.String()).Int("updates", len(jobs)).Msg("committing stock changes")

	if err := s.fanOut(ctx, jobs); err != nil {
		s.mu.Lock()
		s.state = StateStaging
		s.mu.Unlock()
		s.log.Warn().Err(err).Str("branch_id", s.branchID.String()).Msg("commit failed, pending changes kept")
		return err
	}

	s.mu.Lock()
	s.store.DiscardAll()
	s.state = StateIdle
	ev := s.eventLocked(EventCommitted)
	s.mu.Unlock()
	s.notify(ev)

	if err := s.Refresh(ctx); err != nil {
		s.mu.Lock()
		s.stale = true
		s.mu.Unlock()
		s.log.Warn().Err(err).Str("branch_id", s.branchID.String()).Msg("refresh after commit failed, stock list is stale")
		return fmt.Errorf("refresh after commit: %w", err)
	}
	return nil
}

func (s *Session) fanOut(ctx context.Context, jobs []commitJob) error {
	if s.commitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commitTimeout)
		defer cancel()
	}

	var failed, succeeded atomic.Int32
	var g errgroup.Group
	for _, job := range jobs {
		g.Go(func() error {
			if job.err != nil {
				failed.Add(1)
				return job.err
			}
			if err := s.backend.UpdateStock(ctx, job.update); err != nil {
				failed.Add(1)
				s.log.Debug().Err(err).Str("stock_id", job.update.ID.String()).Msg("stock update failed")
				return fmt.Errorf("stock %s: %w", job.update.ID, err)
			}
			succeeded.Add(1)
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		// updates share ctx; wait so none of them lands after a later commit
		err = <-done
		if err != nil {
			return &CommitError{Failed: len(jobs) - int(succeeded.Load()), Total: len(jobs), Err: ctx.Err()}
		}
	}
	if err != nil {
		return &CommitError{Failed: int(failed.Load()), Total: len(jobs), Err: err}
	}
	return nil
}

func (s *Session) restingStateLocked() State {
	if s.store.HasPendingChanges() {
		return StateStaging
	}
	return StateIdle
}

func (s *Session) eventLocked(kind EventKind) Event {
	return Event{Kind: kind, State: s.state, Pending: s.store.Len()}
}

func (s *Session) notify(ev Event) {
	s.mu.Lock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o(ev)
	}
}
