package staging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	rows     []StockRow
	fail     map[uuid.UUID]error
	block    chan struct{}
	fetchErr error
	fetches  int
	updates  []StockUpdate
}

func newFakeBackend(rows ...StockRow) *fakeBackend {
	return &fakeBackend{rows: rows, fail: make(map[uuid.UUID]error)}
}

func (f *fakeBackend) FetchStocks(_ context.Context, _ uuid.UUID) ([]StockRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]StockRow, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeBackend) UpdateStock(ctx context.Context, u StockUpdate) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	if err := f.fail[u.ID]; err != nil {
		return err
	}
	for i := range f.rows {
		if f.rows[i].ID == u.ID {
			f.rows[i].Quantity = u.Quantity
		}
	}
	return nil
}

func (f *fakeBackend) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func newTestSession(t *testing.T, backend *fakeBackend, opts ...Option) *Session {
	t.Helper()
	s := NewSession(backend, uuid.New(), opts...)
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func TestSession_StageUpdatesEffectiveQuantity(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 3}
	s := newTestSession(t, newFakeBackend(row))

	applied, err := s.Stage(row.ID, 1)
	require.NoError(t, err)
	assert.True(t, applied)

	qty, ok := s.Quantity(row.ID)
	require.True(t, ok)
	assert.Equal(t, 4, qty)
	assert.Equal(t, StateStaging, s.State())
	assert.Equal(t, 3, s.Rows()[0].Quantity, "fetched row is never mutated")
}

func TestSession_StageRejectionIsSilent(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 0}
	s := newTestSession(t, newFakeBackend(row))

	applied, err := s.Stage(row.ID, -1)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.False(t, s.HasPendingChanges())
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_StageInputErrors(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 1}
	s := newTestSession(t, newFakeBackend(row))

	_, err := s.Stage(uuid.New(), 1)
	assert.ErrorIs(t, err, ErrUnknownRow)

	_, err = s.Stage(row.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSession_ReturnsToIdleWhenNetIsZero(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 1}
	s := newTestSession(t, newFakeBackend(row))

	s.Stage(row.ID, 1)
	s.Stage(row.ID, -1)

	assert.False(t, s.HasPendingChanges())
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_ReviewIsReadOnly(t *testing.T) {
	row := StockRow{ID: uuid.New(), ProductName: "Paha Atas", Quantity: 2}
	s := newTestSession(t, newFakeBackend(row))
	s.Stage(row.ID, 1)

	changes, err := s.Review()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, 3, changes[0].NewQuantity)
	assert.Equal(t, StateReviewing, s.State())

	_, err = s.Stage(row.ID, 1)
	assert.ErrorIs(t, err, ErrReadOnly)

	s.CancelReview()
	assert.Equal(t, StateStaging, s.State())
	applied, err := s.Stage(row.ID, 1)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestSession_ReviewWithoutChangesStaysIdle(t *testing.T) {
	s := newTestSession(t, newFakeBackend(StockRow{ID: uuid.New(), Quantity: 1}))

	changes, err := s.Review()
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_CommitClearsOnFullSuccess(t *testing.T) {
	a := StockRow{ID: uuid.New(), Quantity: 3}
	b := StockRow{ID: uuid.New(), Quantity: 5}
	backend := newFakeBackend(a, b)
	s := newTestSession(t, backend)

	s.Stage(a.ID, 2)
	s.Stage(b.ID, -1)
	_, err := s.Review()
	require.NoError(t, err)

	require.NoError(t, s.Commit(context.Background()))

	assert.False(t, s.HasPendingChanges())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 2, backend.fetchCount(), "initial fetch plus re-fetch after commit")
	assert.ElementsMatch(t, []StockUpdate{
		{ID: a.ID, Quantity: 5, Delta: 2},
		{ID: b.ID, Quantity: 4, Delta: -1},
	}, backend.updates)

	qty, _ := s.Quantity(a.ID)
	assert.Equal(t, 5, qty)
	assert.Equal(t, 5, s.Rows()[0].Quantity)
}

func TestSession_FailedRefetchAfterCommitBlocksUntilRefresh(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 3}
	backend := newFakeBackend(row)
	s := newTestSession(t, backend)

	s.Stage(row.ID, 2)
	backend.mu.Lock()
	backend.fetchErr = errors.New("network down")
	backend.mu.Unlock()

	err := s.Commit(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCommitFailed)
	assert.False(t, s.HasPendingChanges())
	assert.True(t, s.Stale())

	_, err = s.Stage(row.ID, 1)
	assert.ErrorIs(t, err, ErrStale)
	assert.ErrorIs(t, s.Commit(context.Background()), ErrStale)
	assert.Len(t, backend.updates, 1)

	backend.mu.Lock()
	backend.fetchErr = nil
	backend.mu.Unlock()
	require.NoError(t, s.Refresh(context.Background()))
	assert.False(t, s.Stale())

	applied, err := s.Stage(row.ID, 1)
	require.NoError(t, err)
	require.True(t, applied)
	require.NoError(t, s.Commit(context.Background()))
	assert.Equal(t, StockUpdate{ID: row.ID, Quantity: 6, Delta: 1}, backend.updates[1])
}

func TestSession_CommitPreservesOnAnyFailure(t *testing.T) {
	a := StockRow{ID: uuid.New(), Quantity: 3}
	b := StockRow{ID: uuid.New(), Quantity: 5}
	backend := newFakeBackend(a, b)
	backend.fail[b.ID] = errors.New("boom")
	s := newTestSession(t, backend)

	s.Stage(a.ID, 1)
	s.Stage(b.ID, 1)

	err := s.Commit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommitFailed)

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, 1, commitErr.Failed)
	assert.Equal(t, 2, commitErr.Total)

	assert.Equal(t, StateStaging, s.State())
	assert.Equal(t, 1, s.Delta(a.ID), "succeeded row stays pending")
	assert.Equal(t, 1, s.Delta(b.ID))
	assert.Equal(t, 1, backend.fetchCount(), "no re-fetch after a failed commit")
}

func TestSession_RetryAfterPartialFailureIsIdempotent(t *testing.T) {
	a := StockRow{ID: uuid.New(), Quantity: 3}
	b := StockRow{ID: uuid.New(), Quantity: 5}
	backend := newFakeBackend(a, b)
	backend.fail[b.ID] = errors.New("boom")
	s := newTestSession(t, backend)

	s.Stage(a.ID, 1)
	s.Stage(b.ID, 1)
	require.Error(t, s.Commit(context.Background()))

	delete(backend.fail, b.ID)
	require.NoError(t, s.Commit(context.Background()))

	rows := s.Rows()
	assert.Equal(t, 4, rows[0].Quantity, "absolute target is not applied twice")
	assert.Equal(t, 6, rows[1].Quantity)
}

func TestSession_CommitEmptyStoreIsNoop(t *testing.T) {
	backend := newFakeBackend(StockRow{ID: uuid.New(), Quantity: 1})
	s := newTestSession(t, backend)

	require.NoError(t, s.Commit(context.Background()))
	assert.Empty(t, backend.updates)
	assert.Equal(t, 1, backend.fetchCount())
}

func TestSession_CommitFailsStaleEntryWithoutRequest(t *testing.T) {
	a := StockRow{ID: uuid.New(), Quantity: 3}
	gone := StockRow{ID: uuid.New(), Quantity: 3}
	backend := newFakeBackend(a, gone)
	s := newTestSession(t, backend)

	s.Stage(gone.ID, 1)
	s.Stage(a.ID, 1)

	backend.mu.Lock()
	backend.rows = backend.rows[:1]
	backend.mu.Unlock()
	require.NoError(t, s.Refresh(context.Background()))

	assert.Len(t, s.Changes(), 1)

	err := s.Commit(context.Background())
	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.ErrorIs(t, err, ErrRowMissing)
	assert.Equal(t, 2, s.Pending())
	for _, u := range backend.updates {
		assert.NotEqual(t, gone.ID, u.ID)
	}
}

func TestSession_CommitTimeoutKeepsChanges(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 3}
	backend := newFakeBackend(row)
	backend.block = make(chan struct{})
	defer close(backend.block)
	s := newTestSession(t, backend, WithCommitTimeout(20*time.Millisecond))

	s.Stage(row.ID, 1)

	err := s.Commit(context.Background())
	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateStaging, s.State())
	assert.Equal(t, 1, s.Delta(row.ID))
}

// lateBackend keeps working for a while after its context is cancelled.
type lateBackend struct {
	*fakeBackend
	finished atomic.Int32
}

func (l *lateBackend) UpdateStock(ctx context.Context, _ StockUpdate) error {
	<-ctx.Done()
	time.Sleep(30 * time.Millisecond)
	l.finished.Add(1)
	return ctx.Err()
}

func TestSession_CommitTimeoutWaitsForInflightUpdates(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 3}
	backend := &lateBackend{fakeBackend: newFakeBackend(row)}
	s := NewSession(backend, uuid.New(), WithCommitTimeout(10*time.Millisecond))
	require.NoError(t, s.Refresh(context.Background()))
	s.Stage(row.ID, 1)

	err := s.Commit(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), backend.finished.Load(), "commit returns only after every update has returned")
	assert.Equal(t, StateStaging, s.State())
}

func TestSession_CommitFailsNegativeProjectionWithoutRequest(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 3}
	backend := newFakeBackend(row)
	s := newTestSession(t, backend)
	s.Stage(row.ID, -3)

	backend.mu.Lock()
	backend.rows[0].Quantity = 1
	backend.mu.Unlock()
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, -2, s.Changes()[0].NewQuantity)

	err := s.Commit(context.Background())
	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.ErrorIs(t, err, ErrNegativeQuantity)
	assert.Empty(t, backend.updates)
	assert.Equal(t, -3, s.Delta(row.ID))
}

func TestSession_MutationsBlockedWhileCommitting(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 3}
	backend := newFakeBackend(row)
	backend.block = make(chan struct{})
	s := newTestSession(t, backend)
	s.Stage(row.ID, 1)

	result := make(chan error, 1)
	go func() { result <- s.Commit(context.Background()) }()

	require.Eventually(t, func() bool { return s.State() == StateCommitting }, time.Second, time.Millisecond)

	_, err := s.Stage(row.ID, 1)
	assert.ErrorIs(t, err, ErrCommitInProgress)
	assert.ErrorIs(t, s.DiscardAll(), ErrCommitInProgress)
	assert.ErrorIs(t, s.Commit(context.Background()), ErrCommitInProgress)

	close(backend.block)
	require.NoError(t, <-result)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_DiscardAllAfterFailedCommit(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 3}
	backend := newFakeBackend(row)
	backend.fail[row.ID] = errors.New("boom")
	s := newTestSession(t, backend)

	s.Stage(row.ID, -2)
	require.Error(t, s.Commit(context.Background()))

	require.NoError(t, s.DiscardAll())
	assert.False(t, s.HasPendingChanges())
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_ObserverSeesSuccessfulOperations(t *testing.T) {
	row := StockRow{ID: uuid.New(), Quantity: 0}
	backend := newFakeBackend(row)

	var events []Event
	s := NewSession(backend, uuid.New(), WithObserver(func(ev Event) { events = append(events, ev) }))
	require.NoError(t, s.Refresh(context.Background()))

	s.Stage(row.ID, -1) // rejected, no event
	s.Stage(row.ID, 2)
	require.NoError(t, s.DiscardAll())
	s.Stage(row.ID, 1)
	require.NoError(t, s.Commit(context.Background()))

	kinds := make([]EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{
		EventRefreshed, EventStaged, EventDiscarded, EventStaged, EventCommitted, EventRefreshed,
	}, kinds)
	assert.Equal(t, 1, events[1].Pending)
	assert.Equal(t, StateIdle, events[4].State)
	assert.Equal(t, 0, events[4].Pending)
}
