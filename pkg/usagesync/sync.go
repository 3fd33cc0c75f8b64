package usagesync

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State names the synchronizer's lifecycle phase.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateErrored State = "errored"
)

// Snapshot is a consistent view of the synchronizer for rendering. Exactly
// one of Entitlement and Err is set once the first call has completed.
type Snapshot struct {
	State       State
	Entitlement *Entitlement
	Err         *APIError
}

// UsageAPI is the slice of Client the synchronizer consumes.
type UsageAPI interface {
	Status(ctx context.Context, opts StatusOptions) (Entitlement, error)
	Increment(ctx context.Context) (Entitlement, error)
}

// Synchronizer keeps the last authoritative entitlement for one session.
// Displayed state only ever reflects a server response; there is no local
// speculative arithmetic. A refresh result is discarded when a later
// operation has already applied, so ordering is by logical sequence rather
// than by response arrival.
type Synchronizer struct {
	api      UsageAPI
	interval time.Duration
	onChange func(Snapshot)

	mu           sync.Mutex
	state        State
	ent          *Entitlement
	lastErr      *APIError
	seq          uint64
	appliedSeq   uint64
	incrementing bool
	paused       bool
	closed       bool
	timer        *time.Timer
}

// NewSynchronizer builds a synchronizer in the idle state. onChange, if
// non-nil, is invoked after every state transition with a snapshot; it runs
// on the calling goroutine and must not call back into the synchronizer.
func NewSynchronizer(api UsageAPI, interval time.Duration, onChange func(Snapshot)) *Synchronizer {
	return &Synchronizer{
		api:      api,
		interval: interval,
		onChange: onChange,
		state:    StateIdle,
	}
}

// Snapshot returns the current view.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state}
	if s.ent != nil {
		ent := *s.ent
		snap.Entitlement = &ent
	}
	if s.lastErr != nil {
		errCopy := *s.lastErr
		snap.Err = &errCopy
	}
	return snap
}

// CheckUsage fetches the current entitlement and stores it. A success clears
// any previous error; a failure stores the error and keeps no entitlement
// from the failed call.
func (s *Synchronizer) CheckUsage(ctx context.Context) (Snapshot, error) {
	seq, ok := s.begin(false)
	if !ok {
		return s.Snapshot(), errors.New("synchronizer closed")
	}

	ent, err := s.api.Status(ctx, StatusOptions{})
	return s.finish(seq, false, ent, err)
}

// IncrementUsage records one invocation after the external action succeeded.
// On success the local entitlement is replaced with the authoritative
// response; on failure the error is surfaced but the previously displayed
// entitlement is preserved.
func (s *Synchronizer) IncrementUsage(ctx context.Context) (Snapshot, error) {
	seq, ok := s.begin(true)
	if !ok {
		return s.Snapshot(), errors.New("synchronizer closed")
	}

	ent, err := s.api.Increment(ctx)
	return s.finish(seq, true, ent, err)
}

func (s *Synchronizer) begin(increment bool) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false
	}
	s.seq++
	s.state = StateLoading
	if increment {
		s.incrementing = true
	}
	s.notifyLocked()
	return s.seq, true
}

func (s *Synchronizer) finish(seq uint64, increment bool, ent Entitlement, err error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if increment {
		s.incrementing = false
	}
	if s.closed {
		return s.snapshotLocked(), errors.New("synchronizer closed")
	}

	// A later operation already applied its result; this response is stale.
	if seq <= s.appliedSeq {
		return s.snapshotLocked(), err
	}
	s.appliedSeq = seq

	if err != nil {
		s.state = StateErrored
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			s.lastErr = apiErr
		} else {
			s.lastErr = &APIError{Message: err.Error(), Code: "SYSTEM_ERROR"}
		}
		if !increment {
			s.ent = nil
		}
	} else {
		s.state = StateReady
		s.ent = &ent
		s.lastErr = nil
	}

	s.scheduleLocked()
	s.notifyLocked()
	return s.snapshotLocked(), err
}

// Pause cancels the pending refresh timer. Calls in flight still complete.
func (s *Synchronizer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.stopTimerLocked()
}

// Resume re-enables periodic refresh. The next refresh happens one interval
// from now; there is no immediate forced call.
func (s *Synchronizer) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.paused = false
	s.scheduleLocked()
}

// Close tears the synchronizer down. No timers remain pending and no further
// results are applied.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

func (s *Synchronizer) scheduleLocked() {
	if s.paused || s.closed || s.interval <= 0 || s.state != StateReady {
		return
	}
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.interval, s.refresh)
}

func (s *Synchronizer) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// refresh runs on the timer goroutine. An increment in flight suppresses the
// refresh entirely; the increment's response is newer by logical order.
func (s *Synchronizer) refresh() {
	s.mu.Lock()
	if s.closed || s.paused || s.incrementing {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	ent, err := s.api.Status(context.Background(), StatusOptions{})
	_, _ = s.finish(seq, false, ent, err)
}

func (s *Synchronizer) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshotLocked())
	}
}
