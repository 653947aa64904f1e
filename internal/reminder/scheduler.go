// Package reminder keeps at most one hydration reminder pending with a
// notification dispatcher, honouring quiet hours, smart anchoring and the
// platform's minimum lead time.
package reminder

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/metrics"
	"github.com/julianstephens/hydratemate/internal/models"
)

// ErrNoSource is returned by passes that need engine input before a Source
// was bound
var ErrNoSource = stderrors.New("reminder scheduler has no input source")

// Notification is a reminder handed to the dispatcher
type Notification struct {
	Title    string
	Body     string
	Trigger  time.Time
	Metadata map[string]string
}

// Dispatcher delivers notifications at a future instant
type Dispatcher interface {
	Schedule(ctx context.Context, n Notification) (string, error)
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) error
	RequestPermission(ctx context.Context) (bool, error)
}

// Input is what a pass needs to know about the hydration state
type Input struct {
	Settings   models.ReminderSettings
	Progress   float64
	LastIntake time.Time
}

// Source supplies the current Input. It is read when a pass runs, not when
// the pass was requested.
type Source interface {
	ReminderInput() Input
}

// State is the scheduler's lifecycle state
type State int

const (
	Disabled State = iota
	Scheduled
	QuietSuppressed
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case QuietSuppressed:
		return "quiet-suppressed"
	default:
		return "disabled"
	}
}

// Status is a snapshot of the scheduler for display
type Status struct {
	State     State
	PendingID string
	Trigger   time.Time
	LastError error
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLocation sets the zone quiet hours are evaluated in
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithPlatform selects the minimum lead time
func WithPlatform(p constants.Platform) Option {
	return func(s *Scheduler) { s.platform = p }
}

// WithPicker replaces the random message choice
func WithPicker(pick func(n int) int) Option {
	return func(s *Scheduler) { s.pick = pick }
}

// WithMetrics records scheduling outcomes
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// Scheduler tracks the single pending reminder. Passes are serialised.
type Scheduler struct {
	mu         sync.Mutex
	dispatcher Dispatcher
	source     Source
	now        func() time.Time
	loc        *time.Location
	platform   constants.Platform
	pick       func(n int) int
	metrics    *metrics.Recorder

	state     State
	pendingID string
	pendingAt time.Time
	granted   bool
	lastErr   error
}

func New(d Dispatcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		dispatcher: d,
		now:        time.Now,
		loc:        time.Local,
		platform:   constants.DefaultPlatform,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind sets the Source read by Reschedule and HandleDelivered
func (s *Scheduler) Bind(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = src
}

// Status returns the current state and pending reminder
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{State: s.state, PendingID: s.pendingID, Trigger: s.pendingAt, LastError: s.lastErr}
}

// Active reports whether a reminder is pending with the dispatcher
func (s *Scheduler) Active() bool {
	st := s.Status()
	return st.State != Disabled && st.PendingID != ""
}

// Reschedule runs a pass with the bound Source's current input
func (s *Scheduler) Reschedule(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return ErrNoSource
	}
	return s.pass(ctx, s.source.ReminderInput())
}

// Apply runs a pass with explicit input
func (s *Scheduler) Apply(ctx context.Context, in Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pass(ctx, in)
}

// HandleDelivered is called by the dispatcher after a reminder fired. When
// id is the tracked reminder it is cleared and the next one scheduled;
// stale ids are ignored.
func (s *Scheduler) HandleDelivered(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" || id != s.pendingID {
		logger.Debug("Ignoring delivery of untracked reminder", "id", id, "tracked", s.pendingID)
		return nil
	}
	s.pendingID = ""
	s.pendingAt = time.Time{}
	if s.source == nil {
		s.state = Disabled
		return ErrNoSource
	}
	return s.pass(ctx, s.source.ReminderInput())
}

// Stop cancels the pending reminder and disables the scheduler. Settings
// are not touched.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Disabled
	return s.fail(s.cancelPending(ctx))
}

func (s *Scheduler) pass(ctx context.Context, in Input) error {
	settings := in.Settings
	if err := settings.Validate(); err != nil {
		logger.Warn("Rejected reminder settings", "error", err)
		return err
	}

	if !settings.Enabled {
		s.state = Disabled
		return s.fail(s.cancelPending(ctx))
	}

	if err := s.ensurePermission(ctx); err != nil {
		s.state = Disabled
		if cerr := s.cancelPending(ctx); cerr != nil {
			logger.Warn("Failed to cancel reminder after permission denial", "error", cerr)
		}
		return s.fail(err)
	}

	now := s.now()
	floor := MinLead(s.platform)
	trig := ComputeTrigger(now, settings, in.LastIntake, floor, s.loc)

	if trig.Anchored && s.pendingID != "" && s.pendingAt.Equal(trig.At) {
		logger.Debug("Reminder already pending at anchored trigger", "id", s.pendingID, "at", trig.At)
		return nil
	}

	n := Notification{
		Title:    constants.NotificationTitle,
		Body:     Message(settings, in.Progress, s.pick),
		Trigger:  trig.At,
		Metadata: Metadata(now),
	}

	if err := s.cancelPending(ctx); err != nil {
		s.state = Disabled
		return s.fail(err)
	}

	id, err := s.dispatcher.Schedule(ctx, n)
	if err != nil {
		s.state = Disabled
		return s.fail(&errors.SchedulingError{Op: "schedule", Err: err})
	}

	s.pendingID = id
	s.pendingAt = trig.At
	s.state = Scheduled
	if trig.Deferred {
		s.state = QuietSuppressed
	}
	s.lastErr = nil
	s.metrics.IncReminderScheduled(trig.Deferred)
	logger.Info("Reminder scheduled", "id", id, "at", trig.At.In(s.loc).Format(time.RFC3339),
		"anchored", trig.Anchored, "quiet", trig.Deferred)
	return nil
}

func (s *Scheduler) ensurePermission(ctx context.Context) error {
	if s.granted {
		return nil
	}
	ok, err := s.dispatcher.RequestPermission(ctx)
	if err != nil {
		return &errors.SchedulingError{Op: "permission", Err: fmt.Errorf("%w: %v", errors.ErrPermissionDenied, err)}
	}
	if !ok {
		return &errors.SchedulingError{Op: "permission", Err: errors.ErrPermissionDenied}
	}
	s.granted = true
	return nil
}

// cancelPending cancels the tracked reminder, falling back to CancelAll.
// The id is kept when both fail so the next pass can retry.
func (s *Scheduler) cancelPending(ctx context.Context) error {
	if s.pendingID == "" {
		return nil
	}
	if err := s.dispatcher.Cancel(ctx, s.pendingID); err != nil {
		logger.Warn("Failed to cancel reminder, cancelling all", "id", s.pendingID, "error", err)
		if err := s.dispatcher.CancelAll(ctx); err != nil {
			return &errors.SchedulingError{Op: "cancel", Err: err}
		}
	}
	s.pendingID = ""
	s.pendingAt = time.Time{}
	return nil
}

func (s *Scheduler) fail(err error) error {
	s.lastErr = err
	if err == nil {
		return nil
	}
	var se *errors.SchedulingError
	if stderrors.As(err, &se) {
		s.metrics.IncSchedulingFailure(se.Op)
	}
	logger.Error("Reminder scheduling failed", "error", err)
	return err
}
