// Package notifier dispatches hydration reminders on the local machine: a
// gocron scheduler holds the pending one-time jobs and a Deliverer shows
// them through the tray companion or the log.
package notifier

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/metrics"
	"github.com/julianstephens/hydratemate/internal/reminder"
)

// DeliveredFunc is called after a reminder fired, whether or not delivery
// succeeded
type DeliveredFunc func(ctx context.Context, id string)

// Pending describes a scheduled reminder
type Pending struct {
	ID      string
	Title   string
	Trigger time.Time
}

// LocalDispatcher implements reminder.Dispatcher with one-time gocron jobs
type LocalDispatcher struct {
	mu          sync.Mutex
	sched       gocron.Scheduler
	jobs        map[string]pendingJob
	deliverer   Deliverer
	onDelivered DeliveredFunc
	permitted   bool
	metrics     *metrics.Recorder
}

type pendingJob struct {
	jobID   uuid.UUID
	title   string
	trigger time.Time
}

// DispatcherOption configures a LocalDispatcher
type DispatcherOption func(*LocalDispatcher)

// WithPermission sets the answer to RequestPermission
func WithPermission(granted bool) DispatcherOption {
	return func(d *LocalDispatcher) { d.permitted = granted }
}

func WithOnDelivered(fn DeliveredFunc) DispatcherOption {
	return func(d *LocalDispatcher) { d.onDelivered = fn }
}

func WithDispatcherMetrics(m *metrics.Recorder) DispatcherOption {
	return func(d *LocalDispatcher) { d.metrics = m }
}

// NewLocalDispatcher creates a dispatcher backed by its own gocron
// scheduler. Call Start before scheduling and Shutdown when done.
func NewLocalDispatcher(deliverer Deliverer, opts ...DispatcherOption) (*LocalDispatcher, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	d := &LocalDispatcher{
		sched:     s,
		jobs:      map[string]pendingJob{},
		deliverer: deliverer,
		permitted: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// SetOnDelivered replaces the delivery callback. It lets the scheduler that
// owns this dispatcher be wired after both were built.
func (d *LocalDispatcher) SetOnDelivered(fn DeliveredFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onDelivered = fn
}

func (d *LocalDispatcher) Start() {
	d.sched.Start()
}

func (d *LocalDispatcher) Shutdown() error {
	return d.sched.Shutdown()
}

func (d *LocalDispatcher) Schedule(_ context.Context, n reminder.Notification) (string, error) {
	id := uuid.NewString()

	d.mu.Lock()
	defer d.mu.Unlock()
	job, err := d.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(n.Trigger)),
		gocron.NewTask(d.fire, id, n),
		gocron.WithName(constants.NotificationType),
		gocron.WithTags(constants.NotificationType, id),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create reminder job: %w", err)
	}
	d.jobs[id] = pendingJob{jobID: job.ID(), title: n.Title, trigger: n.Trigger}
	logger.Debug("Reminder job created", "id", id, "job", job.ID(), "trigger", n.Trigger)
	return id, nil
}

// Cancel removes a pending reminder. Unknown and already fired ids are not
// an error.
func (d *LocalDispatcher) Cancel(_ context.Context, id string) error {
	d.mu.Lock()
	pj, ok := d.jobs[id]
	delete(d.jobs, id)
	d.mu.Unlock()
	if !ok {
		return nil
	}
	if err := d.sched.RemoveJob(pj.jobID); err != nil && !stderrors.Is(err, gocron.ErrJobNotFound) {
		return fmt.Errorf("failed to remove reminder job: %w", err)
	}
	return nil
}

func (d *LocalDispatcher) CancelAll(_ context.Context) error {
	d.mu.Lock()
	d.jobs = map[string]pendingJob{}
	d.mu.Unlock()
	d.sched.RemoveByTags(constants.NotificationType)
	return nil
}

func (d *LocalDispatcher) RequestPermission(_ context.Context) (bool, error) {
	return d.permitted, nil
}

// Pending lists scheduled reminders, soonest first
func (d *LocalDispatcher) Pending() []Pending {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Pending, 0, len(d.jobs))
	for id, pj := range d.jobs {
		out = append(out, Pending{ID: id, Title: pj.title, Trigger: pj.trigger})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trigger.Before(out[j].Trigger) })
	return out
}

func (d *LocalDispatcher) fire(id string, n reminder.Notification) {
	d.mu.Lock()
	_, tracked := d.jobs[id]
	delete(d.jobs, id)
	onDelivered := d.onDelivered
	d.mu.Unlock()
	if !tracked {
		return
	}

	ctx := context.Background()
	var err error
	if d.deliverer != nil {
		err = d.deliverer.Deliver(ctx, n)
	}
	d.metrics.IncDelivery(err == nil)
	if err != nil {
		logger.Error("Failed to deliver reminder", "id", id, "error", err)
	} else {
		logger.Info("Reminder delivered", "id", id)
	}

	if onDelivered != nil {
		onDelivered(ctx, id)
	}
}
