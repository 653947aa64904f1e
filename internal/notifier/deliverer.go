package notifier

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/reminder"
)

// Deliverer shows a notification to the user
type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, n reminder.Notification) error
}

// LogDeliverer writes notifications to a writer and the log
type LogDeliverer struct {
	w   io.Writer
	now func() time.Time
}

// NewLogDeliverer writes to w, or stdout when w is nil
func NewLogDeliverer(w io.Writer) *LogDeliverer {
	if w == nil {
		w = os.Stdout
	}
	return &LogDeliverer{w: w, now: time.Now}
}

func (l *LogDeliverer) Name() string { return "log" }

func (l *LogDeliverer) Deliver(_ context.Context, n reminder.Notification) error {
	logger.Info("Reminder", "title", n.Title, "body", n.Body, "trigger", n.Trigger)
	_, err := fmt.Fprintf(l.w, "[%s] %s: %s\n", l.now().Format(constants.TimeFormat), n.Title, n.Body)
	return err
}

// Fallback tries each deliverer in order until one succeeds
type Fallback []Deliverer

func (f Fallback) Name() string { return "fallback" }

func (f Fallback) Deliver(ctx context.Context, n reminder.Notification) error {
	var errs []error
	for _, d := range f {
		err := d.Deliver(ctx, n)
		if err == nil {
			return nil
		}
		logger.Debug("Deliverer failed, trying next", "deliverer", d.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
	}
	if len(errs) == 0 {
		return stderrors.New("no deliverers configured")
	}
	return stderrors.Join(errs...)
}
