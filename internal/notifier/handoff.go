package notifier

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/reminder"
)

// HandoffDispatcher is used by short-lived commands. It answers permission
// from configuration and records the computed trigger, leaving delivery to
// the daemon, which reschedules when it sees the stored state change.
type HandoffDispatcher struct {
	mu        sync.Mutex
	permitted bool
	last      *reminder.Notification
}

func NewHandoffDispatcher(permitted bool) *HandoffDispatcher {
	return &HandoffDispatcher{permitted: permitted}
}

func (h *HandoffDispatcher) Schedule(_ context.Context, n reminder.Notification) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &n
	logger.Debug("Next reminder computed, delivery left to the daemon", "trigger", n.Trigger)
	return uuid.NewString(), nil
}

func (h *HandoffDispatcher) Cancel(context.Context, string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = nil
	return nil
}

func (h *HandoffDispatcher) CancelAll(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = nil
	return nil
}

func (h *HandoffDispatcher) RequestPermission(context.Context) (bool, error) {
	return h.permitted, nil
}

// Last returns the most recently computed reminder, if one is pending
func (h *HandoffDispatcher) Last() (reminder.Notification, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return reminder.Notification{}, false
	}
	return *h.last, true
}
