// Package metrics records engine and reminder activity as Prometheus
// metrics. A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/hydratemate/internal/constants"
)

// Recorder holds the application's collectors
type Recorder struct {
	once     sync.Once
	registry *prom.Registry

	intakeEntries      *prom.CounterVec
	intakeMl           *prom.CounterVec
	entriesRemoved     prom.Counter
	currentIntake      prom.Gauge
	progress           prom.Gauge
	streak             prom.Gauge
	persistFailures    *prom.CounterVec
	migrationDiscards  prom.Counter
	remindersScheduled *prom.CounterVec
	schedulingFailures *prom.CounterVec
	deliveries         *prom.CounterVec
}

// New constructs a Recorder and registers its collectors on reg, or on a
// fresh registry when reg is nil.
func New(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{registry: reg}
	r.once.Do(func() {
		ns := constants.AppName
		r.intakeEntries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "intake_entries_total",
			Help:      "Intake entries logged by drink type",
		}, []string{"type"})
		r.intakeMl = prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "intake_ml_total",
			Help:      "Millilitres logged by drink type",
		}, []string{"type"})
		r.entriesRemoved = prom.NewCounter(prom.CounterOpts{
			Namespace: ns,
			Name:      "entries_removed_total",
			Help:      "Intake entries removed",
		})
		r.currentIntake = prom.NewGauge(prom.GaugeOpts{
			Namespace: ns,
			Name:      "current_intake_ml",
			Help:      "Intake logged today",
		})
		r.progress = prom.NewGauge(prom.GaugeOpts{
			Namespace: ns,
			Name:      "goal_progress_percent",
			Help:      "Progress towards today's goal, clamped to 100",
		})
		r.streak = prom.NewGauge(prom.GaugeOpts{
			Namespace: ns,
			Name:      "streak_days",
			Help:      "Consecutive days the goal was met",
		})
		r.persistFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "persistence_failures_total",
			Help:      "State load and save failures",
		}, []string{"op"})
		r.migrationDiscards = prom.NewCounter(prom.CounterOpts{
			Namespace: ns,
			Name:      "migration_discarded_subsets_total",
			Help:      "Stored state subsets discarded during migration",
		})
		r.remindersScheduled = prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "reminders_scheduled_total",
			Help:      "Reminders handed to the dispatcher, by whether quiet hours deferred them",
		}, []string{"kind"})
		r.schedulingFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "scheduling_failures_total",
			Help:      "Reminder scheduling failures by operation",
		}, []string{"op"})
		r.deliveries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "reminder_deliveries_total",
			Help:      "Reminder deliveries by result",
		}, []string{"result"})
		reg.MustRegister(r.intakeEntries, r.intakeMl, r.entriesRemoved, r.currentIntake, r.progress,
			r.streak, r.persistFailures, r.migrationDiscards, r.remindersScheduled,
			r.schedulingFailures, r.deliveries)
	})
	return r
}

// Registry returns the registry the collectors are registered on
func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the recorder's registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (r *Recorder) IncIntake(drink constants.DrinkType, amountMl int) {
	if r == nil || r.intakeEntries == nil {
		return
	}
	r.intakeEntries.WithLabelValues(string(drink)).Inc()
	r.intakeMl.WithLabelValues(string(drink)).Add(float64(amountMl))
}

func (r *Recorder) IncEntryRemoved() {
	if r == nil || r.entriesRemoved == nil {
		return
	}
	r.entriesRemoved.Inc()
}

// SetDaily publishes today's derived values
func (r *Recorder) SetDaily(intakeMl int, progress float64, streak int) {
	if r == nil || r.currentIntake == nil {
		return
	}
	r.currentIntake.Set(float64(intakeMl))
	r.progress.Set(progress)
	r.streak.Set(float64(streak))
}

func (r *Recorder) IncPersistFailure(op string) {
	if r == nil || r.persistFailures == nil {
		return
	}
	r.persistFailures.WithLabelValues(op).Inc()
}

func (r *Recorder) AddMigrationDiscards(n int) {
	if r == nil || r.migrationDiscards == nil || n <= 0 {
		return
	}
	r.migrationDiscards.Add(float64(n))
}

func (r *Recorder) IncReminderScheduled(deferred bool) {
	if r == nil || r.remindersScheduled == nil {
		return
	}
	kind := "regular"
	if deferred {
		kind = "quiet_deferred"
	}
	r.remindersScheduled.WithLabelValues(kind).Inc()
}

func (r *Recorder) IncSchedulingFailure(op string) {
	if r == nil || r.schedulingFailures == nil {
		return
	}
	r.schedulingFailures.WithLabelValues(op).Inc()
}

func (r *Recorder) IncDelivery(success bool) {
	if r == nil || r.deliveries == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	r.deliveries.WithLabelValues(res).Inc()
}
