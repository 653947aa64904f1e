// Package hydration holds the in-memory hydration state, derives progress
// and streaks from it, and hands persistence and reminder work to a single
// ordered effect queue.
package hydration

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/metrics"
	"github.com/julianstephens/hydratemate/internal/models"
	"github.com/julianstephens/hydratemate/internal/reminder"
	"github.com/julianstephens/hydratemate/internal/statestore"
	"github.com/julianstephens/hydratemate/internal/utils"
)

// Store persists the durable subset of the state
type Store interface {
	Load(ctx context.Context) (statestore.StateV2, statestore.LoadReport)
	Save(ctx context.Context, state statestore.StateV2) error
	Refresh() error
}

// Reminders is the scheduler driven by the engine
type Reminders interface {
	Bind(src reminder.Source)
	Reschedule(ctx context.Context) error
	Stop(ctx context.Context) error
	Active() bool
}

// Option configures an Engine
type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone day keys are computed in
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine owns the hydration state. Mutations are synchronous; their
// persistence and rescheduling run afterwards, in order, on the effect queue.
type Engine struct {
	mu         sync.RWMutex
	state      models.HydrationState
	today      string
	lastIntake time.Time

	store     Store
	reminders Reminders
	effects   *effectQueue
	now       func() time.Time
	loc       *time.Location
	newID     func() string
	metrics   *metrics.Recorder
}

// New builds an engine holding the default state. Call Init to load the
// stored state. reminders may be nil when no dispatcher is available.
func New(store Store, reminders Reminders, opts ...Option) *Engine {
	e := &Engine{
		state:     models.DefaultState(),
		store:     store,
		reminders: reminders,
		effects:   newEffectQueue(),
		now:       time.Now,
		loc:       time.Local,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if reminders != nil {
		reminders.Bind(e)
	}
	return e
}

// Init loads the stored state, writes back a migrated snapshot, restores
// today's data and schedules reminders when enabled. It never fails; the
// report says what was found.
func (e *Engine) Init(ctx context.Context) statestore.LoadReport {
	report := e.load(ctx, false)
	if report.NeedsSave() {
		e.mu.RLock()
		e.persist(statestore.FromModel(e.state))
		e.mu.RUnlock()
	}
	e.scheduleIfEnabled()
	return report
}

// Reload re-reads storage after another process changed it and
// reschedules. Pending writes from this engine are flushed first.
func (e *Engine) Reload(ctx context.Context) error {
	if err := e.effects.flush(ctx); err != nil {
		return err
	}
	if err := e.store.Refresh(); err != nil {
		logger.Warn("Failed to refresh storage before reload", "error", err)
	}
	report := e.load(ctx, true)
	if report.Err != nil {
		return report.Err
	}
	e.mu.RLock()
	enabled := e.state.ReminderSettings.Enabled
	e.mu.RUnlock()
	if enabled {
		e.reschedule()
	} else if e.reminders != nil {
		e.enqueue(func(ctx context.Context) {
			if err := e.reminders.Stop(ctx); err != nil {
				logger.Warn("Failed to stop reminders after reload", "error", err)
			}
		})
	}
	return nil
}

// load replaces the state with the stored one. With keepOnError a failed
// load leaves the current state in place instead of falling back to defaults.
func (e *Engine) load(ctx context.Context, keepOnError bool) statestore.LoadReport {
	doc, report := e.store.Load(ctx)
	if errors.IsPersistence(report.Err) {
		e.metrics.IncPersistFailure("load")
	}
	e.metrics.AddMigrationDiscards(len(report.Discarded))
	if report.Err != nil && keepOnError {
		logger.Warn("Keeping in-memory state after failed reload", "error", report.Err)
		return report
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = statestore.ToModel(doc)
	e.loadTodayLocked(e.now())
	return report
}

// LoadToday restores today's intake from its stored record, or starts an
// empty day when there is none.
func (e *Engine) LoadToday() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadTodayLocked(e.now())
}

// Rollover reloads today's data when the calendar day changed since the
// last load and reschedules reminders. It reports whether the day changed.
func (e *Engine) Rollover() bool {
	e.mu.Lock()
	now := e.now()
	changed := utils.DayKey(now, e.loc) != e.today
	if changed {
		e.loadTodayLocked(now)
	}
	enabled := e.state.ReminderSettings.Enabled
	e.mu.Unlock()

	if changed {
		logger.Info("Day rolled over", "today", e.Today())
		if enabled {
			e.reschedule()
		}
	}
	return changed
}

func (e *Engine) loadTodayLocked(now time.Time) {
	e.today = utils.DayKey(now, e.loc)
	if i := e.state.FindDay(e.today); i >= 0 {
		day := e.state.WeeklyStats[i]
		e.state.TodayEntries = append([]models.HydrationEntry{}, day.Entries...)
		e.state.CurrentIntake = models.SumAmounts(day.Entries)
		if day.Goal > 0 {
			e.state.DailyGoal = day.Goal
		}
	} else {
		e.state.TodayEntries = []models.HydrationEntry{}
		e.state.CurrentIntake = 0
	}
	e.lastIntake = lastEntryTime(e.state.TodayEntries)
	e.state.Streak = computeStreak(e.state.WeeklyStats, e.today)
	e.publishLocked()
}

// AddIntake logs an intake of amount millilitres
func (e *Engine) AddIntake(amount int, drink constants.DrinkType) (models.HydrationEntry, error) {
	if err := models.ValidateAmount(amount); err != nil {
		return models.HydrationEntry{}, err
	}
	if !models.ValidDrinkType(drink) {
		return models.HydrationEntry{}, errors.NewValidation("type", "unknown drink type %q", drink)
	}

	e.mu.Lock()
	now := e.now()
	if utils.DayKey(now, e.loc) != e.today {
		e.loadTodayLocked(now)
	}
	entry := models.HydrationEntry{
		ID:        e.newID(),
		Amount:    amount,
		Timestamp: now,
		Type:      drink,
	}
	e.state.TodayEntries = append(e.state.TodayEntries, entry)
	e.state.CurrentIntake += amount
	e.lastIntake = now
	e.syncTodayLocked()
	e.persist(statestore.FromModel(e.state))
	settings := e.state.ReminderSettings
	e.mu.Unlock()

	e.metrics.IncIntake(drink, amount)
	logger.Debug("Intake added", "id", entry.ID, "amount", amount, "type", drink)
	if settings.Enabled && settings.SmartReminders {
		e.reschedule()
	}
	return entry, nil
}

// RemoveEntry removes one of today's entries. Unknown ids are ignored; the
// result reports whether anything was removed.
func (e *Engine) RemoveEntry(id string) bool {
	e.mu.Lock()
	idx := -1
	for i, entry := range e.state.TodayEntries {
		if entry.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return false
	}
	removed := e.state.TodayEntries[idx]
	e.state.TodayEntries = append(e.state.TodayEntries[:idx:idx], e.state.TodayEntries[idx+1:]...)
	e.state.CurrentIntake = max(e.state.CurrentIntake-removed.Amount, 0)
	e.lastIntake = lastEntryTime(e.state.TodayEntries)
	e.syncTodayLocked()
	e.persist(statestore.FromModel(e.state))
	e.mu.Unlock()

	e.metrics.IncEntryRemoved()
	logger.Debug("Entry removed", "id", id, "amount", removed.Amount)
	return true
}

// ResetDay clears today's entries
func (e *Engine) ResetDay() {
	e.mu.Lock()
	if e.today == "" {
		e.today = utils.DayKey(e.now(), e.loc)
	}
	e.state.TodayEntries = []models.HydrationEntry{}
	e.state.CurrentIntake = 0
	e.lastIntake = time.Time{}
	if e.state.FindDay(e.today) >= 0 {
		e.syncTodayLocked()
	} else {
		e.state.Streak = computeStreak(e.state.WeeklyStats, e.today)
		e.publishLocked()
	}
	e.persist(statestore.FromModel(e.state))
	e.mu.Unlock()

	logger.Info("Day reset", "date", e.Today())
}

// UpdateGoal sets the daily goal and today's goal snapshot
func (e *Engine) UpdateGoal(goal int) error {
	if err := models.ValidateGoal(goal); err != nil {
		return err
	}
	e.mu.Lock()
	e.state.DailyGoal = goal
	if i := e.state.FindDay(e.today); i >= 0 {
		e.state.WeeklyStats[i].Goal = goal
	}
	e.state.Streak = computeStreak(e.state.WeeklyStats, e.today)
	e.publishLocked()
	e.persist(statestore.FromModel(e.state))
	e.mu.Unlock()
	return nil
}

// UpdateUnits sets the display units
func (e *Engine) UpdateUnits(units constants.Units) error {
	u, err := models.ParseUnits(string(units))
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.state.Units = u
	e.persist(statestore.FromModel(e.state))
	e.mu.Unlock()
	return nil
}

// UpdateReminderSettings validates and stores settings, then reschedules
// synchronously. A SchedulingError leaves the settings stored; the mismatch
// shows in DeliveryActive.
func (e *Engine) UpdateReminderSettings(ctx context.Context, settings models.ReminderSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.state.ReminderSettings = settings
	e.persist(statestore.FromModel(e.state))
	e.mu.Unlock()

	if e.reminders == nil {
		return nil
	}
	return e.reminders.Reschedule(ctx)
}

// StartReminders schedules the next reminder when reminders are enabled
func (e *Engine) StartReminders(ctx context.Context) error {
	if e.reminders == nil {
		return nil
	}
	return e.reminders.Reschedule(ctx)
}

// StopReminders cancels the pending reminder without changing settings
func (e *Engine) StopReminders(ctx context.Context) error {
	if e.reminders == nil {
		return nil
	}
	return e.reminders.Stop(ctx)
}

// DeliveryActive reports whether a reminder is actually pending
func (e *Engine) DeliveryActive() bool {
	return e.reminders != nil && e.reminders.Active()
}

// ReminderInput implements reminder.Source
func (e *Engine) ReminderInput() reminder.Input {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return reminder.Input{
		Settings:   e.state.ReminderSettings,
		Progress:   e.progressLocked(),
		LastIntake: e.lastIntake,
	}
}

// ProgressPercentage returns today's progress in [0, 100]
func (e *Engine) ProgressPercentage() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.progressLocked()
}

func (e *Engine) progressLocked() float64 {
	if e.state.DailyGoal <= 0 {
		return 0
	}
	return math.Min(float64(e.state.CurrentIntake)/float64(e.state.DailyGoal)*100, 100)
}

// Remaining returns the millilitres still needed today
func (e *Engine) Remaining() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return max(e.state.DailyGoal-e.state.CurrentIntake, 0)
}

// WeeklyAverage returns the mean intake over the records of the last seven
// calendar days, today included
func (e *Engine) WeeklyAverage() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	days := e.windowLocked(constants.WeeklyWindowDays)
	if len(days) == 0 {
		return 0
	}
	total := 0
	for _, d := range days {
		total += d.TotalIntake
	}
	return int(math.Round(float64(total) / float64(len(days))))
}

// History returns copies of the records of the last n calendar days in
// ascending order, or every record when n <= 0
func (e *Engine) History(n int) []models.DailyStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var days []models.DailyStats
	if n <= 0 {
		days = e.state.WeeklyStats
	} else {
		days = e.windowLocked(n)
	}
	out := make([]models.DailyStats, len(days))
	for i, d := range days {
		out[i] = d.Clone()
	}
	return out
}

func (e *Engine) windowLocked(n int) []models.DailyStats {
	today := e.today
	if today == "" {
		today = utils.DayKey(e.now(), e.loc)
	}
	first, err := utils.AddDays(today, -(n - 1))
	if err != nil {
		return nil
	}
	var out []models.DailyStats
	for _, d := range e.state.WeeklyStats {
		if d.Date >= first && d.Date <= today {
			out = append(out, d)
		}
	}
	return out
}

func (e *Engine) Streak() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Streak
}

// Today returns the current day key
func (e *Engine) Today() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.today
}

// LastIntake returns the time of the most recent intake today, or zero
func (e *Engine) LastIntake() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastIntake
}

// State returns a deep copy of the current state
func (e *Engine) State() models.HydrationState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Location returns the zone day keys are computed in
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Flush waits for queued persistence and reminder work to finish
func (e *Engine) Flush(ctx context.Context) error {
	return e.effects.flush(ctx)
}

// Close drains the effect queue. Effects requested afterwards run inline.
func (e *Engine) Close(ctx context.Context) error {
	return e.effects.close(ctx)
}

// syncTodayLocked writes today's entries into its DailyStats record,
// creating it with the current goal when missing, and recomputes the streak.
func (e *Engine) syncTodayLocked() {
	entries := append([]models.HydrationEntry{}, e.state.TodayEntries...)
	if i := e.state.FindDay(e.today); i >= 0 {
		e.state.WeeklyStats[i].Entries = entries
		e.state.WeeklyStats[i].TotalIntake = e.state.CurrentIntake
	} else {
		e.state.WeeklyStats = append(e.state.WeeklyStats, models.DailyStats{
			Date:        e.today,
			TotalIntake: e.state.CurrentIntake,
			Goal:        e.state.DailyGoal,
			Entries:     entries,
		})
		sort.Slice(e.state.WeeklyStats, func(a, b int) bool {
			return e.state.WeeklyStats[a].Date < e.state.WeeklyStats[b].Date
		})
	}
	e.state.Streak = computeStreak(e.state.WeeklyStats, e.today)
	e.publishLocked()
}

func (e *Engine) publishLocked() {
	e.metrics.SetDaily(e.state.CurrentIntake, e.progressLocked(), e.state.Streak)
}

func (e *Engine) scheduleIfEnabled() {
	e.mu.RLock()
	enabled := e.state.ReminderSettings.Enabled
	e.mu.RUnlock()
	if enabled {
		e.reschedule()
	}
}

func (e *Engine) enqueue(job effect) {
	if !e.effects.enqueue(job) {
		job(context.Background())
	}
}

// persist queues a save of snapshot. Callers hold e.mu so saves reach the
// queue in the same order as the mutations they capture.
func (e *Engine) persist(snapshot statestore.StateV2) {
	e.enqueue(func(ctx context.Context) {
		if err := e.store.Save(ctx, snapshot); err != nil {
			e.metrics.IncPersistFailure("save")
			logger.Error("Failed to persist hydration state", "error", err)
		}
	})
}

func (e *Engine) reschedule() {
	if e.reminders == nil {
		return
	}
	e.enqueue(func(ctx context.Context) {
		if err := e.reminders.Reschedule(ctx); err != nil {
			logger.Debug("Reminder pass failed", "error", err)
		}
	})
}

func lastEntryTime(entries []models.HydrationEntry) time.Time {
	var last time.Time
	for _, entry := range entries {
		if entry.Timestamp.After(last) {
			last = entry.Timestamp
		}
	}
	return last
}
