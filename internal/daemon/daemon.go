// Package daemon hosts the hydration engine in a long-running process that
// owns reminder delivery.
package daemon

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/julianstephens/hydratemate/internal/config"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/hydration"
	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/metrics"
	"github.com/julianstephens/hydratemate/internal/notifier"
	"github.com/julianstephens/hydratemate/internal/reminder"
	"github.com/julianstephens/hydratemate/internal/statestore"
	"github.com/julianstephens/hydratemate/internal/storage"
)

// Daemon wires the engine, scheduler and dispatcher together with the
// rollover job, the storage watcher and the metrics endpoint.
type Daemon struct {
	cfg        *config.Config
	kv         storage.Provider
	engine     *hydration.Engine
	scheduler  *reminder.Scheduler
	dispatcher *notifier.LocalDispatcher
	cron       gocron.Scheduler
	watcher    *StorageWatcher
	metrics    *metrics.Recorder
	server     *http.Server
	listener   net.Listener
	pidPath    string

	stopOnce sync.Once
}

// Option configures a Daemon
type Option func(*options)

type options struct {
	deliverer notifier.Deliverer
	now       func() time.Time
	pidPath   string
	watch     bool
}

// WithDeliverer replaces the tray/log deliverer chain
func WithDeliverer(d notifier.Deliverer) Option {
	return func(o *options) { o.deliverer = d }
}

// WithClock sets the engine and scheduler clock
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPIDFile overrides the pidfile location; an empty path disables it
func WithPIDFile(path string) Option {
	return func(o *options) { o.pidPath = path }
}

// WithoutWatcher disables the storage watcher
func WithoutWatcher() Option {
	return func(o *options) { o.watch = false }
}

// New builds a daemon over an already loaded key-value backend
func New(cfg *config.Config, kv storage.Provider, opts ...Option) (*Daemon, error) {
	o := options{
		now:     time.Now,
		pidPath: PIDFilePath(cfg.Dir()),
		watch:   true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.deliverer == nil {
		o.deliverer = defaultDeliverer(cfg)
	}

	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.New(prometheus.NewRegistry())
	}
	loc := cfg.Location()

	dispatcher, err := notifier.NewLocalDispatcher(o.deliverer,
		notifier.WithPermission(cfg.Notifications.Enabled),
		notifier.WithDispatcherMetrics(rec),
	)
	if err != nil {
		return nil, err
	}
	sched := reminder.New(dispatcher,
		reminder.WithClock(o.now),
		reminder.WithLocation(loc),
		reminder.WithPlatform(cfg.Platform),
		reminder.WithMetrics(rec),
	)
	dispatcher.SetOnDelivered(func(ctx context.Context, id string) {
		if err := sched.HandleDelivered(ctx, id); err != nil {
			logger.Warn("Failed to schedule the next reminder", "error", err)
		}
	})

	engine := hydration.New(statestore.New(kv), sched,
		hydration.WithClock(o.now),
		hydration.WithLocation(loc),
		hydration.WithMetrics(rec),
	)

	cron, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	d := &Daemon{
		cfg:        cfg,
		kv:         kv,
		engine:     engine,
		scheduler:  sched,
		dispatcher: dispatcher,
		cron:       cron,
		metrics:    rec,
		pidPath:    o.pidPath,
	}

	if o.watch {
		if path, ok := watchablePath(kv); ok {
			w, err := NewStorageWatcher(path, cfg.Daemon.WatchDebounce, engine.Reload)
			if err != nil {
				return nil, err
			}
			d.watcher = w
		} else {
			logger.Debug("Storage backend is not a local file, change watching disabled", "backend", kv.GetConfigPath())
		}
	}
	return d, nil
}

func defaultDeliverer(cfg *config.Config) notifier.Deliverer {
	log := notifier.NewLogDeliverer(os.Stdout)
	if !cfg.Notifications.Tray {
		return log
	}
	return notifier.Fallback{notifier.NewTrayDeliverer(), log}
}

// watchablePath returns the backing file for file-based backends
func watchablePath(kv storage.Provider) (string, bool) {
	path := kv.GetConfigPath()
	if path == "" || path == "memory://" {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (d *Daemon) Engine() *hydration.Engine { return d.engine }

func (d *Daemon) Scheduler() *reminder.Scheduler { return d.scheduler }

func (d *Daemon) Dispatcher() *notifier.LocalDispatcher { return d.dispatcher }

// MetricsAddr returns the bound metrics address, or "" when disabled
func (d *Daemon) MetricsAddr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Start loads state, schedules the first reminder and starts every
// background component.
func (d *Daemon) Start(ctx context.Context) error {
	if d.pidPath != "" {
		if err := WritePIDFile(d.pidPath); err != nil {
			return err
		}
	}

	d.dispatcher.Start()
	report := d.engine.Init(ctx)
	if report.Err != nil {
		logger.Warn("Started with default state", "error", report.Err)
	}

	if d.cfg.Daemon.Rollover {
		if err := d.scheduleRollover(); err != nil {
			return err
		}
	}
	d.cron.Start()

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			return err
		}
	}
	if d.metrics != nil {
		if err := d.serveMetrics(); err != nil {
			return err
		}
	}

	logger.Info("Daemon started",
		"storage", d.kv.GetConfigPath(),
		"reminders", d.scheduler.Status().State.String(),
		"pid", os.Getpid())
	return nil
}

func (d *Daemon) scheduleRollover() error {
	_, err := d.cron.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(constants.RolloverHour, constants.RolloverMinute, constants.RolloverSecond),
		)),
		gocron.NewTask(d.rollover),
		gocron.WithName("day-rollover"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule day rollover: %w", err)
	}
	return nil
}

func (d *Daemon) rollover() {
	if d.engine.Rollover() {
		logger.Info("Started a new day", "today", d.engine.Today())
	}
}

func (d *Daemon) serveMetrics() error {
	ln, err := net.Listen("tcp", d.cfg.Metrics.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.cfg.Metrics.Addr, err)
	}
	d.listener = ln

	path := d.cfg.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, d.metrics.Handler())
	d.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := d.server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	logger.Info("Serving metrics", "addr", ln.Addr().String(), "path", path)
	return nil
}

// Stop shuts every component down, flushing pending writes. Pending
// reminders are dropped with the dispatcher; the next start reschedules.
func (d *Daemon) Stop(ctx context.Context) error {
	var errs []error
	d.stopOnce.Do(func() {
		if d.watcher != nil {
			if err := d.watcher.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := d.cron.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("rollover scheduler: %w", err))
		}
		if err := d.engine.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := d.dispatcher.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("dispatcher: %w", err))
		}
		if d.server != nil {
			if err := d.server.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("metrics server: %w", err))
			}
		}
		if d.pidPath != "" {
			if err := RemovePIDFile(d.pidPath); err != nil {
				errs = append(errs, err)
			}
		}
		logger.Info("Daemon stopped")
	})
	return stderrors.Join(errs...)
}

// Run starts the daemon and blocks until ctx is cancelled or the process
// receives SIGINT or SIGTERM.
func Run(ctx context.Context, cfg *config.Config, kv storage.Provider, opts ...Option) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := New(cfg, kv, opts...)
	if err != nil {
		return err
	}
	if err := d.Start(ctx); err != nil {
		_ = d.Stop(context.Background())
		return err
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.Stop(shutdownCtx)
}
