package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/hydratemate/internal/logger"
)

// StorageWatcher calls a reload function after the storage file changes.
// Bursts of events within the debounce window produce one reload.
type StorageWatcher struct {
	path     string
	debounce time.Duration
	reload   func(ctx context.Context) error
	watcher  *fsnotify.Watcher

	stopOnce sync.Once
	stop     chan struct{}
	trigger  chan struct{}
	done     sync.WaitGroup
}

// NewStorageWatcher watches the directory holding path. SQLite sidecar
// files (path-wal, path-shm) count as changes to path.
func NewStorageWatcher(path string, debounce time.Duration, reload func(ctx context.Context) error) (*StorageWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &StorageWatcher{
		path:     abs,
		debounce: debounce,
		reload:   reload,
		watcher:  w,
		stop:     make(chan struct{}),
		trigger:  make(chan struct{}, 1),
	}, nil
}

func (sw *StorageWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(sw.path)
	if err := sw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch storage directory %s: %w", dir, err)
	}
	logger.Info("Watching storage for changes", "path", sw.path)

	sw.done.Add(2)
	go sw.watchLoop(ctx)
	go sw.reloadLoop(ctx)
	return nil
}

// Stop ends both loops and waits for them
func (sw *StorageWatcher) Stop() error {
	var err error
	sw.stopOnce.Do(func() {
		close(sw.stop)
		err = sw.watcher.Close()
		sw.done.Wait()
	})
	return err
}

func (sw *StorageWatcher) matches(name string) bool {
	base := filepath.Base(sw.path)
	got := filepath.Base(name)
	return got == base || strings.HasPrefix(got, base+"-")
}

func (sw *StorageWatcher) watchLoop(ctx context.Context) {
	defer sw.done.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stop:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !sw.matches(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Debug("Storage change detected", "file", event.Name, "op", event.Op.String())
				sw.requestReload()
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("Storage watcher error", "error", err)
		}
	}
}

func (sw *StorageWatcher) requestReload() {
	select {
	case sw.trigger <- struct{}{}:
	default:
	}
}

func (sw *StorageWatcher) reloadLoop(ctx context.Context) {
	defer sw.done.Done()
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stop:
			return
		case <-sw.trigger:
			timer.Reset(sw.debounce)
		case <-timer.C:
			if err := sw.reload(ctx); err != nil {
				logger.Error("Failed to reload state after storage change", "error", err)
			}
		}
	}
}
