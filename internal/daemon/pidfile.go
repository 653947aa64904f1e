package daemon

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/hydratemate/internal/constants"
)

// PIDFileName is written to the config directory while the daemon runs
const PIDFileName = constants.AppName + "-daemon.pid"

// ErrAlreadyRunning is returned when a live daemon owns the pidfile
var ErrAlreadyRunning = stderrors.New("daemon is already running")

// findProcess is a seam for tests
var findProcess = ps.FindProcess

// PIDFilePath returns the pidfile location inside dir
func PIDFilePath(dir string) string {
	return filepath.Join(dir, PIDFileName)
}

// Status reports the daemon pid recorded in path and whether that process
// is still alive. A missing pidfile is not an error.
func Status(path string) (int, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read pidfile: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("invalid pid in %s", path)
	}

	process, err := findProcess(pid)
	if err != nil {
		return pid, false, fmt.Errorf("failed to find process: %w", err)
	}
	if process == nil {
		return pid, false, nil
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return pid, false, nil
	}
	return pid, true, nil
}

// WritePIDFile records the current process. A stale pidfile is replaced;
// a live one is ErrAlreadyRunning.
func WritePIDFile(path string) error {
	if pid, running, _ := Status(path); running && pid != os.Getpid() {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create pidfile directory: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644)
}

// RemovePIDFile removes the pidfile if it still names this process
func RemovePIDFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		return nil
	}
	return os.Remove(path)
}
