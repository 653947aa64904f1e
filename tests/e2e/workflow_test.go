package e2e

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	TEST_PIDFILE_TIMEOUT      = 30 * time.Second
	TEST_NOTIFICATION_TIMEOUT = 90 * time.Second
)

func TestEndToEndWorkflow(t *testing.T) {
	// 1. Setup Environment
	// Allow overriding bin dir via env var, default to ../../bin (relative to tests/e2e)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get cwd: %v", err)
	}

	binDir := os.Getenv("HYDRATEMATE_BIN_DIR")
	if binDir == "" {
		binDir = filepath.Join(cwd, "..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)
	t.Logf("Using bin dir: %s", binDir)

	cliPath := filepath.Join(binDir, "hydratemate")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s. Build it first with 'go build -o bin/ ./cmd/hydratemate'.", cliPath)
	}

	// Create temp home for isolation
	tempDir := t.TempDir()
	t.Logf("Running test in temp dir: %s", tempDir)

	var cleanEnv []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "HYDRATEMATE_") {
			continue
		}
		cleanEnv = append(cleanEnv, e)
	}
	cleanEnv = append(cleanEnv,
		fmt.Sprintf("HOME=%s", tempDir),
		fmt.Sprintf("HYDRATEMATE_STORAGE=%s", filepath.Join(tempDir, "hydratemate.db")),
		"HYDRATEMATE_TIMEZONE=UTC",
		"HYDRATEMATE_NOTIFICATIONS=true",
	)

	// 2. Initialize storage and walk through onboarding without prompts
	t.Log("Initializing CLI...")
	runCmd(t, cliPath, cleanEnv, tempDir, "init")
	runCmd(t, cliPath, cleanEnv, tempDir, "setup", "--units", "ml", "--goal", "2000", "--interval", "0.5")

	// 3. Log intake and check today's progress
	runCmd(t, cliPath, cleanEnv, tempDir, "add", "500ml")
	out := runCmd(t, cliPath, cleanEnv, tempDir, "status")
	if !strings.Contains(out, "500 ml / 2,000 ml") {
		t.Fatalf("status does not show logged intake:\n%s", out)
	}

	// Reminders must fire regardless of the time of day the test runs
	runCmd(t, cliPath, cleanEnv, tempDir, "settings", "reminders", "set", "--quiet=false", "--smart=false")

	// 4. Start Daemon (Background)
	t.Log("Starting daemon...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	daemonCmd := exec.CommandContext(ctx, cliPath, "daemon", "run")
	daemonCmd.Env = cleanEnv
	daemonCmd.Dir = tempDir

	stdoutPipe, err := daemonCmd.StdoutPipe()
	if err != nil {
		t.Fatalf("Failed to get stdout pipe: %v", err)
	}
	var stderrBuf bytes.Buffer
	daemonCmd.Stderr = &stderrBuf

	if err := daemonCmd.Start(); err != nil {
		t.Fatalf("Failed to start daemon: %v", err)
	}
	defer func() {
		cancel()
		_ = daemonCmd.Wait()
		if t.Failed() {
			t.Logf("Daemon Stderr: %s", stderrBuf.String())
		}
	}()

	// 5. Wait for the pidfile (daemon ready)
	pidfilePath := filepath.Join(tempDir, ".config", "hydratemate", "hydratemate-daemon.pid")
	t.Logf("Waiting for pidfile at %s", pidfilePath)
	waitForFile(t, pidfilePath, TEST_PIDFILE_TIMEOUT)

	out = runCmd(t, cliPath, cleanEnv, tempDir, "daemon", "status")
	if !strings.Contains(out, "Daemon is running") {
		t.Fatalf("daemon status does not report running:\n%s", out)
	}

	// 6. Monitor output for a delivered reminder
	t.Log("Waiting for reminder delivery...")
	doneCh := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stdoutPipe)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.Contains(line, "Hydrate Mate") {
				doneCh <- line
				return
			}
		}
	}()

	select {
	case line := <-doneCh:
		t.Logf("Verified reminder flow: %s", line)
	case <-time.After(TEST_NOTIFICATION_TIMEOUT):
		t.Fatalf("Timed out waiting for a reminder")
	}

	// 7. Stop the daemon through the CLI
	out = runCmd(t, cliPath, cleanEnv, tempDir, "daemon", "stop")
	if !strings.Contains(out, "Daemon stopped") {
		t.Errorf("daemon stop output unexpected:\n%s", out)
	}
}

func runCmd(t *testing.T, path string, env []string, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return string(out)
}

func waitForFile(t *testing.T, path string, timeout time.Duration) {
	t.Helper()
	start := time.Now()
	for {
		if _, err := os.Stat(path); err == nil {
			return
		}
		if time.Since(start) > timeout {
			t.Fatalf("Timed out waiting for file: %s", path)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
