package system

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/daemon"
)

// stopWait is how long daemon stop waits for the process to exit
const stopWait = 5 * time.Second

// DaemonRunCmd runs the reminder daemon in the foreground
type DaemonRunCmd struct{}

func (c *DaemonRunCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	return daemon.Run(context.Background(), ctx.Config, ctx.Store)
}

type DaemonStatusCmd struct{}

func (c *DaemonStatusCmd) Run(ctx *cli.Context) error {
	path := daemon.PIDFilePath(ctx.Config.Dir())
	pid, running, err := daemon.Status(path)
	if err != nil {
		return err
	}
	if !running {
		ctx.Println("Daemon is not running. Start it with 'hydratemate daemon run'.")
		return nil
	}
	ctx.Printf("Daemon is running (pid %d)\n", pid)
	if ctx.Config.Metrics.Enabled {
		ctx.Printf("  Metrics: http://%s%s\n", ctx.Config.Metrics.Addr, ctx.Config.Metrics.Path)
	}
	return nil
}

// DaemonStopCmd sends SIGTERM to a running daemon and waits for it to exit
type DaemonStopCmd struct{}

func (c *DaemonStopCmd) Run(ctx *cli.Context) error {
	path := daemon.PIDFilePath(ctx.Config.Dir())
	pid, running, err := daemon.Status(path)
	if err != nil {
		return err
	}
	if !running {
		ctx.Println("Daemon is not running.")
		return nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	deadline := time.Now().Add(stopWait)
	for time.Now().Before(deadline) {
		if _, running, _ := daemon.Status(path); !running {
			ctx.Printf("✓ Daemon stopped (pid %d)\n", pid)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit within %s", pid, stopWait)
}
