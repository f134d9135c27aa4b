// Package daemonctl starts, stops and inspects editoriald from the CLI.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"editorial/internal/api"
	"editorial/internal/client"
	"editorial/internal/config"
	"editorial/internal/daemonrun"
	"editorial/internal/manuscript"
	"editorial/internal/persistence"
)

// ErrDaemonNotRunning indicates the daemon API is unreachable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	Status   api.DaemonStatus
}

// StopResult captures daemon stop outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Launch starts a detached daemon by running the CLI's hidden daemon command.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}
	args := []string{"daemon"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}
	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForAPI polls the status endpoint until it answers or timeout passes.
func WaitForAPI(ctx context.Context, c *client.Client, timeout time.Duration) (api.DaemonStatus, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		status, err := c.Status(ctx)
		if err == nil {
			return status, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return api.DaemonStatus{}, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return api.DaemonStatus{}, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless its API already answers.
func EnsureStarted(ctx context.Context, c *client.Client, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if status, err := c.Status(ctx); err == nil {
		return StartResult{State: StartStateAlreadyRunning, Status: status}, nil
	} else if !client.IsAPIUnavailable(err) {
		return StartResult{}, err
	}
	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	status, err := WaitForAPI(ctx, c, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, Launched: true, Status: status}, nil
}

// Stop sends SIGTERM to the daemon and escalates to SIGKILL when it is still
// answering after gracePeriod.
func Stop(ctx context.Context, c *client.Client, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	status, err := c.Status(ctx)
	if err != nil {
		if client.IsAPIUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	pid := status.PID
	if recorded, err := daemonrun.ReadPID(daemonrun.PIDPath(cfg)); err == nil && recorded > 0 {
		pid = recorded
	}
	if err := signalProcess(pid, syscall.SIGTERM); err != nil {
		return StopResult{PID: pid}, err
	}
	if waitForShutdown(ctx, c, gracePeriod) {
		return StopResult{PID: pid}, nil
	}
	if err := signalProcess(pid, syscall.SIGKILL); err != nil {
		return StopResult{PID: pid}, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	_ = os.Remove(daemonrun.PIDPath(cfg))
	_ = os.Remove(cfg.LockPath())
	return StopResult{PID: pid, ForcedKill: true}, nil
}

func signalProcess(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("unable to determine daemon pid")
	}
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	return nil
}

// waitForShutdown reports whether the API stopped answering within timeout.
func waitForShutdown(ctx context.Context, c *client.Client, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := c.Status(ctx); client.IsAPIUnavailable(err) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(200 * time.Millisecond):
		}
	}
	return false
}

// BuildStatus asks the daemon for its status. When the daemon is down it
// reads partition counts straight from the configured backend.
func BuildStatus(ctx context.Context, c *client.Client, cfg *config.Config) (api.DaemonStatus, error) {
	if cfg == nil {
		return api.DaemonStatus{}, errors.New("configuration not available")
	}
	status, err := c.Status(ctx)
	if err == nil {
		return status, nil
	}
	if !client.IsAPIUnavailable(err) {
		return api.DaemonStatus{}, err
	}

	offline := api.DaemonStatus{Backend: cfg.Storage.Backend, LockFilePath: cfg.LockPath()}
	if cfg.Storage.Backend == config.BackendMemory {
		return offline, nil
	}
	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	adapter, err := persistence.Open(queryCtx, cfg)
	if err != nil {
		return offline, nil
	}
	defer adapter.Close()
	store, err := manuscript.Open(queryCtx, manuscript.WithAdapter(adapter))
	if err != nil {
		return offline, nil
	}
	offline.Version = store.Version()
	offline.Counts = store.Counts()
	return offline, nil
}
