package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"subweave/internal/config"
	"subweave/internal/ipc"
	"subweave/internal/preflight"
	"subweave/internal/queue"
)

type startState string

const (
	startStateStarted        startState = "started"
	startStateAlreadyRunning startState = "already_running"
	startStateRequested      startState = "start_requested"
)

// launchDaemon re-executes the current binary as a detached daemon process.
func launchDaemon(ctx *commandContext) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := []string{"daemon"}
	if ctx.socketFlag != nil && strings.TrimSpace(*ctx.socketFlag) != "" {
		args = append(args, "--socket", *ctx.socketFlag)
	}
	if ctx.configFlag != nil && strings.TrimSpace(*ctx.configFlag) != "" {
		args = append(args, "--config", *ctx.configFlag)
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn daemon process: %w", err)
	}
	return cmd.Process.Release()
}

// waitForClient polls the daemon socket until it accepts connections.
func waitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	for {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("daemon did not become reachable at %s: %w", socketPath, err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// ensureStarted connects to a running daemon or launches one, then asks the
// workflow to start processing.
func ensureStarted(ctx *commandContext) (startState, error) {
	socket := ctx.socketPath()

	client, err := ipc.Dial(socket)
	if err != nil {
		if err := launchDaemon(ctx); err != nil {
			return "", err
		}
		client, err = waitForClient(socket, 10*time.Second)
		if err != nil {
			return "", err
		}
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return "", fmt.Errorf("query daemon status: %w", err)
	}
	if status.Running {
		return startStateAlreadyRunning, nil
	}
	if _, err := client.Start(); err != nil {
		return startStateRequested, fmt.Errorf("start workflow: %w", err)
	}
	return startStateStarted, nil
}

// waitForShutdown blocks until the daemon socket stops accepting connections.
func waitForShutdown(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			return true
		}
		client.Close()
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

// daemonPID reads the PID recorded by the running daemon, if any.
func daemonPID(logDir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(logDir, "subweave.pid"))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file: %w", err)
	}
	return pid, nil
}

// forceKillProcess terminates a daemon that no longer answers IPC requests.
func forceKillProcess(cfg *config.Config) error {
	pid, err := daemonPID(cfg.Paths.LogDir)
	if err != nil {
		return fmt.Errorf("read pid file: %w", err)
	}
	if pid <= 0 || pid == os.Getpid() {
		return fmt.Errorf("refusing to kill pid %d", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Kill(); err != nil && !strings.Contains(err.Error(), "process already finished") {
		return fmt.Errorf("kill daemon pid %d: %w", pid, err)
	}
	os.Remove(filepath.Join(cfg.Paths.LogDir, "subweave.pid"))
	os.Remove(cfg.LockFilePath())
	os.Remove(cfg.SocketPath())
	return nil
}

// stopAndTerminate requests a graceful stop over IPC and escalates to a kill
// when the daemon fails to exit within the grace period.
func stopAndTerminate(ctx *commandContext, grace time.Duration) error {
	socket := ctx.socketPath()

	client, err := ipc.Dial(socket)
	if err != nil {
		return fmt.Errorf("daemon is not running at %s", socket)
	}
	if _, err := client.Stop(); err != nil {
		client.Close()
		return fmt.Errorf("stop workflow: %w", err)
	}
	client.Close()

	if waitForShutdown(socket, grace) {
		return nil
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("daemon still running and config unavailable for force kill: %w", err)
	}
	if err := forceKillProcess(cfg); err != nil {
		return fmt.Errorf("force terminate daemon: %w", err)
	}
	return nil
}

// buildStatusSnapshot gathers daemon state, preferring the IPC status when a
// daemon is reachable and falling back to direct inspection otherwise.
func buildStatusSnapshot(cmdCtx context.Context, ctx *commandContext) (ipc.StatusResponse, bool, error) {
	if client, err := ipc.Dial(ctx.socketPath()); err == nil {
		defer client.Close()
		status, err := client.Status()
		if err != nil {
			return ipc.StatusResponse{}, true, err
		}
		return *status, true, nil
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return ipc.StatusResponse{}, false, err
	}

	snapshot := ipc.StatusResponse{
		Running:     false,
		QueueStats:  map[string]int{},
		LockPath:    cfg.LockFilePath(),
		QueueDBPath: cfg.DatabasePath(),
	}

	store, err := queue.Open(cfg)
	if err == nil {
		defer store.Close()
		if stats, err := store.Stats(cmdCtx); err == nil {
			for status, count := range stats {
				snapshot.QueueStats[string(status)] = count
			}
		}
	}

	for _, dep := range preflight.CheckSystemDeps(cmdCtx, cfg) {
		snapshot.Dependencies = append(snapshot.Dependencies, ipc.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return snapshot, false, nil
}
