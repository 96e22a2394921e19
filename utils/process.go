package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	killWaitTimeout = 5 * time.Second
	procRoot        = "/proc"
)

// WritePIDFile writes pid to path with 0600 permissions.
func WritePIDFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

// ReadPIDFile reads a PID integer from path.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // internal runtime path
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID from %s: %w", path, err)
	}
	return pid, nil
}

// IsProcessAlive returns true if a process with the given PID currently exists
// and is not a zombie. Uses kill(pid, 0) — no signal is sent, only existence is
// checked. Zombies count as dead: they have already exited and merely await a
// reap by their parent.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if syscall.Kill(pid, 0) != nil {
		return false
	}
	return !isZombie(pid)
}

// isZombie inspects /proc/<pid>/stat; the state field follows the
// parenthesized comm, which may itself contain parentheses.
func isZombie(pid int) bool {
	data, err := os.ReadFile(fmt.Sprintf("%s/%d/stat", procRoot, pid))
	if err != nil {
		return false
	}
	if i := strings.LastIndexByte(string(data), ')'); i >= 0 && i+2 < len(data) {
		return data[i+2] == 'Z'
	}
	return false
}

// Cmdline returns the command line of pid with NUL separators replaced by
// spaces, or "" when /proc is unavailable or the process is gone.
func Cmdline(pid int) string {
	data, err := os.ReadFile(fmt.Sprintf("%s/%d/cmdline", procRoot, pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(string(data), "\x00", " "))
}

// MatchesToken reports whether pid's command line contains token.
// A token never matches the calling process itself.
func MatchesToken(pid int, token string) bool {
	if pid <= 0 || pid == os.Getpid() || token == "" {
		return false
	}
	return strings.Contains(Cmdline(pid), token)
}

// FindProcesses scans the process table for live processes whose command
// line contains token. The scan re-derives identity from the OS on every
// call, so a stop issued in a fresh session still finds what an earlier
// session started.
func FindProcesses(token string) ([]int, error) {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", procRoot, err)
	}
	var pids []int
	for _, e := range entries {
		pid, convErr := strconv.Atoi(e.Name())
		if convErr != nil {
			continue
		}
		if MatchesToken(pid, token) {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// TerminateProcess sends SIGTERM to pid, waits up to gracePeriod for it to
// exit, and falls back to SIGKILL. The PID is re-verified against token
// first so a recycled PID is never signalled.
func TerminateProcess(ctx context.Context, pid int, token string, gracePeriod time.Duration) error {
	if !MatchesToken(pid, token) {
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if !IsProcessAlive(pid) {
			return nil
		}
		return killAndWait(ctx, proc, pid)
	}

	if err := Poll(ctx, gracePeriod, 100*time.Millisecond, func() (bool, error) { //nolint:mnd
		return !IsProcessAlive(pid), nil
	}); err == nil {
		return nil
	}

	return killAndWait(ctx, proc, pid)
}

func killAndWait(ctx context.Context, proc *os.Process, pid int) error {
	_ = proc.Kill()
	return Poll(ctx, killWaitTimeout, 50*time.Millisecond, func() (bool, error) { //nolint:mnd
		return !IsProcessAlive(pid), nil
	})
}

// ProcessStartTime approximates when pid was launched from the mtime of its
// /proc entry. Good enough for human-facing uptime display.
func ProcessStartTime(pid int) time.Time {
	info, err := os.Stat(filepath.Join(procRoot, strconv.Itoa(pid)))
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
