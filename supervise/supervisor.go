// Package supervise starts and stops the fabric's external processes.
// Processes are identified by a textual token in their command line, not by
// remembered handles: start and stop frequently run in different sessions,
// so identity must be re-derivable from the OS alone.
package supervise

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/projecteru2/core/log"

	"github.com/projectloom/loom/config"
	"github.com/projectloom/loom/types"
	"github.com/projectloom/loom/utils"
)

// ErrLaunchFailure means the command's executable or script is missing.
var ErrLaunchFailure = errors.New("launch failure")

// Supervisor manages the fabric's child processes.
type Supervisor struct {
	conf *config.Config
}

// New creates a Supervisor.
func New(conf *config.Config) (*Supervisor, error) {
	if conf == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := conf.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("ensure dirs: %w", err)
	}
	return &Supervisor{conf: conf}, nil
}

// Start launches spec's command detached, with combined output appended to
// spec.LogPath. Any process already matching the identity token is stopped
// first — one instance per role, always. The returned status is Starting;
// readiness is a separate concern.
func (s *Supervisor) Start(ctx context.Context, spec *types.ProcessSpec) (*types.ProcessStatus, error) {
	logger := log.WithFunc("supervise.Start")
	token := spec.Token()

	// Single-instance enforcement. A second start supersedes the first.
	if n, err := s.Stop(ctx, token); err != nil {
		return nil, fmt.Errorf("stop previous %s: %w", token, err)
	} else if n > 0 {
		logger.Infof(ctx, "superseded %d previous %s process(es)", n, spec.Role)
	}

	if _, err := exec.LookPath(spec.Command); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLaunchFailure, spec.Command, err)
	}
	if spec.Dir != "" {
		if _, err := os.Stat(spec.Dir); err != nil {
			return nil, fmt.Errorf("%w: workdir %s: %v", ErrLaunchFailure, spec.Dir, err)
		}
	}

	logFile, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", spec.LogPath, err)
	}
	defer logFile.Close() //nolint:errcheck

	cmd := exec.Command(spec.Command, spec.Args...) //nolint:gosec
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	// Detach from our process group so the child survives this invocation.
	attr := &syscall.SysProcAttr{Setpgid: true}
	if spec.User != "" {
		cred, credErr := lookupCredential(spec.User)
		if credErr != nil {
			return nil, fmt.Errorf("resolve user %s: %w", spec.User, credErr)
		}
		attr.Credential = cred
	}
	cmd.SysProcAttr = attr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: exec %s: %v", ErrLaunchFailure, spec.Cmdline(), err)
	}
	pid := cmd.Process.Pid

	if err := utils.WritePIDFile(s.pidFile(token), pid); err != nil {
		// The PID file is only a fast path; the token scan still finds the
		// process, so losing the file is not fatal.
		logger.Warnf(ctx, "write PID file for %s: %v", token, err)
	}

	// Release the handle: the child is fully detached from this runtime.
	_ = cmd.Process.Release()
	logger.Infof(ctx, "%s started: pid=%d cmdline=%q log=%s", spec.Role, pid, spec.Cmdline(), spec.LogPath)

	return &types.ProcessStatus{
		Role:      spec.Role,
		State:     types.ServiceStarting,
		PID:       pid,
		StartedAt: utils.ProcessStartTime(pid),
		LogPath:   spec.LogPath,
	}, nil
}

// Stop terminates every live process whose command line matches token and
// returns how many were signalled. Zero matches is a success, not an error.
func (s *Supervisor) Stop(ctx context.Context, token string) (int, error) {
	logger := log.WithFunc("supervise.Stop")

	pids, err := utils.FindProcesses(token)
	if err != nil {
		return 0, err
	}
	// PID-file fast path covers processes whose cmdline scan raced (e.g.
	// a zombie still holding the PID file).
	if pid, readErr := utils.ReadPIDFile(s.pidFile(token)); readErr == nil && utils.MatchesToken(pid, token) {
		found := false
		for _, p := range pids {
			if p == pid {
				found = true
				break
			}
		}
		if !found {
			pids = append(pids, pid)
		}
	}

	var errs []error
	for _, pid := range pids {
		if err := utils.TerminateProcess(ctx, pid, token, s.conf.StopTimeout()); err != nil {
			errs = append(errs, fmt.Errorf("terminate %d: %w", pid, err))
			continue
		}
		logger.Infof(ctx, "terminated pid=%d token=%q", pid, token)
	}
	_ = os.Remove(s.pidFile(token))
	return len(pids) - len(errs), errors.Join(errs...)
}

// IsRunning reports liveness for the identity token — independent of
// readiness.
func (s *Supervisor) IsRunning(token string) bool {
	pids, err := utils.FindProcesses(token)
	return err == nil && len(pids) > 0
}

// Status re-derives a process's runtime view from the OS.
func (s *Supervisor) Status(role types.Role, token string) types.ProcessStatus {
	st := types.ProcessStatus{Role: role, State: types.ServiceStopped}
	pids, err := utils.FindProcesses(token)
	if err != nil || len(pids) == 0 {
		return st
	}
	st.State = types.ServiceStarting
	st.PID = pids[0]
	st.StartedAt = utils.ProcessStartTime(pids[0])
	st.LogPath = s.conf.ProcessLogPath(role)
	return st
}

func (s *Supervisor) pidFile(token string) string {
	return s.conf.PIDFile(utils.TokenID(token))
}
