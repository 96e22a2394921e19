package types

import (
	"strings"
	"time"
)

// Role names the function a managed process serves in the fabric.
type Role string

const (
	RoleController   Role = "controller"
	RolePresentation Role = "presentation"
)

// ServiceState is the per-process lifecycle state. Degraded means the
// process is alive but a readiness signal regressed (e.g. the control
// channel dropped); it is reported, never auto-restarted.
type ServiceState string

const (
	ServiceStopped  ServiceState = "stopped"
	ServiceStarting ServiceState = "starting"
	ServiceReady    ServiceState = "ready"
	ServiceDegraded ServiceState = "degraded"
)

// ProcessSpec describes how to launch and later re-identify a managed process.
type ProcessSpec struct {
	Role    Role     `json:"role"`
	Variant string   `json:"variant,omitempty"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Dir     string   `json:"dir,omitempty"`
	Env     []string `json:"env,omitempty"`

	// LogPath receives the process's combined stdout+stderr, append-only.
	LogPath string `json:"log_path"`

	// IdentityToken is a textual pattern that appears in the process's
	// command line. Start and stop may run in different sessions, so the
	// token is the only identity carried between them — never a remembered
	// PID. Empty means "derive from the command line".
	IdentityToken string `json:"identity_token,omitempty"`

	// User, when non-empty, is the unprivileged account the process runs
	// under (the orchestrator itself usually runs privileged).
	User string `json:"user,omitempty"`
}

// Token returns the effective identity token: the explicit one, or the
// first non-flag argument of the command line. For "python3 launcher_v3.py"
// that is "launcher_v3.py" — stable across sessions and unlikely to match
// unrelated processes.
func (s *ProcessSpec) Token() string {
	if s.IdentityToken != "" {
		return s.IdentityToken
	}
	for _, a := range s.Args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return s.Command
}

// Cmdline renders the full launch command for logs and diagnostics.
func (s *ProcessSpec) Cmdline() string {
	return strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
}

// ProcessStatus is a point-in-time view of a managed process, re-derived
// from the OS on every call.
type ProcessStatus struct {
	Role      Role         `json:"role"`
	State     ServiceState `json:"state"`
	PID       int          `json:"pid,omitempty"`
	StartedAt time.Time    `json:"started_at,omitzero"`
	LogPath   string       `json:"log_path,omitempty"`
}
