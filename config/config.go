package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	coretypes "github.com/projecteru2/core/types"

	"github.com/projectloom/loom/types"
)

// Config holds global Loom configuration.
type Config struct {
	// RunDir is the base directory for runtime state (PID files, run lock).
	// Contents are ephemeral and may not survive reboots.
	// Env: LOOM_RUN_DIR. Default: /var/run/loom.
	RunDir string `json:"run_dir" mapstructure:"run_dir"`
	// LogDir is the base directory for managed-process logs.
	// Env: LOOM_LOG_DIR. Default: /var/log/loom.
	LogDir string `json:"log_dir" mapstructure:"log_dir"`
	// ControllerDir is the directory containing the controller launcher
	// scripts. Default: ./controller.
	ControllerDir string `json:"controller_dir" mapstructure:"controller_dir"`
	// WebDir is the document root served by the presentation process.
	// Default: ./web.
	WebDir string `json:"web_dir" mapstructure:"web_dir"`
	// PythonBinary is the interpreter used to launch controller and
	// presentation variants. Default: "python3".
	PythonBinary string `json:"python_binary" mapstructure:"python_binary"`
	// RunAsUser, when non-empty, is the unprivileged account managed
	// processes run under when Loom itself runs privileged.
	RunAsUser string `json:"run_as_user" mapstructure:"run_as_user"`

	// ReadyAttempts bounds every readiness wait. Default: 10.
	ReadyAttempts int `json:"ready_attempts" mapstructure:"ready_attempts"`
	// ReadyIntervalSeconds is the per-attempt poll interval. Default: 1.
	ReadyIntervalSeconds int `json:"ready_interval_seconds" mapstructure:"ready_interval_seconds"`
	// StopTimeoutSeconds is the SIGTERM→SIGKILL window for managed
	// processes. Default: 10.
	StopTimeoutSeconds int `json:"stop_timeout_seconds" mapstructure:"stop_timeout_seconds"`
	// ProbeCount is how many data-plane reachability probes are sent per
	// peer. Default: 3.
	ProbeCount int `json:"probe_count" mapstructure:"probe_count"`

	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// DefaultConfig returns the built-in defaults, before viper overrides.
func DefaultConfig() *Config {
	return &Config{
		RunDir:               "/var/run/loom",
		LogDir:               "/var/log/loom",
		ControllerDir:        "./controller",
		WebDir:               "./web",
		PythonBinary:         "python3",
		ReadyAttempts:        10,
		ReadyIntervalSeconds: 1,
		StopTimeoutSeconds:   10,
		ProbeCount:           3,
		Log:                  coretypes.ServerLogConfig{Level: "info"},
	}
}

// EnsureDirs creates the runtime and log directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.RunDir, c.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return nil
}

// RunLockPath is the flock file serializing concurrent Loom invocations.
func (c *Config) RunLockPath() string { return filepath.Join(c.RunDir, "loom.lock") }

// PIDFile returns the PID file for an identity-token-derived ID.
func (c *Config) PIDFile(tokenID string) string {
	return filepath.Join(c.RunDir, tokenID+".pid")
}

// ProcessLogPath returns the append-only log file for a role.
func (c *Config) ProcessLogPath(role types.Role) string {
	return filepath.Join(c.LogDir, string(role)+".log")
}

// ReadyTimeout is the wall-clock bound on one readiness wait.
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyAttempts*c.ReadyIntervalSeconds) * time.Second
}

// ReadyInterval is the per-signal poll interval.
func (c *Config) ReadyInterval() time.Duration {
	return time.Duration(c.ReadyIntervalSeconds) * time.Second
}

// StopTimeout is the graceful-termination window.
func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutSeconds) * time.Second
}
