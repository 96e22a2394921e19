package types

import "testing"

// --- ProcessSpec.Token ---

func TestToken_Explicit(t *testing.T) {
	spec := &ProcessSpec{Command: "python3", Args: []string{"-m", "http.server", "8001"}, IdentityToken: "http.server 8001"}
	if got := spec.Token(); got != "http.server 8001" {
		t.Errorf("expected explicit token, got %q", got)
	}
}

func TestToken_FirstNonFlagArg(t *testing.T) {
	spec := &ProcessSpec{Command: "python3", Args: []string{"launcher_v3.py", "--verbose"}}
	if got := spec.Token(); got != "launcher_v3.py" {
		t.Errorf("expected launcher_v3.py, got %q", got)
	}
}

func TestToken_SkipsFlags(t *testing.T) {
	spec := &ProcessSpec{Command: "python3", Args: []string{"-u", "-m", "controller"}}
	if got := spec.Token(); got != "controller" {
		t.Errorf("expected controller, got %q", got)
	}
}

func TestToken_FallsBackToCommand(t *testing.T) {
	spec := &ProcessSpec{Command: "redis-server", Args: []string{"--port", "--daemonize"}}
	if got := spec.Token(); got != "redis-server" {
		t.Errorf("expected command fallback, got %q", got)
	}
}

// --- ProcessSpec.Cmdline ---

func TestCmdline(t *testing.T) {
	spec := &ProcessSpec{Command: "python3", Args: []string{"launcher.py"}}
	if got := spec.Cmdline(); got != "python3 launcher.py" {
		t.Errorf("unexpected cmdline: %q", got)
	}
}

func TestCmdline_NoArgs(t *testing.T) {
	spec := &ProcessSpec{Command: "python3"}
	if got := spec.Cmdline(); got != "python3" {
		t.Errorf("unexpected cmdline: %q", got)
	}
}
