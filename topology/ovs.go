package topology

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// vsctl runs ovs-vsctl and returns trimmed stdout. Missing tooling and
// permission failures are classified as ErrResourceUnavailable so callers
// can distinguish "the host cannot do this" from "the operation failed".
func vsctl(ctx context.Context, args ...string) (string, error) {
	return runOVS(ctx, "ovs-vsctl", args...)
}

func ofctl(ctx context.Context, args ...string) (string, error) {
	return runOVS(ctx, "ovs-ofctl", args...)
}

func runOVS(ctx context.Context, bin string, args ...string) (string, error) {
	if _, err := exec.LookPath(bin); err != nil {
		return "", fmt.Errorf("%w: %s not found", ErrResourceUnavailable, bin)
	}
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput() //nolint:gosec
	text := strings.TrimSpace(string(out))
	if err != nil {
		if strings.Contains(text, "Permission denied") || strings.Contains(text, "database connection failed") {
			return text, fmt.Errorf("%w: %s %s: %s", ErrResourceUnavailable, bin, strings.Join(args, " "), text)
		}
		return text, fmt.Errorf("%s %s: %s: %w", bin, strings.Join(args, " "), text, err)
	}
	return text, nil
}

// brExists wraps `ovs-vsctl br-exists`, which exits 2 when the bridge is
// absent — the only expected non-zero status.
func brExists(ctx context.Context, name string) (bool, error) {
	_, err := vsctl(ctx, "br-exists", name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrResourceUnavailable) {
		return false, err
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 2 {
		return false, nil
	}
	return false, err
}

// controllerConnected queries the control-channel status recorded by the
// switch for its configured controller.
func controllerConnected(ctx context.Context, bridge string) (bool, error) {
	out, err := vsctl(ctx, "--format=csv", "--no-headings", "--columns=is_connected", "list", "controller", bridge)
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "true"), nil
}

// flowCount counts installed forwarding rules on the bridge. Every flow line
// in `ovs-ofctl dump-flows` output carries a cookie attribute; the header
// line does not.
func flowCount(ctx context.Context, bridge, protocol string) (int, error) {
	out, err := ofctl(ctx, "-O", protocol, "dump-flows", bridge)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "cookie=") {
			count++
		}
	}
	return count, nil
}
