package topology

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/projectloom/loom/types"
)

// ProbeResult summarizes a data-plane reachability run.
type ProbeResult struct {
	Reachable bool
	Sent      int
	Received  int
	AvgRTT    time.Duration
}

func (r ProbeResult) String() string {
	return fmt.Sprintf("%d/%d probes answered, avg rtt %s", r.Received, r.Sent, r.AvgRTT)
}

// verifyDataPlane pings each peer address from the first namespace. Probes
// run through `ip netns exec` because a forked child cannot reliably inherit
// a goroutine's namespace. Lost probes are a result, not an error.
func verifyDataPlane(ctx context.Context, spec *types.FabricSpec, count int, timeout time.Duration) (ProbeResult, error) {
	if len(spec.Ports) < 2 {
		return ProbeResult{}, fmt.Errorf("data-plane probe needs at least 2 ports, have %d", len(spec.Ports))
	}
	if _, err := exec.LookPath("ip"); err != nil {
		return ProbeResult{}, fmt.Errorf("%w: ip not found", ErrResourceUnavailable)
	}

	src := spec.Ports[0]
	total := ProbeResult{Reachable: true}
	for _, peer := range spec.Ports[1:] {
		addr, err := peer.Address()
		if err != nil {
			return ProbeResult{}, err
		}
		res, err := pingFromNetns(ctx, src.Namespace, addr.String(), count, timeout)
		if err != nil {
			return ProbeResult{}, err
		}
		total.Sent += res.Sent
		total.Received += res.Received
		total.AvgRTT += res.AvgRTT
		if !res.Reachable {
			total.Reachable = false
		}
	}
	if n := len(spec.Ports) - 1; n > 1 {
		total.AvgRTT /= time.Duration(n)
	}
	return total, nil
}

func pingFromNetns(ctx context.Context, ns, addr string, count int, timeout time.Duration) (ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	perProbe := "1"
	args := []string{"netns", "exec", ns, "ping", "-c", strconv.Itoa(count), "-W", perProbe, addr}
	out, err := exec.CommandContext(ctx, "ip", args...).CombinedOutput() //nolint:gosec
	text := string(out)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// ping exits 1 on lost probes — still a parseable result.
			// 127/126 means the probe tool itself could not run.
			if code := exitErr.ExitCode(); code == 126 || code == 127 || strings.Contains(text, "cannot exec") {
				return ProbeResult{}, fmt.Errorf("%w: ping not executable in netns %s: %s", ErrResourceUnavailable, ns, strings.TrimSpace(text))
			}
			res := parsePingOutput(text)
			res.Sent = max(res.Sent, count)
			return res, nil
		}
		return ProbeResult{}, fmt.Errorf("probe from %s: %w", ns, err)
	}
	return parsePingOutput(text), nil
}

var (
	pingStatsRe = regexp.MustCompile(`(\d+) packets transmitted, (\d+)(?: packets)? received`)
	pingRTTRe   = regexp.MustCompile(`rtt [a-z/]+ = [\d.]+/([\d.]+)/`)
)

// parsePingOutput extracts transmitted/received counts and the average RTT
// from iputils ping output.
func parsePingOutput(out string) ProbeResult {
	var res ProbeResult
	if m := pingStatsRe.FindStringSubmatch(out); m != nil {
		res.Sent, _ = strconv.Atoi(m[1])
		res.Received, _ = strconv.Atoi(m[2])
	}
	if m := pingRTTRe.FindStringSubmatch(out); m != nil {
		if avg, err := strconv.ParseFloat(m[1], 64); err == nil {
			res.AvgRTT = time.Duration(avg * float64(time.Millisecond))
		}
	}
	res.Reachable = res.Sent > 0 && res.Received == res.Sent
	return res
}
