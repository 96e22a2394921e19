// Package readiness decides when a started process is actually usable.
// There is no synchronous "I am ready" handshake with the fabric's child
// processes — readiness is inferred from externally observable signals:
// log markers, HTTP status, control-channel state.
package readiness

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/projectloom/loom/utils"
)

// Signal is one independently observable readiness indicator. Check returns
// whether the signal is satisfied plus a human-readable detail. Transient
// observation failures (file not yet created, connection refused) are
// "not yet satisfied", never errors — Check has no error return on purpose.
type Signal interface {
	Name() string
	Check(ctx context.Context) (satisfied bool, detail string)
}

// LogMarker is satisfied once the file at Path contains Marker.
type LogMarker struct {
	Path   string
	Marker string
}

func (s LogMarker) Name() string { return fmt.Sprintf("log contains %q", s.Marker) }

func (s LogMarker) Check(_ context.Context) (bool, string) {
	data, err := os.ReadFile(s.Path) //nolint:gosec // operator-chosen log path
	if err != nil {
		return false, fmt.Sprintf("read %s: %v", s.Path, err)
	}
	if strings.Contains(string(data), s.Marker) {
		return true, "marker observed"
	}
	return false, fmt.Sprintf("marker absent after %d bytes", len(data))
}

// HTTPEndpoint is satisfied once a GET to URL answers 2xx.
type HTTPEndpoint struct {
	URL    string
	Client *http.Client
}

func (s HTTPEndpoint) Name() string { return "GET " + s.URL }

func (s HTTPEndpoint) Check(ctx context.Context) (bool, string) {
	hc := s.Client
	if hc == nil {
		hc = utils.NewHTTPClient()
	}
	ok, err := utils.CheckHTTP(ctx, hc, s.URL)
	if err != nil {
		return false, err.Error()
	}
	if !ok {
		return false, "non-2xx response"
	}
	return true, "2xx response"
}

// TCPPort is satisfied once Addr accepts a connection.
type TCPPort struct {
	Addr string
}

func (s TCPPort) Name() string { return "dial " + s.Addr }

func (s TCPPort) Check(ctx context.Context) (bool, string) {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second) //nolint:mnd
	defer cancel()
	conn, err := d.DialContext(dialCtx, "tcp", s.Addr)
	if err != nil {
		return false, err.Error()
	}
	_ = conn.Close()
	return true, "connected"
}

// Func adapts an arbitrary probe into a Signal. Probe errors count as
// unsatisfied, matching the transient-failure contract.
type Func struct {
	SignalName string
	Probe      func(ctx context.Context) (bool, error)
}

func (s Func) Name() string { return s.SignalName }

func (s Func) Check(ctx context.Context) (bool, string) {
	ok, err := s.Probe(ctx)
	if err != nil {
		return false, err.Error()
	}
	if !ok {
		return false, "not satisfied"
	}
	return true, "satisfied"
}
