package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/projectloom/loom/topology"
	"github.com/projectloom/loom/types"
	"github.com/projectloom/loom/utils"
)

// Fabric is the slice of the topology provisioner the battery needs.
type Fabric interface {
	VerifyDataPlane(ctx context.Context, spec *types.FabricSpec, count int, timeout time.Duration) (topology.ProbeResult, error)
	ControllerConnected(ctx context.Context, bridge string) (bool, error)
	FlowCount(ctx context.Context, spec *types.FabricSpec) (int, error)
}

// Endpoints names the HTTP surfaces under verification.
type Endpoints struct {
	// API maps surface names to their URLs: health, intents, topology,
	// stats, flows.
	API map[string]string
	// IntentsURL accepts POST/DELETE for the synthetic write-then-read.
	IntentsURL string
	// WebURL is the presentation server root.
	WebURL string
}

const (
	probeCount   = 3
	probeTimeout = 10 * time.Second
)

// Battery assembles the fixed verification set: data plane, control
// channel, forwarding rules, every API surface, a synthetic write-then-read,
// and the presentation server.
func Battery(fab Fabric, spec *types.FabricSpec, eps Endpoints) []Check {
	hc := utils.NewHTTPClient()
	battery := []Check{
		{
			Name: "data-plane reachability",
			Run: func(ctx context.Context) (string, error) {
				res, err := fab.VerifyDataPlane(ctx, spec, probeCount, probeTimeout)
				if err != nil {
					return "", err
				}
				if !res.Reachable {
					return "", fmt.Errorf("data plane unreachable: %s", res)
				}
				return res.String(), nil
			},
		},
		{
			Name: "control-channel attachment",
			Run: func(ctx context.Context) (string, error) {
				connected, err := fab.ControllerConnected(ctx, spec.BridgeName)
				if err != nil {
					return "", err
				}
				if !connected {
					return "", fmt.Errorf("bridge %s has no attached controller", spec.BridgeName)
				}
				return "controller attached", nil
			},
		},
		{
			Name: "forwarding rules present",
			Run: func(ctx context.Context) (string, error) {
				n, err := fab.FlowCount(ctx, spec)
				if err != nil {
					return "", err
				}
				if n == 0 {
					return "", fmt.Errorf("no forwarding rules installed on %s", spec.BridgeName)
				}
				return fmt.Sprintf("%d rules", n), nil
			},
		},
	}
	names := make([]string, 0, len(eps.API))
	for name := range eps.API {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		battery = append(battery, apiCheck(hc, name, eps.API[name]))
	}
	battery = append(battery,
		syntheticIntentCheck(hc, eps.IntentsURL),
		apiCheck(hc, "presentation", eps.WebURL),
	)
	return battery
}

func apiCheck(hc *http.Client, name, url string) Check {
	return Check{
		Name: name + " responding",
		Run: func(ctx context.Context) (string, error) {
			ok, err := utils.CheckHTTP(ctx, hc, url)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", fmt.Errorf("GET %s: non-2xx", url)
			}
			return "GET " + url + " ok", nil
		},
	}
}

// syntheticIntentCheck writes one intent through the API, reads it back,
// and deletes it — end-to-end proof that the write path reaches the
// controller's state and the read path reflects it.
func syntheticIntentCheck(hc *http.Client, intentsURL string) Check {
	return Check{
		Name: "synthetic intent write-then-read",
		Run: func(ctx context.Context) (string, error) {
			payload := map[string]any{
				"type":        "QoS Priority",
				"description": "loom verification probe",
			}
			body, _ := json.Marshal(payload)
			created, err := utils.DoAPI(ctx, hc, http.MethodPost, intentsURL, body, http.StatusCreated)
			if err != nil {
				return "", fmt.Errorf("write intent: %w", err)
			}
			var intent struct {
				ID int `json:"id"`
			}
			if err := json.Unmarshal(created, &intent); err != nil {
				return "", fmt.Errorf("decode created intent: %w", err)
			}

			listed, err := utils.DoAPI(ctx, hc, http.MethodGet, intentsURL, nil, http.StatusOK)
			if err != nil {
				return "", fmt.Errorf("read intents back: %w", err)
			}
			var intents []struct {
				ID int `json:"id"`
			}
			if err := json.Unmarshal(listed, &intents); err != nil {
				return "", fmt.Errorf("decode intents: %w", err)
			}
			found := false
			for _, it := range intents {
				if it.ID == intent.ID {
					found = true
					break
				}
			}
			if !found {
				return "", fmt.Errorf("intent %d not visible after write", intent.ID)
			}

			// Best-effort cleanup; the probe intent must not linger.
			deleteURL := fmt.Sprintf("%s/%d", intentsURL, intent.ID)
			if _, err := utils.DoAPI(ctx, hc, http.MethodDelete, deleteURL, nil, http.StatusOK); err != nil {
				return fmt.Sprintf("intent %d round-tripped (cleanup failed: %v)", intent.ID, err), nil
			}
			return fmt.Sprintf("intent %d round-tripped", intent.ID), nil
		},
	}
}
