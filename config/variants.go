package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/projectloom/loom/types"
)

// Variant is one interchangeable controller implementation. Everything
// variant-specific — launcher script, ports, log markers, health path,
// required environment — lives here as data, never as per-variant code.
type Variant struct {
	ID       string
	Launcher string
	// OFPort is the OpenFlow listen port the bridge dials.
	OFPort int
	// APIPort serves the controller's REST API.
	APIPort int
	// WebPort serves the presentation process.
	WebPort int
	// HealthPath is the API path probed for readiness. Not every variant
	// exposes a dedicated health endpoint; older ones are probed through
	// the topology read API instead.
	HealthPath string
	// InitMarker appears in the controller log once initialization finished.
	InitMarker string
	// SwitchMarker appears once the virtual switch attached to the
	// control channel.
	SwitchMarker string
	// RequiredEnv must be present in the orchestrator's environment before
	// launch; it is passed through to the child.
	RequiredEnv []string
}

var variants = map[string]Variant{
	"v1": {
		ID:           "v1",
		Launcher:     "launcher.py",
		OFPort:       6654,
		APIPort:      8080,
		WebPort:      8001,
		HealthPath:   "/api/topology",
		InitMarker:   "SDN Controller initialized",
		SwitchMarker: "Switch connected",
	},
	"v2": {
		ID:           "v2",
		Launcher:     "launcher_v2.py",
		OFPort:       6655,
		APIPort:      8080,
		WebPort:      8001,
		HealthPath:   "/api/topology",
		InitMarker:   "SDN Controller initialized",
		SwitchMarker: "Switch connected",
	},
	"v3": {
		ID:           "v3",
		Launcher:     "launcher_v3.py",
		OFPort:       6655,
		APIPort:      8080,
		WebPort:      8001,
		HealthPath:   "/api/health",
		InitMarker:   "SDN Controller initialized",
		SwitchMarker: "Switch connected",
		RequiredEnv:  []string{"USE_LLM", "GROQ_API_KEY"},
	},
}

// LookupVariant resolves a variant ID.
func LookupVariant(id string) (Variant, error) {
	v, ok := variants[id]
	if !ok {
		return Variant{}, fmt.Errorf("unknown variant %q (have %v)", id, VariantIDs())
	}
	return v, nil
}

// VariantIDs lists the registered variant IDs, sorted.
func VariantIDs() []string {
	ids := make([]string, 0, len(variants))
	for id := range variants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CheckEnv verifies the variant's required environment is present.
func (v Variant) CheckEnv() error {
	for _, key := range v.RequiredEnv {
		if os.Getenv(key) == "" {
			return fmt.Errorf("variant %s requires %s in the environment", v.ID, key)
		}
	}
	return nil
}

// APIURL renders a controller API URL for the given path.
func (v Variant) APIURL(path string) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", v.APIPort, path)
}

// WebURL is the presentation server root.
func (v Variant) WebURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/", v.WebPort)
}

// ControllerProcess builds the ProcessSpec launching this variant.
func (v Variant) ControllerProcess(conf *Config) *types.ProcessSpec {
	env := os.Environ()
	return &types.ProcessSpec{
		Role:          types.RoleController,
		Variant:       v.ID,
		Command:       conf.PythonBinary,
		Args:          []string{v.Launcher},
		Dir:           conf.ControllerDir,
		Env:           env,
		LogPath:       conf.ProcessLogPath(types.RoleController),
		IdentityToken: v.Launcher,
		User:          conf.RunAsUser,
	}
}

// PresentationProcess builds the ProcessSpec serving the web UI.
// The identity token includes the port so it never matches an unrelated
// static file server.
func (v Variant) PresentationProcess(conf *Config) *types.ProcessSpec {
	port := strconv.Itoa(v.WebPort)
	return &types.ProcessSpec{
		Role:          types.RolePresentation,
		Variant:       v.ID,
		Command:       conf.PythonBinary,
		Args:          []string{"-m", "http.server", port, "--directory", conf.WebDir},
		LogPath:       conf.ProcessLogPath(types.RolePresentation),
		IdentityToken: "http.server " + port,
		User:          conf.RunAsUser,
	}
}

// FabricSpec is the default topology every variant runs against: one bridge,
// two namespaced hosts on 10.0.0.0/24, control channel on the loopback.
func (v Variant) FabricSpec() *types.FabricSpec {
	return &types.FabricSpec{
		BridgeName: "br0",
		Protocol:   "OpenFlow13",
		Controller: types.Endpoint{Host: "127.0.0.1", Port: v.OFPort},
		Ports: []types.PortBinding{
			{Namespace: "host1", HostVeth: "veth-host1-br", PeerVeth: "veth-host1", CIDR: "10.0.0.1/24"},
			{Namespace: "host2", HostVeth: "veth-host2-br", PeerVeth: "veth-host2", CIDR: "10.0.0.2/24"},
		},
	}
}
