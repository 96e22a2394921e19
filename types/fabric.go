package types

import (
	"fmt"
	"net"
)

// FabricRunState is the aggregate lifecycle state of the whole fabric.
// The machine is cyclic: teardown always lands back on Uninitialized,
// so every state is re-enterable.
type FabricRunState string

const (
	FabricUninitialized        FabricRunState = "uninitialized"
	FabricNetworkReady         FabricRunState = "network-ready"
	FabricControllerStarting   FabricRunState = "controller-starting"
	FabricControllerReady      FabricRunState = "controller-ready"
	FabricSwitchConnected      FabricRunState = "switch-connected"
	FabricPresentationReady    FabricRunState = "presentation-ready"
	FabricRunning              FabricRunState = "running"
	FabricStoppingPresentation FabricRunState = "stopping-presentation"
	FabricStoppingController   FabricRunState = "stopping-controller"
	FabricNetworkTornDown      FabricRunState = "network-torn-down"
)

// Endpoint is a host:port pair, e.g. the controller's OpenFlow listen address.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (e Endpoint) Addr() string { return fmt.Sprintf("%s:%d", e.Host, e.Port) }

// PortBinding describes one namespaced host attached to the bridge.
// A binding is all-or-nothing: after a successful provision the namespace
// exists, both veth ends exist, the address is assigned, and all links are up.
type PortBinding struct {
	// Namespace is the named network namespace, e.g. "host1".
	Namespace string `json:"namespace"`
	// HostVeth is the bridge-side veth end, left in the root namespace.
	HostVeth string `json:"host_veth"`
	// PeerVeth is the end moved into Namespace.
	PeerVeth string `json:"peer_veth"`
	// CIDR is the address assigned to PeerVeth, e.g. "10.0.0.1/24".
	CIDR string `json:"cidr"`
}

// Address returns the bare IP of the binding's CIDR.
func (p PortBinding) Address() (net.IP, error) {
	ip, _, err := net.ParseCIDR(p.CIDR)
	if err != nil {
		return nil, fmt.Errorf("port %s: parse %q: %w", p.Namespace, p.CIDR, err)
	}
	return ip, nil
}

// FabricSpec is the declarative description of the virtual network under test.
type FabricSpec struct {
	// BridgeName must be unique on the host, e.g. "br0".
	BridgeName string `json:"bridge_name"`
	// Protocol is the OpenFlow protocol version set on the bridge, e.g. "OpenFlow13".
	Protocol string `json:"protocol"`
	// Controller is the control-channel endpoint the bridge dials.
	Controller Endpoint `json:"controller"`
	// Ports are the namespaced hosts, in attach order.
	Ports []PortBinding `json:"ports"`
}

// Validate rejects specs with duplicate or empty resource names. Names are
// the fabric's shared mutable resources; a collision inside one spec would
// make provisioning non-deterministic.
func (s *FabricSpec) Validate() error {
	if s.BridgeName == "" {
		return fmt.Errorf("bridge name is empty")
	}
	seen := map[string]string{s.BridgeName: "bridge"}
	for _, p := range s.Ports {
		names := []struct{ kind, name string }{
			{"namespace", p.Namespace},
			{"veth", p.HostVeth},
			{"peer veth", p.PeerVeth},
		}
		for _, n := range names {
			if n.name == "" {
				return fmt.Errorf("port %s: %s name is empty", p.Namespace, n.kind)
			}
			if prev, ok := seen[n.name]; ok {
				return fmt.Errorf("name %q used by both %s and %s", n.name, prev, n.kind)
			}
			seen[n.name] = n.kind
		}
		if _, err := p.Address(); err != nil {
			return err
		}
	}
	return nil
}
