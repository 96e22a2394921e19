// Package topology provisions and destroys the fabric's OS-level network
// resources: the OVS bridge, named network namespaces, and veth pairs.
// Bridge operations go through ovs-vsctl (the switch's own resource API);
// namespace and link operations use netlink directly. No process
// supervision happens here.
package topology

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projectloom/loom/types"
)

var (
	// ErrResourceConflict means a spec name collides with a resource that
	// does not look like ours. Detection is best-effort; the OS is
	// authoritative.
	ErrResourceConflict = errors.New("resource name conflict")
	// ErrResourceUnavailable means a required tool, kernel module, or
	// privilege is missing.
	ErrResourceUnavailable = errors.New("resource API unavailable")
)

// NetnsPath is where named network namespaces are bind-mounted.
const NetnsPath = "/var/run/netns"

// Provisioner manages fabric topology resources.
type Provisioner struct{}

// New creates a Provisioner.
func New() *Provisioner { return &Provisioner{} }

// Provision builds the fabric described by spec. It is self-healing: any
// pre-existing resources matching the spec's names are torn down first, so
// a crashed previous run never blocks a new one. After a successful return
// every port binding is fully present — namespace, both veth ends,
// address, links up.
func (p *Provisioner) Provision(ctx context.Context, spec *types.FabricSpec) error {
	logger := log.WithFunc("topology.Provision")
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid fabric spec: %w", err)
	}
	if err := detectConflicts(spec); err != nil {
		return err
	}

	// Unconditional cleanup before create: teardown tolerates absence, so
	// this is a no-op on a clean host and a repair on a dirty one.
	if err := p.Teardown(ctx, spec); err != nil {
		return fmt.Errorf("pre-provision cleanup: %w", err)
	}

	if err := p.ensureBridge(ctx, spec); err != nil {
		return err
	}
	for _, port := range spec.Ports {
		if err := p.attachPort(ctx, spec, port); err != nil {
			return fmt.Errorf("attach port %s: %w", port.Namespace, err)
		}
		logger.Infof(ctx, "port %s attached (%s)", port.Namespace, port.CIDR)
	}
	if err := linkUp(spec.BridgeName); err != nil {
		return fmt.Errorf("bring bridge %s up: %w", spec.BridgeName, err)
	}
	logger.Infof(ctx, "fabric %s provisioned with %d ports", spec.BridgeName, len(spec.Ports))
	return nil
}

// ensureBridge creates the bridge, pins its protocol version, and binds the
// control-channel endpoint. The controller endpoint is set before any port
// is attached so the switch dials out as soon as the data plane exists.
func (p *Provisioner) ensureBridge(ctx context.Context, spec *types.FabricSpec) error {
	steps := [][]string{
		{"--may-exist", "add-br", spec.BridgeName},
		{"set", "bridge", spec.BridgeName, "protocols=" + spec.Protocol},
		{"set-controller", spec.BridgeName, "tcp:" + spec.Controller.Addr()},
	}
	for _, args := range steps {
		if _, err := vsctl(ctx, args...); err != nil {
			return fmt.Errorf("bridge %s: %w", spec.BridgeName, err)
		}
	}
	return nil
}

// attachPort makes one PortBinding fully present: namespace, veth pair,
// namespace-side address and links, bridge-side attachment.
func (p *Provisioner) attachPort(ctx context.Context, spec *types.FabricSpec, port types.PortBinding) error {
	if err := createNetns(port.Namespace); err != nil {
		return err
	}
	if err := createVethPair(port.HostVeth, port.PeerVeth); err != nil {
		return err
	}
	if err := moveIntoNetns(port.PeerVeth, port.Namespace); err != nil {
		return err
	}
	if _, err := vsctl(ctx, "--may-exist", "add-port", spec.BridgeName, port.HostVeth); err != nil {
		return err
	}
	if err := configureInNetns(port.Namespace, port.PeerVeth, port.CIDR); err != nil {
		return err
	}
	return linkUp(port.HostVeth)
}

// Teardown removes everything Provision creates, in reverse. Each deletion
// tolerates "already absent" individually, so teardown succeeds against a
// partially-provisioned or fully-absent fabric and may be called any number
// of times.
func (p *Provisioner) Teardown(ctx context.Context, spec *types.FabricSpec) error {
	logger := log.WithFunc("topology.Teardown")
	for _, port := range spec.Ports {
		if err := deleteLink(port.HostVeth); err != nil {
			logger.Warnf(ctx, "delete veth %s: %v", port.HostVeth, err)
		}
		if err := deleteNetns(port.Namespace); err != nil {
			logger.Warnf(ctx, "delete netns %s: %v", port.Namespace, err)
		}
	}
	if _, err := vsctl(ctx, "--if-exists", "del-br", spec.BridgeName); err != nil {
		// Unavailable tooling still fails teardown loudly — everything else
		// is logged and swallowed.
		if errors.Is(err, ErrResourceUnavailable) {
			return err
		}
		logger.Warnf(ctx, "delete bridge %s: %v", spec.BridgeName, err)
	}
	return nil
}

// NamespaceExists reports whether a named namespace is present.
func (p *Provisioner) NamespaceExists(name string) bool {
	return netnsExists(name)
}

// BridgeExists reports whether the fabric's bridge is present.
func (p *Provisioner) BridgeExists(ctx context.Context, name string) (bool, error) {
	return brExists(ctx, name)
}

// ControllerConnected reports whether the bridge's control channel has an
// attached controller peer.
func (p *Provisioner) ControllerConnected(ctx context.Context, bridge string) (bool, error) {
	return controllerConnected(ctx, bridge)
}

// FlowCount returns how many forwarding rules are installed on the bridge.
func (p *Provisioner) FlowCount(ctx context.Context, spec *types.FabricSpec) (int, error) {
	return flowCount(ctx, spec.BridgeName, spec.Protocol)
}

// VerifyDataPlane sends count reachability probes from the spec's first
// namespace to each peer address. Probe loss is reported in the result,
// never as an error; an error means the probe could not run at all.
func (p *Provisioner) VerifyDataPlane(ctx context.Context, spec *types.FabricSpec, count int, timeout time.Duration) (ProbeResult, error) {
	return verifyDataPlane(ctx, spec, count, timeout)
}
