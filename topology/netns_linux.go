package topology

import (
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"syscall"

	cns "github.com/containernetworking/plugins/pkg/ns"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"

	"github.com/projectloom/loom/types"
)

// detectConflicts rejects spec names already claimed by links that do not
// look like ours. Best-effort: a leftover veth from a previous run is fine
// (teardown removes it); a bridge or physical NIC with the same name is not.
func detectConflicts(spec *types.FabricSpec) error {
	for _, port := range spec.Ports {
		for _, name := range []string{port.HostVeth, port.PeerVeth} {
			link, err := netlink.LinkByName(name)
			if err != nil {
				continue // absent or not visible from this namespace
			}
			if link.Type() != "veth" {
				return fmt.Errorf("%w: link %s exists with type %s", ErrResourceConflict, name, link.Type())
			}
		}
	}
	return nil
}

// createNetns creates a named network namespace at /var/run/netns/{name},
// bind-mounting the namespace fd so it outlives the creating thread.
func createNetns(name string) error {
	if err := os.MkdirAll(NetnsPath, 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("mkdir %s: %w", NetnsPath, err)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origNS, err := netns.Get()
	if err != nil {
		if errors.Is(err, syscall.EPERM) {
			return fmt.Errorf("%w: %v", ErrResourceUnavailable, err)
		}
		return fmt.Errorf("get current netns: %w", err)
	}
	defer origNS.Close() //nolint:errcheck

	newNS, err := netns.New()
	if err != nil {
		if errors.Is(err, syscall.EPERM) {
			return fmt.Errorf("%w: create netns: %v", ErrResourceUnavailable, err)
		}
		return fmt.Errorf("create netns: %w", err)
	}
	defer newNS.Close() //nolint:errcheck

	nsPath := NetnsPath + "/" + name
	if createErr := os.WriteFile(nsPath, nil, 0o444); createErr != nil { //nolint:gosec
		_ = netns.Set(origNS)
		return fmt.Errorf("create mount point %s: %w", nsPath, createErr)
	}

	if setErr := netns.Set(origNS); setErr != nil {
		return fmt.Errorf("restore netns: %w", setErr)
	}

	src := fmt.Sprintf("/proc/self/fd/%d", int(newNS))
	if mountErr := syscall.Mount(src, nsPath, "", syscall.MS_BIND, ""); mountErr != nil {
		_ = os.Remove(nsPath)
		return fmt.Errorf("bind mount netns %s: %w", name, mountErr)
	}
	return nil
}

// deleteNetns removes a named network namespace. Absence is success.
func deleteNetns(name string) error {
	nsPath := NetnsPath + "/" + name
	if _, err := os.Stat(nsPath); os.IsNotExist(err) {
		return nil
	}
	if err := syscall.Unmount(nsPath, syscall.MNT_DETACH); err != nil && !errors.Is(err, syscall.EINVAL) {
		return fmt.Errorf("unmount netns %s: %w", name, err)
	}
	if err := os.Remove(nsPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// netnsExists reports whether the named namespace mount point is present.
func netnsExists(name string) bool {
	_, err := os.Stat(NetnsPath + "/" + name)
	return err == nil
}

// createVethPair adds a veth pair in the root namespace.
func createVethPair(hostName, peerName string) error {
	veth := &netlink.Veth{
		LinkAttrs: netlink.LinkAttrs{Name: hostName},
		PeerName:  peerName,
	}
	if err := netlink.LinkAdd(veth); err != nil {
		if errors.Is(err, syscall.EPERM) {
			return fmt.Errorf("%w: add veth %s: %v", ErrResourceUnavailable, hostName, err)
		}
		return fmt.Errorf("add veth %s/%s: %w", hostName, peerName, err)
	}
	return nil
}

// moveIntoNetns moves a link into the named namespace.
func moveIntoNetns(linkName, nsName string) error {
	link, err := netlink.LinkByName(linkName)
	if err != nil {
		return fmt.Errorf("find %s: %w", linkName, err)
	}
	ns, err := netns.GetFromName(nsName)
	if err != nil {
		return fmt.Errorf("open netns %s: %w", nsName, err)
	}
	defer ns.Close() //nolint:errcheck
	if err := netlink.LinkSetNsFd(link, int(ns)); err != nil {
		return fmt.Errorf("move %s into %s: %w", linkName, nsName, err)
	}
	return nil
}

// configureInNetns enters the namespace via the CNI plugins ns closure
// (which handles LockOSThread, setns, and restore) and assigns the address,
// brings the link up, and brings loopback up.
func configureInNetns(nsName, linkName, cidr string) error {
	nsPath := NetnsPath + "/" + nsName
	return cns.WithNetNSPath(nsPath, func(_ cns.NetNS) error {
		link, err := netlink.LinkByName(linkName)
		if err != nil {
			return fmt.Errorf("find %s in %s: %w", linkName, nsName, err)
		}
		ip, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("parse %q: %w", cidr, err)
		}
		addr := &netlink.Addr{IPNet: &net.IPNet{IP: ip, Mask: ipNet.Mask}}
		if err := netlink.AddrAdd(link, addr); err != nil && !errors.Is(err, syscall.EEXIST) {
			return fmt.Errorf("assign %s to %s: %w", cidr, linkName, err)
		}
		if err := netlink.LinkSetUp(link); err != nil {
			return fmt.Errorf("set %s up: %w", linkName, err)
		}
		lo, err := netlink.LinkByName("lo")
		if err == nil {
			_ = netlink.LinkSetUp(lo)
		}
		return nil
	})
}

// linkUp brings a root-namespace link up.
func linkUp(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("find %s: %w", name, err)
	}
	return netlink.LinkSetUp(link)
}

// deleteLink removes a link by name. Absence is success; deleting one veth
// end removes its peer as well.
func deleteLink(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("find %s: %w", name, err)
	}
	if err := netlink.LinkDel(link); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}
