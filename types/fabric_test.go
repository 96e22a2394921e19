package types

import (
	"strings"
	"testing"
)

func validSpec() *FabricSpec {
	return &FabricSpec{
		BridgeName: "br0",
		Protocol:   "OpenFlow13",
		Controller: Endpoint{Host: "127.0.0.1", Port: 6654},
		Ports: []PortBinding{
			{Namespace: "host1", HostVeth: "veth-host1-br", PeerVeth: "veth-host1", CIDR: "10.0.0.1/24"},
			{Namespace: "host2", HostVeth: "veth-host2-br", PeerVeth: "veth-host2", CIDR: "10.0.0.2/24"},
		},
	}
}

// --- Endpoint ---

func TestEndpoint_Addr(t *testing.T) {
	e := Endpoint{Host: "127.0.0.1", Port: 6654}
	if e.Addr() != "127.0.0.1:6654" {
		t.Errorf("unexpected addr: %s", e.Addr())
	}
}

// --- PortBinding ---

func TestPortBinding_Address(t *testing.T) {
	p := PortBinding{Namespace: "host1", CIDR: "10.0.0.1/24"}
	ip, err := p.Address()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ip.String() != "10.0.0.1" {
		t.Errorf("expected 10.0.0.1, got %s", ip)
	}
}

func TestPortBinding_Address_BadCIDR(t *testing.T) {
	p := PortBinding{Namespace: "host1", CIDR: "not-a-cidr"}
	if _, err := p.Address(); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
}

// --- FabricSpec.Validate ---

func TestValidate_OK(t *testing.T) {
	if err := validSpec().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_EmptyBridge(t *testing.T) {
	spec := validSpec()
	spec.BridgeName = ""
	if err := spec.Validate(); err == nil {
		t.Fatal("expected error for empty bridge name")
	}
}

func TestValidate_EmptyPortName(t *testing.T) {
	spec := validSpec()
	spec.Ports[1].PeerVeth = ""
	if err := spec.Validate(); err == nil {
		t.Fatal("expected error for empty veth name")
	}
}

func TestValidate_DuplicateAcrossPorts(t *testing.T) {
	spec := validSpec()
	spec.Ports[1].HostVeth = spec.Ports[0].HostVeth
	err := spec.Validate()
	if err == nil {
		t.Fatal("expected error for duplicate veth name")
	}
	if !strings.Contains(err.Error(), spec.Ports[0].HostVeth) {
		t.Errorf("error should name the colliding resource: %v", err)
	}
}

func TestValidate_PortCollidesWithBridge(t *testing.T) {
	spec := validSpec()
	spec.Ports[0].Namespace = spec.BridgeName
	err := spec.Validate()
	if err == nil {
		t.Fatal("expected error for namespace colliding with bridge")
	}
	if !strings.Contains(err.Error(), "bridge") {
		t.Errorf("error should say which kind collided: %v", err)
	}
}

func TestValidate_BadCIDR(t *testing.T) {
	spec := validSpec()
	spec.Ports[0].CIDR = "10.0.0.1"
	if err := spec.Validate(); err == nil {
		t.Fatal("expected error for address without mask")
	}
}
