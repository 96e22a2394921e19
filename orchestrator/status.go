package orchestrator

import (
	"context"

	"github.com/projectloom/loom/config"
	"github.com/projectloom/loom/types"
	"github.com/projectloom/loom/utils"
)

// FabricStatus is the aggregate view re-derived from the OS. Nothing here
// is remembered between invocations; liveness and identity come from the
// process table, the namespace mounts, and the switch database.
type FabricStatus struct {
	State        types.FabricRunState `json:"state"`
	Variant      string               `json:"variant,omitempty"`
	Network      bool                 `json:"network"`
	Controller   types.ProcessStatus  `json:"controller"`
	Presentation types.ProcessStatus  `json:"presentation"`
}

// Status inspects the host and reports where in the lifecycle the fabric
// currently is.
func (o *Orchestrator) Status(ctx context.Context) (*FabricStatus, error) {
	st := &FabricStatus{State: types.FabricUninitialized}

	variant, running := o.detectVariant()
	if !running {
		// No controller anywhere; probe topology with the canonical names.
		variant, _ = config.LookupVariant(config.VariantIDs()[0])
	} else {
		st.Variant = variant.ID
	}
	spec := variant.FabricSpec()

	bridge, err := o.topo.BridgeExists(ctx, spec.BridgeName)
	if err != nil {
		return nil, err
	}
	st.Network = bridge
	for _, port := range spec.Ports {
		if !o.topo.NamespaceExists(port.Namespace) {
			st.Network = false
		}
	}
	if st.Network {
		st.State = types.FabricNetworkReady
	}

	ctrlToken := variant.ControllerProcess(o.conf).Token()
	st.Controller = o.sup.Status(types.RoleController, ctrlToken)
	if running {
		st.State = types.FabricControllerStarting
		hc := utils.NewHTTPClient()
		healthy, _ := utils.CheckHTTP(ctx, hc, variant.APIURL(variant.HealthPath))
		connected, _ := o.topo.ControllerConnected(ctx, spec.BridgeName)
		switch {
		case healthy && connected:
			st.Controller.State = types.ServiceReady
			st.State = types.FabricSwitchConnected
		case healthy:
			// API answers but the control channel dropped — alive, not well.
			st.Controller.State = types.ServiceDegraded
			st.State = types.FabricControllerReady
		}
	}

	presToken := variant.PresentationProcess(o.conf).Token()
	st.Presentation = o.sup.Status(types.RolePresentation, presToken)
	if st.Presentation.State != types.ServiceStopped {
		hc := utils.NewHTTPClient()
		if ok, _ := utils.CheckHTTP(ctx, hc, variant.WebURL()); ok {
			st.Presentation.State = types.ServiceReady
			if st.State == types.FabricSwitchConnected {
				st.State = types.FabricRunning
			}
		}
	}
	return st, nil
}

// detectVariant finds which controller variant is live by scanning for each
// variant's identity token.
func (o *Orchestrator) detectVariant() (config.Variant, bool) {
	for _, id := range config.VariantIDs() {
		variant, _ := config.LookupVariant(id)
		if o.sup.IsRunning(variant.ControllerProcess(o.conf).Token()) {
			return variant, true
		}
	}
	return config.Variant{}, false
}
