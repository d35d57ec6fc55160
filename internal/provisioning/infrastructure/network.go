package infrastructure

import (
	"fmt"

	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/routers"

	"github.com/osdemo/bgplab/internal/config"
	"github.com/osdemo/bgplab/internal/platform/openstack"
	"github.com/osdemo/bgplab/internal/provisioning"
)

// ProvisionTopology ensures the network, its subnet and the shared router, points
// the router's gateway at the external network and attaches the subnet to it.
// The gateway address is checked against the CIDR before any API call.
func ProvisionTopology(ctx *provisioning.Context, spec config.TopologyConfig) (*provisioning.Topology, error) {
	if err := config.ValidateGateway(spec.CIDR, spec.Gateway); err != nil {
		return nil, fmt.Errorf("invalid topology %q: %w", spec.Network, err)
	}

	ctx.Observer.Printf("[%s] Reconciling network %s (%s)...", phase, spec.Network, spec.CIDR)

	network, err := ctx.Infra.EnsureNetwork(ctx, spec.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure network %s: %w", spec.Network, err)
	}

	subnet, err := ctx.Infra.EnsureSubnet(ctx, openstack.SubnetCreateOpts{
		Name:      spec.Subnet,
		NetworkID: network.ID,
		CIDR:      spec.CIDR,
		GatewayIP: spec.Gateway,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure subnet %s: %w", spec.Subnet, err)
	}

	router, err := ctx.Infra.EnsureRouter(ctx, ctx.Config.Router)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure router %s: %w", ctx.Config.Router, err)
	}

	external, err := ctx.Infra.GetNetwork(ctx, ctx.Config.ExternalNetwork)
	if err != nil {
		return nil, fmt.Errorf("failed to look up external network %s: %w", ctx.Config.ExternalNetwork, err)
	}
	if external == nil {
		return nil, fmt.Errorf("%w: external network %q", openstack.ErrDependencyNotFound, ctx.Config.ExternalNetwork)
	}

	router, err = ctx.Infra.EnsureRouterGateway(ctx, router, external.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to set gateway of router %s: %w", ctx.Config.Router, err)
	}

	iface, err := ensureRouterInterface(ctx, router.ID, subnet.ID)
	if err != nil {
		return nil, err
	}

	topology := &provisioning.Topology{
		Network:   network,
		Subnet:    subnet,
		Router:    router,
		Interface: iface,
	}
	ctx.State.Topologies[spec.Network] = topology
	return topology, nil
}

// ensureRouterInterface adds the subnet to the router. Neutron rejects a
// subnet that is already attached with 400 or 409; the existing port is
// returned in that case.
func ensureRouterInterface(ctx *provisioning.Context, routerID, subnetID string) (*routers.InterfaceInfo, error) {
	iface, err := ctx.Infra.AddRouterInterface(ctx, routerID, subnetID)
	if err == nil {
		provisioning.LogResourceCreated(ctx.Observer, phase, "router interface", subnetID, iface.PortID)
		return iface, nil
	}
	if !openstack.IsBadRequest(err) && !openstack.IsConflict(err) {
		return nil, fmt.Errorf("failed to add router interface for subnet %s: %w", subnetID, err)
	}

	existing, lookupErr := ctx.Infra.GetRouterInterface(ctx, routerID, subnetID)
	if lookupErr != nil {
		return nil, fmt.Errorf("failed to look up router interface for subnet %s: %w", subnetID, lookupErr)
	}
	if existing == nil {
		return nil, fmt.Errorf("failed to add router interface for subnet %s: %w", subnetID, err)
	}

	provisioning.LogResourceExists(ctx.Observer, phase, "router interface", subnetID, existing.PortID)
	return existing, nil
}
