package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/routers"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/ports"
)

// GetRouter returns the router with the given name, or nil if it does not exist.
func (c *RealClient) GetRouter(ctx context.Context, name string) (*routers.Router, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := routers.List(c.network, routers.ListOpts{Name: name}).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list routers: %w", err)
	}
	all, err := routers.ExtractRouters(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract routers: %w", err)
	}
	return firstNamed(all, name, func(r routers.Router) string { return r.Name }), nil
}

// EnsureRouter ensures that a router with the given name exists. A new router
// has no external gateway; see EnsureRouterGateway.
func (c *RealClient) EnsureRouter(ctx context.Context, name string) (*routers.Router, error) {
	return (&EnsureOperation[routers.Router, routers.CreateOpts]{
		Name:         name,
		ResourceType: "router",
		Get:          c.GetRouter,
		Create: func(_ context.Context, opts routers.CreateOpts) (*routers.Router, error) {
			return routers.Create(c.network, opts).Extract()
		},
		CreateOptsMapper: func() routers.CreateOpts {
			return routers.CreateOpts{Name: name}
		},
		ID: func(r *routers.Router) string { return r.ID },
	}).Execute(ctx, c.hook)
}

// EnsureRouterGateway sets the router's external gateway to externalNetworkID
// if it is unset or points at another network.
func (c *RealClient) EnsureRouterGateway(ctx context.Context, router *routers.Router, externalNetworkID string) (*routers.Router, error) {
	if router.GatewayInfo.NetworkID == externalNetworkID {
		c.report("router gateway", router.Name, router.ID, OutcomeExists)
		return router, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	updated, err := routers.Update(c.network, router.ID, routers.UpdateOpts{
		GatewayInfo: &routers.GatewayInfo{NetworkID: externalNetworkID},
	}).Extract()
	if err != nil {
		return nil, fmt.Errorf("failed to set gateway of router %s: %w", router.Name, err)
	}
	c.report("router gateway", router.Name, router.ID, OutcomeUpdated)
	return updated, nil
}

// AddRouterInterface attaches the subnet to the router.
func (c *RealClient) AddRouterInterface(ctx context.Context, routerID, subnetID string) (*routers.InterfaceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := routers.AddInterface(c.network, routerID, routers.AddInterfaceOpts{SubnetID: subnetID}).Extract()
	if err != nil {
		return nil, fmt.Errorf("failed to add interface for subnet %s to router %s: %w", subnetID, routerID, err)
	}
	return info, nil
}

// GetRouterInterface finds the router port with a fixed IP on subnetID.
func (c *RealClient) GetRouterInterface(ctx context.Context, routerID, subnetID string) (*routers.InterfaceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := ports.List(c.network, ports.ListOpts{DeviceID: routerID}).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list ports of router %s: %w", routerID, err)
	}
	all, err := ports.ExtractPorts(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract ports: %w", err)
	}
	return interfaceOnSubnet(routerID, subnetID, all), nil
}

func interfaceOnSubnet(routerID, subnetID string, routerPorts []ports.Port) *routers.InterfaceInfo {
	for _, p := range routerPorts {
		for _, ip := range p.FixedIPs {
			if ip.SubnetID == subnetID {
				return &routers.InterfaceInfo{
					ID:       routerID,
					PortID:   p.ID,
					SubnetID: subnetID,
					TenantID: p.TenantID,
				}
			}
		}
	}
	return nil
}

func (c *RealClient) report(resourceType, name, id string, outcome Outcome) {
	if c.hook != nil {
		c.hook(resourceType, name, id, outcome)
	}
}
