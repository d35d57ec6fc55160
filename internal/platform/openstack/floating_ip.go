package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/floatingips"
)

// ListFloatingIPs returns the floating IPs bound to the port.
func (c *RealClient) ListFloatingIPs(ctx context.Context, portID string) ([]floatingips.FloatingIP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := floatingips.List(c.network, floatingips.ListOpts{PortID: portID}).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list floating IPs of port %s: %w", portID, err)
	}
	return floatingips.ExtractFloatingIPs(pages)
}

// AllocateFloatingIP allocates a new floating IP from the external network.
func (c *RealClient) AllocateFloatingIP(ctx context.Context, externalNetworkID string) (*floatingips.FloatingIP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fip, err := floatingips.Create(c.network, floatingips.CreateOpts{
		FloatingNetworkID: externalNetworkID,
	}).Extract()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate floating IP on network %s: %w", externalNetworkID, err)
	}
	c.report("floating ip", fip.FloatingIP, fip.ID, OutcomeCreated)
	return fip, nil
}

// AssociateFloatingIP binds the floating IP to the port.
func (c *RealClient) AssociateFloatingIP(ctx context.Context, floatingIPID, portID string) (*floatingips.FloatingIP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fip, err := floatingips.Update(c.network, floatingIPID, floatingips.UpdateOpts{PortID: &portID}).Extract()
	if err != nil {
		return nil, fmt.Errorf("failed to associate floating IP %s with port %s: %w", floatingIPID, portID, err)
	}
	return fip, nil
}
