package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/networks"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/subnets"
)

// GetNetwork returns the network with the given name, or nil if it does not exist.
func (c *RealClient) GetNetwork(ctx context.Context, name string) (*networks.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := networks.List(c.network, networks.ListOpts{Name: name}).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	all, err := networks.ExtractNetworks(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract networks: %w", err)
	}
	return firstNamed(all, name, func(n networks.Network) string { return n.Name }), nil
}

// EnsureNetwork ensures that a network with the given name exists.
func (c *RealClient) EnsureNetwork(ctx context.Context, name string) (*networks.Network, error) {
	return (&EnsureOperation[networks.Network, networks.CreateOpts]{
		Name:         name,
		ResourceType: "network",
		Get:          c.GetNetwork,
		Create: func(_ context.Context, opts networks.CreateOpts) (*networks.Network, error) {
			return networks.Create(c.network, opts).Extract()
		},
		CreateOptsMapper: func() networks.CreateOpts {
			return networks.CreateOpts{Name: name}
		},
		ID: func(n *networks.Network) string { return n.ID },
	}).Execute(ctx, c.hook)
}

// GetSubnet returns the subnet with the given name, or nil if it does not exist.
func (c *RealClient) GetSubnet(ctx context.Context, name string) (*subnets.Subnet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := subnets.List(c.network, subnets.ListOpts{Name: name}).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list subnets: %w", err)
	}
	all, err := subnets.ExtractSubnets(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract subnets: %w", err)
	}
	return firstNamed(all, name, func(s subnets.Subnet) string { return s.Name }), nil
}

// EnsureSubnet ensures that an IPv4 subnet with the given name exists.
func (c *RealClient) EnsureSubnet(ctx context.Context, opts SubnetCreateOpts) (*subnets.Subnet, error) {
	return (&EnsureOperation[subnets.Subnet, subnets.CreateOpts]{
		Name:         opts.Name,
		ResourceType: "subnet",
		Get:          c.GetSubnet,
		Create: func(_ context.Context, createOpts subnets.CreateOpts) (*subnets.Subnet, error) {
			return subnets.Create(c.network, createOpts).Extract()
		},
		CreateOptsMapper: func() subnets.CreateOpts {
			gateway := opts.GatewayIP
			return subnets.CreateOpts{
				NetworkID: opts.NetworkID,
				Name:      opts.Name,
				CIDR:      opts.CIDR,
				GatewayIP: &gateway,
				IPVersion: gophercloud.IPv4,
			}
		},
		ID: func(s *subnets.Subnet) string { return s.ID },
	}).Execute(ctx, c.hook)
}
