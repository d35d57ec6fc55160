package docker

import (
	"context"
	"errors"
	"fmt"

	dockerclient "github.com/fsouza/go-dockerclient"
)

// BridgeNetwork describes a user-defined network with a single IPAM pool.
type BridgeNetwork struct {
	Name    string
	Driver  string
	Subnet  string
	Gateway string
}

// GetNetwork returns the network with the given name or ID, or nil if it does not exist.
func (c *Client) GetNetwork(ctx context.Context, name string) (*dockerclient.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	network, err := c.api.NetworkInfo(name)
	if err != nil {
		var noSuch *dockerclient.NoSuchNetwork
		if errors.As(err, &noSuch) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to inspect network %s: %w", name, err)
	}
	return network, nil
}

// EnsureNetwork returns the existing network with spec.Name or creates it.
// An existing network is reused as it is.
func (c *Client) EnsureNetwork(ctx context.Context, spec BridgeNetwork) (*dockerclient.Network, error) {
	existing, err := c.GetNetwork(ctx, spec.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		c.report("docker network", spec.Name, existing.ID, ActionExists)
		return existing, nil
	}

	network, err := c.api.CreateNetwork(dockerclient.CreateNetworkOptions{
		Name:    spec.Name,
		Driver:  spec.Driver,
		Context: ctx,
		IPAM: &dockerclient.IPAMOptions{
			Config: []dockerclient.IPAMConfig{{
				Subnet:  spec.Subnet,
				Gateway: spec.Gateway,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create network %s: %w", spec.Name, err)
	}
	c.report("docker network", spec.Name, network.ID, ActionCreated)
	return network, nil
}
