package openstack

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/openstack/imageservice/v2/images"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/ports"

	"github.com/osdemo/bgplab/internal/util/retry"
)

// Server statuses reported by Nova.
const (
	ServerStatusActive = "ACTIVE"
	ServerStatusBuild  = "BUILD"
	ServerStatusError  = "ERROR"
)

// Address types in a server's address map.
const (
	AddressFixed    = "fixed"
	AddressFloating = "floating"
)

// GetImage returns the image with the given name, or nil if it does not exist.
func (c *RealClient) GetImage(ctx context.Context, name string) (*images.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := images.List(c.image, images.ListOpts{Name: name}).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	all, err := images.ExtractImages(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}
	return firstNamed(all, name, func(i images.Image) string { return i.Name }), nil
}

// GetFlavor returns the flavor with the given name, or nil if it does not exist.
func (c *RealClient) GetFlavor(ctx context.Context, name string) (*flavors.Flavor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := flavors.ListDetail(c.compute, nil).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list flavors: %w", err)
	}
	all, err := flavors.ExtractFlavors(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract flavors: %w", err)
	}
	return firstNamed(all, name, func(f flavors.Flavor) string { return f.Name }), nil
}

// GetServer returns the server with the given name, or nil if it does not exist.
func (c *RealClient) GetServer(ctx context.Context, name string) (*servers.Server, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := servers.ListOpts{Name: "^" + regexp.QuoteMeta(name) + "$"}
	pages, err := servers.List(c.compute, opts).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	all, err := servers.ExtractServers(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract servers: %w", err)
	}
	return firstNamed(all, name, func(s servers.Server) string { return s.Name }), nil
}

// GetServerByID returns the server with the given ID.
func (c *RealClient) GetServerByID(ctx context.Context, id string) (*servers.Server, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	server, err := servers.Get(c.compute, id).Extract()
	if err != nil {
		return nil, fmt.Errorf("failed to get server %s: %w", id, err)
	}
	return server, nil
}

// EnsureServer ensures that a server with the given name exists. It does not
// wait for the server to become active.
func (c *RealClient) EnsureServer(ctx context.Context, opts ServerCreateOpts) (*servers.Server, error) {
	return (&EnsureOperation[servers.Server, servers.CreateOpts]{
		Name:         opts.Name,
		ResourceType: "server",
		Get:          c.GetServer,
		Create: func(_ context.Context, createOpts servers.CreateOpts) (*servers.Server, error) {
			return servers.Create(c.compute, createOpts).Extract()
		},
		CreateOptsMapper: func() servers.CreateOpts {
			return servers.CreateOpts{
				Name:      opts.Name,
				ImageRef:  opts.ImageID,
				FlavorRef: opts.FlavorID,
				Networks:  []servers.Network{{UUID: opts.NetworkID}},
			}
		},
		ID: func(s *servers.Server) string { return s.ID },
	}).Execute(ctx, c.hook)
}

// WaitForServerActive polls the server until it is ACTIVE.
func (c *RealClient) WaitForServerActive(ctx context.Context, id string, interval, timeout time.Duration) (*servers.Server, error) {
	return waitForServerActive(ctx, c.GetServerByID, id, interval, timeout)
}

// ListServerPorts returns the ports whose device is the server, in API order.
func (c *RealClient) ListServerPorts(ctx context.Context, serverID string) ([]ports.Port, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := ports.List(c.network, ports.ListOpts{DeviceID: serverID}).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list ports of server %s: %w", serverID, err)
	}
	return ports.ExtractPorts(pages)
}

func waitForServerActive(
	ctx context.Context,
	get func(ctx context.Context, id string) (*servers.Server, error),
	id string,
	interval, timeout time.Duration,
) (*servers.Server, error) {
	var server *servers.Server
	err := retry.Poll(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
		s, err := get(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				return false, retry.Fatal(err)
			}
			return false, err
		}
		server = s
		switch s.Status {
		case ServerStatusActive:
			return true, nil
		case ServerStatusError:
			return false, retry.Fatal(fmt.Errorf("%w: %s", ErrServerError, s.Name))
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("server %s did not become active: %w", id, err)
	}
	return server, nil
}

// ServerAddress returns the first address of the given type ("fixed" or
// "floating") from the server's address map.
func ServerAddress(server *servers.Server, addrType string) (string, bool) {
	for _, raw := range server.Addresses {
		entries, ok := raw.([]interface{})
		if !ok {
			continue
		}
		for _, e := range entries {
			entry, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			if t, _ := entry["OS-EXT-IPS:type"].(string); t != addrType {
				continue
			}
			if addr, _ := entry["addr"].(string); addr != "" {
				return addr, true
			}
		}
	}
	return "", false
}
