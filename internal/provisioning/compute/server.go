package compute

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/floatingips"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/ports"

	"github.com/osdemo/bgplab/internal/config"
	"github.com/osdemo/bgplab/internal/platform/openstack"
	"github.com/osdemo/bgplab/internal/provisioning"
)

// ProvisionServer ensures the server exists, waits for it to become ACTIVE and
// binds a floating IP to its first port. A server whose port already has a
// floating IP keeps it.
func ProvisionServer(ctx *provisioning.Context, spec config.ServerConfig) (*provisioning.ServerResult, error) {
	ctx.Observer.Printf("[%s] Reconciling server %s...", phase, spec.Name)

	opts, err := resolveServerOpts(ctx, spec)
	if err != nil {
		return nil, err
	}

	server, err := ctx.Infra.EnsureServer(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure server %s: %w", spec.Name, err)
	}

	server, err = ctx.Infra.WaitForServerActive(ctx, server.ID, ctx.Timeouts.PollInterval, ctx.Timeouts.ServerActive)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for server %s: %w", spec.Name, err)
	}

	external, err := ctx.Infra.GetNetwork(ctx, ctx.Config.ExternalNetwork)
	if err != nil {
		return nil, fmt.Errorf("failed to look up external network %s: %w", ctx.Config.ExternalNetwork, err)
	}
	if external == nil {
		return nil, fmt.Errorf("%w: external network %q", openstack.ErrDependencyNotFound, ctx.Config.ExternalNetwork)
	}

	// Ports are listed before any floating IP is allocated, so a server
	// without a port does not leak an address.
	serverPorts, err := ctx.Infra.ListServerPorts(ctx, server.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ports of server %s: %w", spec.Name, err)
	}
	if len(serverPorts) == 0 {
		return nil, fmt.Errorf("%w: %s", openstack.ErrNoPort, spec.Name)
	}
	port := serverPorts[0]

	fip, err := ensureFloatingIP(ctx, external.ID, port)
	if err != nil {
		return nil, fmt.Errorf("failed to bind floating IP to server %s: %w", spec.Name, err)
	}

	result := &provisioning.ServerResult{Server: server, Port: port, FloatingIP: fip}
	ctx.State.Servers[spec.Name] = result

	ctx.Observer.WithFields(map[string]string{
		"id":          server.ID,
		"status":      server.Status,
		"addresses":   formatAddresses(server),
		"floating_ip": fip.FloatingIP,
	}).Printf("[%s] Server %s ready", phase, server.Name)
	return result, nil
}

// resolveServerOpts looks up the image, flavor and network the server boots with.
func resolveServerOpts(ctx *provisioning.Context, spec config.ServerConfig) (openstack.ServerCreateOpts, error) {
	image, err := ctx.Infra.GetImage(ctx, spec.Image)
	if err != nil {
		return openstack.ServerCreateOpts{}, fmt.Errorf("failed to look up image %s: %w", spec.Image, err)
	}
	if image == nil {
		return openstack.ServerCreateOpts{}, fmt.Errorf("%w: image %q", openstack.ErrDependencyNotFound, spec.Image)
	}

	flavor, err := ctx.Infra.GetFlavor(ctx, spec.Flavor)
	if err != nil {
		return openstack.ServerCreateOpts{}, fmt.Errorf("failed to look up flavor %s: %w", spec.Flavor, err)
	}
	if flavor == nil {
		return openstack.ServerCreateOpts{}, fmt.Errorf("%w: flavor %q", openstack.ErrDependencyNotFound, spec.Flavor)
	}

	network, err := ctx.Infra.GetNetwork(ctx, spec.Network)
	if err != nil {
		return openstack.ServerCreateOpts{}, fmt.Errorf("failed to look up network %s: %w", spec.Network, err)
	}
	if network == nil {
		return openstack.ServerCreateOpts{}, fmt.Errorf("%w: network %q", openstack.ErrDependencyNotFound, spec.Network)
	}

	return openstack.ServerCreateOpts{
		Name:      spec.Name,
		ImageID:   image.ID,
		FlavorID:  flavor.ID,
		NetworkID: network.ID,
	}, nil
}

func ensureFloatingIP(ctx *provisioning.Context, externalNetworkID string, port ports.Port) (*floatingips.FloatingIP, error) {
	bound, err := ctx.Infra.ListFloatingIPs(ctx, port.ID)
	if err != nil {
		return nil, err
	}
	if len(bound) > 0 {
		provisioning.LogResourceExists(ctx.Observer, phase, "floating ip", bound[0].FloatingIP, bound[0].ID)
		return &bound[0], nil
	}

	fip, err := ctx.Infra.AllocateFloatingIP(ctx, externalNetworkID)
	if err != nil {
		return nil, err
	}
	return ctx.Infra.AssociateFloatingIP(ctx, fip.ID, port.ID)
}

// formatAddresses renders the address map as "net=ip/type" pairs sorted by network.
func formatAddresses(server *servers.Server) string {
	var parts []string
	for network, raw := range server.Addresses {
		entries, _ := raw.([]interface{})
		for _, e := range entries {
			entry, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			addr, _ := entry["addr"].(string)
			typ, _ := entry["OS-EXT-IPS:type"].(string)
			parts = append(parts, fmt.Sprintf("%s=%s/%s", network, addr, typ))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
