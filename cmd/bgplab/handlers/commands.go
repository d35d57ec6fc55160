package handlers

import (
	"context"

	"github.com/osdemo/bgplab/internal/provisioning"
	"github.com/osdemo/bgplab/internal/provisioning/compute"
	"github.com/osdemo/bgplab/internal/provisioning/infrastructure"
	"github.com/osdemo/bgplab/internal/provisioning/peering"
	"github.com/osdemo/bgplab/internal/provisioning/probe"
)

// newProbeProvisioner creates the probe phase.
var newProbeProvisioner = func() provisioning.Phase {
	return probe.NewProvisioner()
}

// Deploy runs the whole demo: topologies, VMs, security group, BGP peers and
// the connectivity probe. The first failing phase aborts the run.
func Deploy(ctx context.Context, opts Options) error {
	return run(ctx, opts, needOpenStack|needDocker,
		infrastructure.NewProvisioner(),
		compute.NewProvisioner(),
		infrastructure.NewSecurityProvisioner(),
		peering.NewProvisioner(),
		newProbeProvisioner(),
	)
}

// Network creates both tenant networks and attaches them to the shared router.
func Network(ctx context.Context, opts Options) error {
	return run(ctx, opts, needOpenStack, infrastructure.NewProvisioner())
}

// VM boots the demo servers and binds their floating IPs.
func VM(ctx context.Context, opts Options) error {
	return run(ctx, opts, needOpenStack, compute.NewProvisioner())
}

// SecGroup creates the security group and applies it to the configured servers.
func SecGroup(ctx context.Context, opts Options) error {
	return run(ctx, opts, needOpenStack, infrastructure.NewSecurityProvisioner())
}

// Peering starts the two FRR containers and configures them as BGP neighbors.
func Peering(ctx context.Context, opts Options) error {
	return run(ctx, opts, needDocker, peering.NewProvisioner())
}

// Probe pings the target VM from the source VM over SSH.
func Probe(ctx context.Context, opts Options) error {
	return run(ctx, opts, needOpenStack, newProbeProvisioner())
}
