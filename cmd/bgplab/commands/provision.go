package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/osdemo/bgplab/cmd/bgplab/handlers"
)

type handlerFunc func(ctx context.Context, opts handlers.Options) error

func provisionCommand(opts *handlers.Options, use, short, long string, handler handlerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handler(cmd.Context(), *opts)
		},
	}
}

// Deploy returns the deploy command.
func Deploy(opts *handlers.Options) *cobra.Command {
	return provisionCommand(opts, "deploy", "Run every step of the demo in order",
		`Deploy builds the complete demo:

  1. network   tenant networks, subnets and the shared router
  2. vm        one server per network with a floating IP
  3. secgroup  a security group allowing ICMP and all TCP
  4. peering   two FRR containers peering over BGP
  5. probe     ping between the servers over SSH

Every step reuses what already exists, except the FRR containers,
which are always recreated. The first failing step aborts the run.

Example:
  bgplab deploy
  bgplab deploy -c scenario.yaml --metrics-file /var/lib/node_exporter/bgplab.prom`,
		handlers.Deploy)
}

// Network returns the network command.
func Network(opts *handlers.Options) *cobra.Command {
	return provisionCommand(opts, "network", "Create the tenant networks behind the shared router",
		`Network finds or creates each tenant network and subnet, the shared
router, its external gateway and one router interface per subnet.`,
		handlers.Network)
}

// VM returns the vm command.
func VM(opts *handlers.Options) *cobra.Command {
	return provisionCommand(opts, "vm", "Boot the demo servers and bind floating IPs",
		`VM finds or creates each server, waits for it to become ACTIVE and
binds a floating IP from the external network to its port.

The tenant networks must already exist (run "bgplab network" first).`,
		handlers.VM)
}

// SecGroup returns the secgroup command.
func SecGroup(opts *handlers.Options) *cobra.Command {
	return provisionCommand(opts, "secgroup", "Create the security group and apply it to the servers",
		`SecGroup finds or creates the security group, adds ingress rules for
ICMP and TCP 1-65535 and attaches the group to each configured server.`,
		handlers.SecGroup)
}

// Peering returns the peering command.
func Peering(opts *handlers.Options) *cobra.Command {
	return provisionCommand(opts, "peering", "Start two FRR containers and peer them over BGP",
		`Peering recreates both FRR containers on the bridge network, installs
and starts bgpd, configures each as the other's neighbor and waits for the
session to come up. The BGP summary of both peers is printed at the end.

The Docker engine is taken from DOCKER_HOST, or the local socket.`,
		handlers.Peering)
}

// Probe returns the probe command.
func Probe(opts *handlers.Options) *cobra.Command {
	return provisionCommand(opts, "probe", "Ping one server from the other over SSH",
		`Probe logs into the source server through its floating IP and pings
the fixed IP of the target server. A failed SSH connection is reported
as output, not as an error.`,
		handlers.Probe)
}
