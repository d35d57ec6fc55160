package peering

import (
	"context"
	"fmt"
	"strings"

	"github.com/osdemo/bgplab/internal/config"
	"github.com/osdemo/bgplab/internal/platform/docker"
	"github.com/osdemo/bgplab/internal/provisioning"
	"github.com/osdemo/bgplab/internal/util/retry"
)

// execUser runs every command inside the peer containers.
const execUser = "root"

var (
	keepAliveCommand = []string{"tail", "-f", "/dev/null"}

	installCommands = [][]string{
		{"apt", "update"},
		{"apt", "install", "-y", "frr"},
		{"sed", "-i", "s/bgpd=no/bgpd=yes/g", "/etc/frr/daemons"},
	}

	startDaemonCommand = []string{"/usr/lib/frr/bgpd", "-d"}
)

// Peer tracks one routing-peer container through its lifecycle.
type Peer struct {
	Config      config.PeerConfig
	ContainerID string
	State       PeerState
}

// CreatePeer destroys any container with the peer's name, starts a fresh
// privileged one on the bridge network and waits until it is running.
func CreatePeer(ctx *provisioning.Context, cfg config.PeerConfig) (*Peer, error) {
	ctx.Observer.Printf("[%s] Creating container %s...", phase, cfg.Name)

	container, err := ctx.Docker.RecreateContainer(ctx, docker.ContainerSpec{
		Name:       cfg.Name,
		Image:      ctx.Config.Peering.Image,
		Network:    ctx.Config.Peering.Network.Name,
		Cmd:        keepAliveCommand,
		Privileged: true,
		Tty:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer %s: %w", cfg.Name, err)
	}

	p := &Peer{Config: cfg, ContainerID: container.ID, State: StateAbsent}
	if _, err := ctx.Docker.WaitForRunning(ctx, container.ID, ctx.Timeouts.PollInterval, ctx.Timeouts.ContainerStart); err != nil {
		return nil, fmt.Errorf("failed to start peer %s: %w", cfg.Name, err)
	}
	p.advance(ctx, StateCreated)
	return p, nil
}

// InstallDaemon installs FRR and enables bgpd in its daemons file.
// Non-zero exit codes are logged; a broken install surfaces when the daemon
// never becomes ready.
func (p *Peer) InstallDaemon(ctx *provisioning.Context) error {
	if err := p.expect(StateCreated); err != nil {
		return err
	}
	ctx.Observer.Printf("[%s] Installing FRR in %s...", phase, p.Config.Name)

	for _, cmd := range installCommands {
		if err := p.run(ctx, cmd); err != nil {
			return err
		}
	}
	p.advance(ctx, StateDaemonInstalled)
	return nil
}

// StartDaemon starts bgpd and waits until vtysh can reach it.
func (p *Peer) StartDaemon(ctx *provisioning.Context) error {
	if err := p.expect(StateDaemonInstalled); err != nil {
		return err
	}
	ctx.Observer.Printf("[%s] Starting bgpd in %s...", phase, p.Config.Name)

	if err := p.run(ctx, startDaemonCommand); err != nil {
		return err
	}

	err := retry.Poll(ctx, ctx.Timeouts.PollInterval, ctx.Timeouts.DaemonReady, func(pollCtx context.Context) (bool, error) {
		res, err := ctx.Docker.Exec(pollCtx, p.ContainerID, execUser, vtysh("show running-config"))
		if err != nil {
			return false, err
		}
		return res.ExitCode == 0, nil
	})
	if err != nil {
		return fmt.Errorf("bgpd in %s did not become ready: %w", p.Config.Name, err)
	}
	p.advance(ctx, StateDaemonRunning)
	return nil
}

// ConfigureBGP applies cfg through vtysh. The output is logged, not parsed.
func (p *Peer) ConfigureBGP(ctx *provisioning.Context, cfg BGPConfig) error {
	if err := p.expect(StateDaemonRunning); err != nil {
		return err
	}
	ctx.Observer.Printf("[%s] Configuring BGP in %s (AS %d, neighbor %s AS %d)...",
		phase, p.Config.Name, cfg.LocalAS, cfg.NeighborIP, cfg.RemoteAS)

	res, err := ctx.Docker.Exec(ctx, p.ContainerID, execUser, cfg.Command())
	if err != nil {
		return fmt.Errorf("failed to configure BGP in %s: %w", p.Config.Name, err)
	}
	if out := strings.TrimSpace(res.Output); out != "" {
		ctx.Observer.Printf("[%s] %s: %s", phase, p.Config.Name, out)
	}
	p.advance(ctx, StateBGPConfigured)
	return nil
}

// Reload re-inspects the container and reads its address on network.
func (p *Peer) Reload(ctx *provisioning.Context, network string) (*provisioning.PeerResult, error) {
	container, err := ctx.Docker.GetContainer(ctx, p.ContainerID)
	if err != nil {
		return nil, err
	}
	if container == nil {
		return nil, fmt.Errorf("container %s of peer %s no longer exists", p.ContainerID, p.Config.Name)
	}
	addr, err := docker.ContainerIP(container, network)
	if err != nil {
		return nil, err
	}
	return &provisioning.PeerResult{Peer: p.Config, Container: container, Address: addr}, nil
}

func (p *Peer) run(ctx *provisioning.Context, cmd []string) error {
	res, err := ctx.Docker.Exec(ctx, p.ContainerID, execUser, cmd)
	if err != nil {
		return fmt.Errorf("failed to run %q in %s: %w", strings.Join(cmd, " "), p.Config.Name, err)
	}
	if res.ExitCode != 0 {
		provisioning.LogWarning(ctx.Observer, phase, p.Config.Name,
			fmt.Errorf("%q exited with code %d", strings.Join(cmd, " "), res.ExitCode))
	}
	return nil
}

func (p *Peer) expect(state PeerState) error {
	if p.State != state {
		return fmt.Errorf("peer %s is %s, expected %s", p.Config.Name, p.State, state)
	}
	return nil
}

func (p *Peer) advance(ctx *provisioning.Context, state PeerState) {
	p.State = state
	ctx.Observer.Printf("[%s] %s is %s", phase, p.Config.Name, state)
}

// SessionConfig returns the BGP session local configures towards remote.
func SessionConfig(local, remote *provisioning.PeerResult) (BGPConfig, error) {
	if remote.Address == "" || remote.Address == local.Address {
		return BGPConfig{}, fmt.Errorf("%w: %s at %q", ErrSelfPeering, local.Peer.Name, local.Address)
	}
	return BGPConfig{
		LocalAS:    local.Peer.AS,
		RouterID:   local.Peer.RouterID,
		NeighborIP: remote.Address,
		RemoteAS:   remote.Peer.AS,
	}, nil
}
