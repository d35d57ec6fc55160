package peering

import (
	"errors"
	"fmt"

	"github.com/osdemo/bgplab/internal/platform/docker"
	"github.com/osdemo/bgplab/internal/provisioning"
)

const phase = "peering"

var errNoDocker = errors.New("docker client is not configured")

// Provisioner builds the bridge network and both peers, then cross-wires
// their BGP sessions.
type Provisioner struct{}

// NewProvisioner creates a new peering provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	if ctx.Docker == nil {
		return errNoDocker
	}
	cfg := ctx.Config.Peering
	if len(cfg.Peers) != 2 {
		return fmt.Errorf("exactly 2 peers are required, got %d", len(cfg.Peers))
	}

	ctx.Observer.Printf("[%s] Reconciling docker network %s (%s)...", phase, cfg.Network.Name, cfg.Network.CIDR)
	network, err := ctx.Docker.EnsureNetwork(ctx, docker.BridgeNetwork{
		Name:    cfg.Network.Name,
		Driver:  cfg.Network.Driver,
		Subnet:  cfg.Network.CIDR,
		Gateway: cfg.Network.Gateway,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure docker network %s: %w", cfg.Network.Name, err)
	}
	ctx.State.BridgeNetwork = network

	// Both containers are fully up before either is configured, since each
	// needs the other's address.
	peers := make([]*Peer, 0, len(cfg.Peers))
	for _, peerCfg := range cfg.Peers {
		peer, err := CreatePeer(ctx, peerCfg)
		if err != nil {
			return err
		}
		if err := peer.InstallDaemon(ctx); err != nil {
			return err
		}
		if err := peer.StartDaemon(ctx); err != nil {
			return err
		}
		peers = append(peers, peer)
	}

	results := make([]*provisioning.PeerResult, len(peers))
	for i, peer := range peers {
		result, err := peer.Reload(ctx, cfg.Network.Name)
		if err != nil {
			return err
		}
		results[i] = result
		ctx.State.Peers[peer.Config.Name] = result
		ctx.Observer.Printf("[%s] %s address: %s", phase, peer.Config.Name, result.Address)
	}

	for i, peer := range peers {
		session, err := SessionConfig(results[i], results[1-i])
		if err != nil {
			return err
		}
		if err := peer.ConfigureBGP(ctx, session); err != nil {
			return err
		}
	}

	for i, peer := range peers {
		established, err := WaitForSession(ctx, peer, results[1-i].Address)
		if err != nil {
			return err
		}
		ctx.State.Sessions[peer.Config.Name] = established
		if ctx.Metrics != nil {
			ctx.Metrics.SetSessionEstablished(peer.Config.Name, established)
		}
	}

	for _, peer := range peers {
		summary, err := Summary(ctx, peer)
		if err != nil {
			return err
		}
		ctx.Observer.Printf("[%s] BGP summary for %s:\n%s", phase, peer.Config.Name, summary)
	}
	return nil
}
