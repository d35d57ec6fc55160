package provisioning

import (
	"context"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/floatingips"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/routers"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/groups"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/networks"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/ports"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/subnets"

	dockerclient "github.com/fsouza/go-dockerclient"

	"github.com/osdemo/bgplab/internal/config"
	"github.com/osdemo/bgplab/internal/metrics"
	"github.com/osdemo/bgplab/internal/platform/docker"
	"github.com/osdemo/bgplab/internal/platform/openstack"
)

// Topology is one tenant network wired to the shared router.
type Topology struct {
	Network   *networks.Network
	Subnet    *subnets.Subnet
	Router    *routers.Router
	Interface *routers.InterfaceInfo
}

// ServerResult is an ACTIVE server and the floating IP bound to its first port.
type ServerResult struct {
	Server     *servers.Server
	Port       ports.Port
	FloatingIP *floatingips.FloatingIP
}

// PeerResult is a routing-peer container and its address on the bridge network.
type PeerResult struct {
	Peer      config.PeerConfig
	Container *dockerclient.Container
	Address   string
}

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	Topologies map[string]*Topology     // network name -> topology
	Servers    map[string]*ServerResult // server name -> server

	SecurityGroup *groups.SecGroup

	BridgeNetwork *dockerclient.Network
	Peers         map[string]*PeerResult // peer name -> container
	Sessions      map[string]bool        // peer name -> neighbor Established

	ProbeOutput string
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{
		Topologies: make(map[string]*Topology),
		Servers:    make(map[string]*ServerResult),
		Peers:      make(map[string]*PeerResult),
		Sessions:   make(map[string]bool),
	}
}

// Context wraps all dependencies and state needed for a provisioning phase.
// Docker is nil for runs that only touch OpenStack.
type Context struct {
	context.Context
	Config   *config.Config
	State    *State
	Infra    openstack.InfrastructureManager
	Docker   *docker.Client
	Observer Observer
	Metrics  *metrics.Recorder
	Timeouts *config.Timeouts
}

// NewContext creates a new provisioning context. A nil observer discards events.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	infra openstack.InfrastructureManager,
	dockerClient *docker.Client,
	observer Observer,
) *Context {
	if observer == nil {
		observer = NopObserver()
	}
	return &Context{
		Context:  ctx,
		Config:   cfg,
		State:    NewState(),
		Infra:    infra,
		Docker:   dockerClient,
		Observer: observer,
		Metrics:  metrics.NewRecorder(),
		Timeouts: config.LoadTimeouts(),
	}
}
