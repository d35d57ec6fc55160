package openstack

import (
	"context"
	"time"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/openstack/imageservice/v2/images"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/floatingips"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/routers"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/groups"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/rules"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/networks"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/ports"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/subnets"
)

// SubnetCreateOpts holds the parameters for an IPv4 subnet.
type SubnetCreateOpts struct {
	Name      string
	NetworkID string
	CIDR      string
	GatewayIP string
}

// ServerCreateOpts holds the parameters for a server with a single network attachment.
type ServerCreateOpts struct {
	Name      string
	ImageID   string
	FlavorID  string
	NetworkID string
}

// IngressRule is an IPv4 ingress rule. Zero port bounds mean all ports.
type IngressRule struct {
	Protocol       rules.RuleProtocol
	PortRangeMin   int
	PortRangeMax   int
	RemoteIPPrefix string
}

// NetworkManager defines the interface for managing networks and subnets.
type NetworkManager interface {
	GetNetwork(ctx context.Context, name string) (*networks.Network, error)
	EnsureNetwork(ctx context.Context, name string) (*networks.Network, error)
	GetSubnet(ctx context.Context, name string) (*subnets.Subnet, error)
	EnsureSubnet(ctx context.Context, opts SubnetCreateOpts) (*subnets.Subnet, error)
}

// RouterManager defines the interface for managing routers.
type RouterManager interface {
	GetRouter(ctx context.Context, name string) (*routers.Router, error)
	EnsureRouter(ctx context.Context, name string) (*routers.Router, error)
	// EnsureRouterGateway points the router's external gateway at externalNetworkID.
	// No update call is made when it already does.
	EnsureRouterGateway(ctx context.Context, router *routers.Router, externalNetworkID string) (*routers.Router, error)
	AddRouterInterface(ctx context.Context, routerID, subnetID string) (*routers.InterfaceInfo, error)
	// GetRouterInterface returns the router's interface on subnetID, or nil if it has none.
	GetRouterInterface(ctx context.Context, routerID, subnetID string) (*routers.InterfaceInfo, error)
}

// SecurityGroupManager defines the interface for managing security groups.
type SecurityGroupManager interface {
	GetSecurityGroup(ctx context.Context, name string) (*groups.SecGroup, error)
	EnsureSecurityGroup(ctx context.Context, name, description string) (*groups.SecGroup, error)
	AddIngressRule(ctx context.Context, groupID string, rule IngressRule) (*rules.SecGroupRule, error)
	ListRules(ctx context.Context, groupID string) ([]rules.SecGroupRule, error)
	AddServerSecurityGroup(ctx context.Context, serverID, groupName string) error
}

// ServerManager defines the interface for managing servers and their boot dependencies.
type ServerManager interface {
	GetImage(ctx context.Context, name string) (*images.Image, error)
	GetFlavor(ctx context.Context, name string) (*flavors.Flavor, error)
	GetServer(ctx context.Context, name string) (*servers.Server, error)
	GetServerByID(ctx context.Context, id string) (*servers.Server, error)
	EnsureServer(ctx context.Context, opts ServerCreateOpts) (*servers.Server, error)
	// WaitForServerActive polls until the server is ACTIVE. ERROR is fatal.
	WaitForServerActive(ctx context.Context, id string, interval, timeout time.Duration) (*servers.Server, error)
	ListServerPorts(ctx context.Context, serverID string) ([]ports.Port, error)
}

// FloatingIPManager defines the interface for managing floating IPs.
type FloatingIPManager interface {
	ListFloatingIPs(ctx context.Context, portID string) ([]floatingips.FloatingIP, error)
	AllocateFloatingIP(ctx context.Context, externalNetworkID string) (*floatingips.FloatingIP, error)
	AssociateFloatingIP(ctx context.Context, floatingIPID, portID string) (*floatingips.FloatingIP, error)
}

// InfrastructureManager combines all infrastructure interfaces.
type InfrastructureManager interface {
	NetworkManager
	RouterManager
	SecurityGroupManager
	ServerManager
	FloatingIPManager
}

var (
	_ InfrastructureManager = (*RealClient)(nil)
	_ InfrastructureManager = (*FakeClient)(nil)
)
