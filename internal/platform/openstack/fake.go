package openstack

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gophercloud/gophercloud"
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

	"github.com/osdemo/bgplab/internal/config"
)

// CalledDetail is the struct contains called function name and arguments.
type CalledDetail struct {
	// Name of the function called.
	Name string
	// Argument of the function called.
	Argument []interface{}
}

// FakeClient is a stateful in-memory OpenStack, so that the provisioning
// phases can be tested without a real cloud. Resources are keyed by name
// unless noted otherwise.
type FakeClient struct {
	sync.Mutex
	called []CalledDetail
	errors map[string]error
	hook   EnsureHook
	polls  map[string]int

	Networks       map[string]*networks.Network
	Subnets        map[string]*subnets.Subnet
	Routers        map[string]*routers.Router
	RouterPorts    map[string][]ports.Port // by router ID
	SecurityGroups map[string]*groups.SecGroup
	Rules          map[string][]rules.SecGroupRule // by security group ID
	Images         map[string]*images.Image
	Flavors        map[string]*flavors.Flavor
	Servers        map[string]*servers.Server
	ServerGroups   map[string][]string   // security group names by server ID
	ServerPorts    map[string][]ports.Port // by server ID
	FloatingIPs    map[string]*floatingips.FloatingIP // by ID

	// BuildPolls is the number of status reads a new server stays in BUILD.
	BuildPolls int
	// SkipServerPorts creates servers without a network port.
	SkipServerPorts bool
}

// NewFakeClient creates an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		errors:         make(map[string]error),
		polls:          make(map[string]int),
		Networks:       make(map[string]*networks.Network),
		Subnets:        make(map[string]*subnets.Subnet),
		Routers:        make(map[string]*routers.Router),
		RouterPorts:    make(map[string][]ports.Port),
		SecurityGroups: make(map[string]*groups.SecGroup),
		Rules:          make(map[string][]rules.SecGroupRule),
		Images:         make(map[string]*images.Image),
		Flavors:        make(map[string]*flavors.Flavor),
		Servers:        make(map[string]*servers.Server),
		ServerGroups:   make(map[string][]string),
		ServerPorts:    make(map[string][]ports.Port),
		FloatingIPs:    make(map[string]*floatingips.FloatingIP),
	}
}

// NewDemoFakeClient creates a FakeClient holding the resources the demo
// scenario expects to find: the external network, the image and the flavor.
func NewDemoFakeClient() *FakeClient {
	f := NewFakeClient()
	f.AddExternalNetwork(config.DefaultExternalNetwork)
	f.AddImage(config.DefaultImage)
	f.AddFlavor(config.DefaultFlavor)
	return f
}

// StatusError builds an API error with the given HTTP status code.
func StatusError(code int) error {
	return gophercloud.ErrUnexpectedResponseCode{
		Expected: []int{http.StatusOK},
		Actual:   code,
		Body:     []byte(http.StatusText(code)),
	}
}

// SetEnsureHook sets the hook called after every ensure operation.
func (f *FakeClient) SetEnsureHook(hook EnsureHook) {
	f.Lock()
	defer f.Unlock()
	f.hook = hook
}

// AddExternalNetwork injects a fake external network.
func (f *FakeClient) AddExternalNetwork(name string) *networks.Network {
	f.Lock()
	defer f.Unlock()
	n := &networks.Network{ID: uuid.NewString(), Name: name, Status: "ACTIVE"}
	f.Networks[name] = n
	return n
}

// AddImage injects a fake image.
func (f *FakeClient) AddImage(name string) *images.Image {
	f.Lock()
	defer f.Unlock()
	img := &images.Image{ID: uuid.NewString(), Name: name, Status: images.ImageStatusActive}
	f.Images[name] = img
	return img
}

// AddFlavor injects a fake flavor.
func (f *FakeClient) AddFlavor(name string) *flavors.Flavor {
	f.Lock()
	defer f.Unlock()
	fl := &flavors.Flavor{ID: uuid.NewString(), Name: name, VCPUs: 1, RAM: 512, Disk: 1}
	f.Flavors[name] = fl
	return fl
}

func (f *FakeClient) getError(op string) error {
	err, ok := f.errors[op]
	if ok {
		delete(f.errors, op)
		return err
	}
	return nil
}

// InjectError makes the next call of fn fail with err.
func (f *FakeClient) InjectError(fn string, err error) {
	f.Lock()
	defer f.Unlock()
	f.errors[fn] = err
}

// ClearErrors clear errors for call
func (f *FakeClient) ClearErrors() {
	f.Lock()
	defer f.Unlock()
	f.errors = make(map[string]error)
}

func (f *FakeClient) appendCalled(name string, argument ...interface{}) {
	f.called = append(f.called, CalledDetail{Name: name, Argument: argument})
}

// GetCalledNames get names of call
func (f *FakeClient) GetCalledNames() []string {
	f.Lock()
	defer f.Unlock()
	names := []string{}
	for _, detail := range f.called {
		names = append(names, detail.Name)
	}
	return names
}

// GetCalledDetails get detail of each call.
func (f *FakeClient) GetCalledDetails() []CalledDetail {
	f.Lock()
	defer f.Unlock()
	return append([]CalledDetail{}, f.called...)
}

// CountCalls returns how many times fn was called.
func (f *FakeClient) CountCalls(fn string) int {
	n := 0
	for _, name := range f.GetCalledNames() {
		if name == fn {
			n++
		}
	}
	return n
}

func (f *FakeClient) begin(name string, argument ...interface{}) error {
	f.appendCalled(name, argument...)
	return f.getError(name)
}

// GetNetwork returns the network by name.
func (f *FakeClient) GetNetwork(_ context.Context, name string) (*networks.Network, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("GetNetwork", name); err != nil {
		return nil, err
	}
	if n, ok := f.Networks[name]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, nil
}

// EnsureNetwork ensures the network exists.
func (f *FakeClient) EnsureNetwork(ctx context.Context, name string) (*networks.Network, error) {
	return (&EnsureOperation[networks.Network, networks.CreateOpts]{
		Name:         name,
		ResourceType: "network",
		Get:          f.GetNetwork,
		Create: func(_ context.Context, opts networks.CreateOpts) (*networks.Network, error) {
			f.Lock()
			defer f.Unlock()
			if err := f.begin("CreateNetwork", opts.Name); err != nil {
				return nil, err
			}
			n := &networks.Network{ID: uuid.NewString(), Name: opts.Name, Status: "ACTIVE"}
			f.Networks[opts.Name] = n
			cp := *n
			return &cp, nil
		},
		CreateOptsMapper: func() networks.CreateOpts { return networks.CreateOpts{Name: name} },
		ID:               func(n *networks.Network) string { return n.ID },
	}).Execute(ctx, f.currentHook())
}

// GetSubnet returns the subnet by name.
func (f *FakeClient) GetSubnet(_ context.Context, name string) (*subnets.Subnet, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("GetSubnet", name); err != nil {
		return nil, err
	}
	if s, ok := f.Subnets[name]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// EnsureSubnet ensures the subnet exists.
func (f *FakeClient) EnsureSubnet(ctx context.Context, opts SubnetCreateOpts) (*subnets.Subnet, error) {
	return (&EnsureOperation[subnets.Subnet, SubnetCreateOpts]{
		Name:         opts.Name,
		ResourceType: "subnet",
		Get:          f.GetSubnet,
		Create: func(_ context.Context, opts SubnetCreateOpts) (*subnets.Subnet, error) {
			f.Lock()
			defer f.Unlock()
			if err := f.begin("CreateSubnet", opts); err != nil {
				return nil, err
			}
			s := &subnets.Subnet{
				ID:        uuid.NewString(),
				Name:      opts.Name,
				NetworkID: opts.NetworkID,
				CIDR:      opts.CIDR,
				GatewayIP: opts.GatewayIP,
				IPVersion: 4,
			}
			f.Subnets[opts.Name] = s
			cp := *s
			return &cp, nil
		},
		CreateOptsMapper: func() SubnetCreateOpts { return opts },
		ID:               func(s *subnets.Subnet) string { return s.ID },
	}).Execute(ctx, f.currentHook())
}

// GetRouter returns the router by name.
func (f *FakeClient) GetRouter(_ context.Context, name string) (*routers.Router, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("GetRouter", name); err != nil {
		return nil, err
	}
	if r, ok := f.Routers[name]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

// EnsureRouter ensures the router exists.
func (f *FakeClient) EnsureRouter(ctx context.Context, name string) (*routers.Router, error) {
	return (&EnsureOperation[routers.Router, routers.CreateOpts]{
		Name:         name,
		ResourceType: "router",
		Get:          f.GetRouter,
		Create: func(_ context.Context, opts routers.CreateOpts) (*routers.Router, error) {
			f.Lock()
			defer f.Unlock()
			if err := f.begin("CreateRouter", opts.Name); err != nil {
				return nil, err
			}
			r := &routers.Router{ID: uuid.NewString(), Name: opts.Name, Status: "ACTIVE"}
			f.Routers[opts.Name] = r
			cp := *r
			return &cp, nil
		},
		CreateOptsMapper: func() routers.CreateOpts { return routers.CreateOpts{Name: name} },
		ID:               func(r *routers.Router) string { return r.ID },
	}).Execute(ctx, f.currentHook())
}

// EnsureRouterGateway records an "UpdateRouter" call only when the gateway changes.
func (f *FakeClient) EnsureRouterGateway(_ context.Context, router *routers.Router, externalNetworkID string) (*routers.Router, error) {
	f.Lock()
	if err := f.begin("EnsureRouterGateway", router.ID, externalNetworkID); err != nil {
		f.Unlock()
		return nil, err
	}
	if router.GatewayInfo.NetworkID == externalNetworkID {
		f.Unlock()
		f.report("router gateway", router.Name, router.ID, OutcomeExists)
		return router, nil
	}

	if err := f.begin("UpdateRouter", router.ID, externalNetworkID); err != nil {
		f.Unlock()
		return nil, err
	}
	stored, ok := f.Routers[router.Name]
	if !ok || stored.ID != router.ID {
		f.Unlock()
		return nil, StatusError(http.StatusNotFound)
	}
	stored.GatewayInfo = routers.GatewayInfo{NetworkID: externalNetworkID}
	cp := *stored
	f.Unlock()

	f.report("router gateway", router.Name, router.ID, OutcomeUpdated)
	return &cp, nil
}

// AddRouterInterface fails with 400 when the subnet is already attached, as Neutron does.
func (f *FakeClient) AddRouterInterface(_ context.Context, routerID, subnetID string) (*routers.InterfaceInfo, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("AddRouterInterface", routerID, subnetID); err != nil {
		return nil, err
	}
	if interfaceOnSubnet(routerID, subnetID, f.RouterPorts[routerID]) != nil {
		return nil, StatusError(http.StatusBadRequest)
	}

	port := ports.Port{
		ID:          uuid.NewString(),
		DeviceID:    routerID,
		DeviceOwner: "network:router_interface",
		FixedIPs:    []ports.IP{{SubnetID: subnetID, IPAddress: f.subnetGateway(subnetID)}},
	}
	f.RouterPorts[routerID] = append(f.RouterPorts[routerID], port)
	return &routers.InterfaceInfo{ID: routerID, PortID: port.ID, SubnetID: subnetID}, nil
}

// GetRouterInterface finds the router port on the subnet.
func (f *FakeClient) GetRouterInterface(_ context.Context, routerID, subnetID string) (*routers.InterfaceInfo, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("GetRouterInterface", routerID, subnetID); err != nil {
		return nil, err
	}
	return interfaceOnSubnet(routerID, subnetID, f.RouterPorts[routerID]), nil
}

// GetSecurityGroup returns the security group by name.
func (f *FakeClient) GetSecurityGroup(_ context.Context, name string) (*groups.SecGroup, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("GetSecurityGroup", name); err != nil {
		return nil, err
	}
	if g, ok := f.SecurityGroups[name]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

// EnsureSecurityGroup ensures the security group exists.
func (f *FakeClient) EnsureSecurityGroup(ctx context.Context, name, description string) (*groups.SecGroup, error) {
	return (&EnsureOperation[groups.SecGroup, groups.CreateOpts]{
		Name:         name,
		ResourceType: "security group",
		Get:          f.GetSecurityGroup,
		Create: func(_ context.Context, opts groups.CreateOpts) (*groups.SecGroup, error) {
			f.Lock()
			defer f.Unlock()
			if err := f.begin("CreateSecurityGroup", opts.Name); err != nil {
				return nil, err
			}
			g := &groups.SecGroup{ID: uuid.NewString(), Name: opts.Name, Description: opts.Description}
			f.SecurityGroups[opts.Name] = g
			cp := *g
			return &cp, nil
		},
		CreateOptsMapper: func() groups.CreateOpts {
			return groups.CreateOpts{Name: name, Description: description}
		},
		ID: func(g *groups.SecGroup) string { return g.ID },
	}).Execute(ctx, f.currentHook())
}

// AddIngressRule appends the rule. Identical rules are accepted, so repeated
// runs accumulate duplicates.
func (f *FakeClient) AddIngressRule(_ context.Context, groupID string, rule IngressRule) (*rules.SecGroupRule, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("AddIngressRule", groupID, rule); err != nil {
		return nil, err
	}
	opts := ingressRuleOpts(groupID, rule)
	r := rules.SecGroupRule{
		ID:             uuid.NewString(),
		Direction:      string(opts.Direction),
		EtherType:      string(opts.EtherType),
		SecGroupID:     groupID,
		Protocol:       string(opts.Protocol),
		PortRangeMin:   opts.PortRangeMin,
		PortRangeMax:   opts.PortRangeMax,
		RemoteIPPrefix: opts.RemoteIPPrefix,
	}
	f.Rules[groupID] = append(f.Rules[groupID], r)
	return &r, nil
}

// ListRules returns the rules of the security group.
func (f *FakeClient) ListRules(_ context.Context, groupID string) ([]rules.SecGroupRule, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("ListRules", groupID); err != nil {
		return nil, err
	}
	return append([]rules.SecGroupRule{}, f.Rules[groupID]...), nil
}

// AddServerSecurityGroup records the group on the server.
func (f *FakeClient) AddServerSecurityGroup(_ context.Context, serverID, groupName string) error {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("AddServerSecurityGroup", serverID, groupName); err != nil {
		return err
	}
	if f.serverByID(serverID) == nil {
		return StatusError(http.StatusNotFound)
	}
	f.ServerGroups[serverID] = append(f.ServerGroups[serverID], groupName)
	return nil
}

// GetImage returns the image by name.
func (f *FakeClient) GetImage(_ context.Context, name string) (*images.Image, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("GetImage", name); err != nil {
		return nil, err
	}
	if img, ok := f.Images[name]; ok {
		cp := *img
		return &cp, nil
	}
	return nil, nil
}

// GetFlavor returns the flavor by name.
func (f *FakeClient) GetFlavor(_ context.Context, name string) (*flavors.Flavor, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("GetFlavor", name); err != nil {
		return nil, err
	}
	if fl, ok := f.Flavors[name]; ok {
		cp := *fl
		return &cp, nil
	}
	return nil, nil
}

// GetServer returns the server by name.
func (f *FakeClient) GetServer(_ context.Context, name string) (*servers.Server, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("GetServer", name); err != nil {
		return nil, err
	}
	if s, ok := f.Servers[name]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// GetServerByID returns the server by ID. A server in BUILD turns ACTIVE
// after BuildPolls reads.
func (f *FakeClient) GetServerByID(_ context.Context, id string) (*servers.Server, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("GetServerByID", id); err != nil {
		return nil, err
	}
	s := f.serverByID(id)
	if s == nil {
		return nil, StatusError(http.StatusNotFound)
	}
	if s.Status == ServerStatusBuild {
		if f.polls[id] >= f.BuildPolls {
			s.Status = ServerStatusActive
		}
		f.polls[id]++
	}
	cp := *s
	return &cp, nil
}

// EnsureServer ensures the server exists. New servers start in BUILD with
// one port on their network unless SkipServerPorts is set.
func (f *FakeClient) EnsureServer(ctx context.Context, opts ServerCreateOpts) (*servers.Server, error) {
	return (&EnsureOperation[servers.Server, ServerCreateOpts]{
		Name:         opts.Name,
		ResourceType: "server",
		Get:          f.GetServer,
		Create: func(_ context.Context, opts ServerCreateOpts) (*servers.Server, error) {
			f.Lock()
			defer f.Unlock()
			if err := f.begin("CreateServer", opts); err != nil {
				return nil, err
			}
			return f.createServer(opts), nil
		},
		CreateOptsMapper: func() ServerCreateOpts { return opts },
		ID:               func(s *servers.Server) string { return s.ID },
	}).Execute(ctx, f.currentHook())
}

func (f *FakeClient) createServer(opts ServerCreateOpts) *servers.Server {
	s := &servers.Server{
		ID:        uuid.NewString(),
		Name:      opts.Name,
		Status:    ServerStatusBuild,
		Image:     map[string]interface{}{"id": opts.ImageID},
		Flavor:    map[string]interface{}{"id": opts.FlavorID},
		Addresses: map[string]interface{}{},
		Created:   time.Now(),
	}

	if !f.SkipServerPorts {
		networkName, subnet := f.networkAndSubnet(opts.NetworkID)
		ip := ""
		if subnet != nil {
			ip, _ = config.CIDRHost(subnet.CIDR, 10+len(f.Servers))
		}
		port := ports.Port{
			ID:          uuid.NewString(),
			NetworkID:   opts.NetworkID,
			DeviceID:    s.ID,
			DeviceOwner: "compute:nova",
		}
		if subnet != nil {
			port.FixedIPs = []ports.IP{{SubnetID: subnet.ID, IPAddress: ip}}
		}
		f.ServerPorts[s.ID] = []ports.Port{port}
		s.Addresses[networkName] = []interface{}{addressEntry(ip, AddressFixed)}
	}

	f.Servers[opts.Name] = s
	cp := *s
	return &cp
}

// WaitForServerActive polls GetServerByID until the server is ACTIVE.
func (f *FakeClient) WaitForServerActive(ctx context.Context, id string, interval, timeout time.Duration) (*servers.Server, error) {
	return waitForServerActive(ctx, f.GetServerByID, id, interval, timeout)
}

// ListServerPorts returns the server's ports.
func (f *FakeClient) ListServerPorts(_ context.Context, serverID string) ([]ports.Port, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("ListServerPorts", serverID); err != nil {
		return nil, err
	}
	return append([]ports.Port{}, f.ServerPorts[serverID]...), nil
}

// ListFloatingIPs returns the floating IPs bound to the port.
func (f *FakeClient) ListFloatingIPs(_ context.Context, portID string) ([]floatingips.FloatingIP, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("ListFloatingIPs", portID); err != nil {
		return nil, err
	}
	var out []floatingips.FloatingIP
	for _, fip := range f.FloatingIPs {
		if fip.PortID == portID {
			out = append(out, *fip)
		}
	}
	return out, nil
}

// AllocateFloatingIP allocates an address from 172.24.4.0/24.
func (f *FakeClient) AllocateFloatingIP(_ context.Context, externalNetworkID string) (*floatingips.FloatingIP, error) {
	f.Lock()
	if err := f.begin("AllocateFloatingIP", externalNetworkID); err != nil {
		f.Unlock()
		return nil, err
	}
	fip := &floatingips.FloatingIP{
		ID:                uuid.NewString(),
		FloatingNetworkID: externalNetworkID,
		FloatingIP:        fmt.Sprintf("172.24.4.%d", 100+len(f.FloatingIPs)),
		Status:            "DOWN",
	}
	f.FloatingIPs[fip.ID] = fip
	cp := *fip
	f.Unlock()

	f.report("floating ip", cp.FloatingIP, cp.ID, OutcomeCreated)
	return &cp, nil
}

// AssociateFloatingIP binds the floating IP to the port and adds it to the
// owning server's address map.
func (f *FakeClient) AssociateFloatingIP(_ context.Context, floatingIPID, portID string) (*floatingips.FloatingIP, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.begin("AssociateFloatingIP", floatingIPID, portID); err != nil {
		return nil, err
	}
	fip, ok := f.FloatingIPs[floatingIPID]
	if !ok {
		return nil, StatusError(http.StatusNotFound)
	}
	fip.PortID = portID
	fip.Status = "ACTIVE"

	for serverID, serverPorts := range f.ServerPorts {
		for _, p := range serverPorts {
			if p.ID != portID {
				continue
			}
			if len(p.FixedIPs) > 0 {
				fip.FixedIP = p.FixedIPs[0].IPAddress
			}
			if s := f.serverByID(serverID); s != nil {
				networkName, _ := f.networkAndSubnet(p.NetworkID)
				entries, _ := s.Addresses[networkName].([]interface{})
				s.Addresses[networkName] = append(entries, addressEntry(fip.FloatingIP, AddressFloating))
			}
		}
	}
	cp := *fip
	return &cp, nil
}

func (f *FakeClient) currentHook() EnsureHook {
	f.Lock()
	defer f.Unlock()
	return f.hook
}

func (f *FakeClient) report(resourceType, name, id string, outcome Outcome) {
	if hook := f.currentHook(); hook != nil {
		hook(resourceType, name, id, outcome)
	}
}

func (f *FakeClient) serverByID(id string) *servers.Server {
	for _, s := range f.Servers {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (f *FakeClient) networkAndSubnet(networkID string) (string, *subnets.Subnet) {
	name := networkID
	for _, n := range f.Networks {
		if n.ID == networkID {
			name = n.Name
		}
	}
	for _, s := range f.Subnets {
		if s.NetworkID == networkID {
			return name, s
		}
	}
	return name, nil
}

func (f *FakeClient) subnetGateway(subnetID string) string {
	for _, s := range f.Subnets {
		if s.ID == subnetID {
			return s.GatewayIP
		}
	}
	return ""
}

func addressEntry(addr, addrType string) map[string]interface{} {
	return map[string]interface{}{
		"addr":            addr,
		"version":         float64(4),
		"OS-EXT-IPS:type": addrType,
	}
}
