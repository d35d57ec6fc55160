package config

// Demo scenario values. Default() assembles them into a Config.
const (
	DefaultExternalNetwork = "public"
	DefaultRouter          = "shared_router"
	DefaultImage           = "cirros-0.6.3-x86_64-disk"
	DefaultFlavor          = "m1.tiny"

	DefaultSecurityGroup            = "custom_sg"
	DefaultSecurityGroupDescription = "Security group for ICMP and TCP"

	DefaultBridgeNetwork = "bgp_net"
	DefaultBridgeDriver  = "bridge"
	DefaultPeerImage     = "debian:latest"

	DefaultProbeUser     = "cirros"
	DefaultProbePassword = "gocubsgo" //nolint:gosec // Well-known CirrOS image default
	DefaultProbePort     = 22
	DefaultProbeCount    = 3
)

// Default returns the built-in demo scenario: two tenant networks behind one
// shared router, a VM on each, a permissive security group, two FRR peers in
// AS 1 and AS 2, and a ping from vm11 to vm22.
func Default() *Config {
	return &Config{
		ExternalNetwork: DefaultExternalNetwork,
		Router:          DefaultRouter,
		Topologies: []TopologyConfig{
			{Network: "network_10", Subnet: "subnet_10", CIDR: "10.0.0.0/24", Gateway: "10.0.0.1"},
			{Network: "network_20", Subnet: "subnet_20", CIDR: "20.0.0.0/24", Gateway: "20.0.0.1"},
		},
		Servers: []ServerConfig{
			{Name: "vm11", Image: DefaultImage, Flavor: DefaultFlavor, Network: "network_10"},
			{Name: "vm22", Image: DefaultImage, Flavor: DefaultFlavor, Network: "network_20"},
		},
		SecurityGroup: SecurityGroupConfig{
			Name:        DefaultSecurityGroup,
			Description: DefaultSecurityGroupDescription,
			Servers:     []string{"vm11", "vm22"},
		},
		Peering: PeeringConfig{
			Network: BridgeNetworkConfig{
				Name:    DefaultBridgeNetwork,
				Driver:  DefaultBridgeDriver,
				CIDR:    "10.0.0.0/24",
				Gateway: "10.0.0.1",
			},
			Image: DefaultPeerImage,
			Peers: []PeerConfig{
				{Name: "frr_router", AS: 1, RouterID: "1.1.1.1"},
				{Name: "sdn_controller", AS: 2, RouterID: "2.2.2.2"},
			},
		},
		Probe: ProbeConfig{
			Source:   "vm11",
			Target:   "vm22",
			User:     DefaultProbeUser,
			Password: DefaultProbePassword,
			Port:     DefaultProbePort,
			Count:    DefaultProbeCount,
		},
	}
}
