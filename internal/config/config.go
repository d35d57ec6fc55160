package config

// Config describes one demo scenario: the OpenStack topology, the VMs placed on
// it, the security policy, the BGP peering containers and the connectivity probe.
type Config struct {
	// ExternalNetwork is the provider network used for router gateways and floating IPs.
	ExternalNetwork string `yaml:"externalNetwork" mapstructure:"externalNetwork"`

	// Router is the name of the router shared by every topology.
	Router string `yaml:"router" mapstructure:"router"`

	Topologies    []TopologyConfig    `yaml:"topologies" mapstructure:"topologies"`
	Servers       []ServerConfig      `yaml:"servers" mapstructure:"servers"`
	SecurityGroup SecurityGroupConfig `yaml:"securityGroup" mapstructure:"securityGroup"`
	Peering       PeeringConfig       `yaml:"peering" mapstructure:"peering"`
	Probe         ProbeConfig         `yaml:"probe" mapstructure:"probe"`
}

// TopologyConfig is one tenant network with a single IPv4 subnet attached to the shared router.
type TopologyConfig struct {
	Network string `yaml:"network" mapstructure:"network"`
	Subnet  string `yaml:"subnet" mapstructure:"subnet"`
	CIDR    string `yaml:"cidr" mapstructure:"cidr"`
	Gateway string `yaml:"gateway" mapstructure:"gateway"`
}

// ServerConfig is a VM attached to one tenant network.
type ServerConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Image   string `yaml:"image" mapstructure:"image"`
	Flavor  string `yaml:"flavor" mapstructure:"flavor"`
	Network string `yaml:"network" mapstructure:"network"`
}

// SecurityGroupConfig names the group and the servers it is applied to.
type SecurityGroupConfig struct {
	Name        string   `yaml:"name" mapstructure:"name"`
	Description string   `yaml:"description" mapstructure:"description"`
	Servers     []string `yaml:"servers" mapstructure:"servers"`
}

// PeeringConfig describes the Docker bridge network and the two FRR peers.
type PeeringConfig struct {
	Network BridgeNetworkConfig `yaml:"network" mapstructure:"network"`
	Image   string              `yaml:"image" mapstructure:"image"`
	Peers   []PeerConfig        `yaml:"peers" mapstructure:"peers"`
}

// BridgeNetworkConfig is a Docker network with a static IPAM pool.
type BridgeNetworkConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Driver  string `yaml:"driver" mapstructure:"driver"`
	CIDR    string `yaml:"cidr" mapstructure:"cidr"`
	Gateway string `yaml:"gateway" mapstructure:"gateway"`
}

// PeerConfig is one routing-peer container.
type PeerConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	AS       uint32 `yaml:"as" mapstructure:"as"`
	RouterID string `yaml:"routerID" mapstructure:"routerID"`
}

// ProbeConfig configures the ping test run over SSH from Source to Target.
type ProbeConfig struct {
	Source   string `yaml:"source" mapstructure:"source"`
	Target   string `yaml:"target" mapstructure:"target"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	// PrivateKeyPath, when set, is used instead of Password.
	PrivateKeyPath string `yaml:"privateKeyPath" mapstructure:"privateKeyPath"`
	Port           int    `yaml:"port" mapstructure:"port"`
	Count          int    `yaml:"count" mapstructure:"count"`
}
