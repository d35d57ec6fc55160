package config

import (
	"fmt"
	"net"
)

// Validate checks the scenario for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if c.ExternalNetwork == "" {
		return fmt.Errorf("externalNetwork is required")
	}
	if c.Router == "" {
		return fmt.Errorf("router is required")
	}

	if err := c.validateTopologies(); err != nil {
		return fmt.Errorf("topology validation failed: %w", err)
	}
	if err := c.validateServers(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if c.SecurityGroup.Name == "" {
		return fmt.Errorf("securityGroup.name is required")
	}
	if err := c.validatePeering(); err != nil {
		return fmt.Errorf("peering validation failed: %w", err)
	}
	if err := c.validateProbe(); err != nil {
		return fmt.Errorf("probe validation failed: %w", err)
	}
	return nil
}

// validateTopologies checks names are present and unique and that every gateway
// is a usable host of its subnet.
func (c *Config) validateTopologies() error {
	networks := make(map[string]bool)
	subnets := make(map[string]bool)
	for i, t := range c.Topologies {
		if t.Network == "" || t.Subnet == "" {
			return fmt.Errorf("topology %d: network and subnet names are required", i)
		}
		if networks[t.Network] {
			return fmt.Errorf("duplicate network name %q", t.Network)
		}
		if subnets[t.Subnet] {
			return fmt.Errorf("duplicate subnet name %q", t.Subnet)
		}
		networks[t.Network] = true
		subnets[t.Subnet] = true

		if err := ValidateGateway(t.CIDR, t.Gateway); err != nil {
			return fmt.Errorf("topology %q: %w", t.Network, err)
		}
	}
	return nil
}

func (c *Config) validateServers() error {
	seen := make(map[string]bool)
	for i, s := range c.Servers {
		if s.Name == "" {
			return fmt.Errorf("server %d: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate server name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Network == "" {
			return fmt.Errorf("server %q: network is required", s.Name)
		}
	}
	return nil
}

// validatePeering requires exactly two peers, since each one is configured
// with the other as its only neighbor.
func (c *Config) validatePeering() error {
	p := c.Peering
	if p.Network.Name == "" {
		return fmt.Errorf("network name is required")
	}
	if err := ValidateGateway(p.Network.CIDR, p.Network.Gateway); err != nil {
		return fmt.Errorf("network %q: %w", p.Network.Name, err)
	}
	if p.Image == "" {
		return fmt.Errorf("image is required")
	}
	if len(p.Peers) != 2 {
		return fmt.Errorf("exactly 2 peers are required, got %d", len(p.Peers))
	}
	if p.Peers[0].Name == p.Peers[1].Name {
		return fmt.Errorf("peer names must differ, both are %q", p.Peers[0].Name)
	}
	for _, peer := range p.Peers {
		if peer.Name == "" {
			return fmt.Errorf("peer name is required")
		}
		if peer.AS == 0 {
			return fmt.Errorf("peer %q: AS number must be non-zero", peer.Name)
		}
		if ip := net.ParseIP(peer.RouterID); ip == nil || ip.To4() == nil {
			return fmt.Errorf("peer %q: router ID %q is not an IPv4 address", peer.Name, peer.RouterID)
		}
	}
	return nil
}

func (c *Config) validateProbe() error {
	p := c.Probe
	if p.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", p.Count)
	}
	if p.Port <= 0 || p.Port > 65535 {
		return fmt.Errorf("port %d out of range", p.Port)
	}
	if p.Source != "" && p.Source == p.Target {
		return fmt.Errorf("source and target must differ, both are %q", p.Source)
	}
	return nil
}
