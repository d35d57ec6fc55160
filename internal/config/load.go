package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load returns the demo scenario when path is empty, otherwise the scenario
// read from the YAML file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads and parses the scenario from a YAML file.
// Fields left out of the file fall back to the demo defaults.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyDefaults fills unset fields from the demo scenario. Lists are only
// defaulted as a whole; a file that lists one topology gets exactly one.
func (c *Config) applyDefaults() error {
	def := Default()

	if c.ExternalNetwork == "" {
		c.ExternalNetwork = def.ExternalNetwork
	}
	if c.Router == "" {
		c.Router = def.Router
	}
	if len(c.Topologies) == 0 {
		c.Topologies = def.Topologies
	}
	for i := range c.Topologies {
		if c.Topologies[i].Gateway == "" && c.Topologies[i].CIDR != "" {
			gw, err := CIDRHost(c.Topologies[i].CIDR, 1)
			if err != nil {
				return fmt.Errorf("topology %q: %w", c.Topologies[i].Network, err)
			}
			c.Topologies[i].Gateway = gw
		}
	}

	if len(c.Servers) == 0 {
		c.Servers = def.Servers
	}
	for i := range c.Servers {
		if c.Servers[i].Image == "" {
			c.Servers[i].Image = DefaultImage
		}
		if c.Servers[i].Flavor == "" {
			c.Servers[i].Flavor = DefaultFlavor
		}
	}

	if c.SecurityGroup.Name == "" {
		c.SecurityGroup.Name = def.SecurityGroup.Name
	}
	if c.SecurityGroup.Description == "" {
		c.SecurityGroup.Description = def.SecurityGroup.Description
	}
	if c.SecurityGroup.Servers == nil {
		for _, s := range c.Servers {
			c.SecurityGroup.Servers = append(c.SecurityGroup.Servers, s.Name)
		}
	}

	p := &c.Peering
	if p.Network.Name == "" {
		p.Network.Name = def.Peering.Network.Name
	}
	if p.Network.Driver == "" {
		p.Network.Driver = def.Peering.Network.Driver
	}
	if p.Network.CIDR == "" {
		p.Network.CIDR = def.Peering.Network.CIDR
	}
	if p.Network.Gateway == "" {
		gw, err := CIDRHost(p.Network.CIDR, 1)
		if err != nil {
			return fmt.Errorf("peering network: %w", err)
		}
		p.Network.Gateway = gw
	}
	if p.Image == "" {
		p.Image = def.Peering.Image
	}
	if len(p.Peers) == 0 {
		p.Peers = def.Peering.Peers
	}

	pr := &c.Probe
	if pr.Source == "" && len(c.Servers) > 0 {
		pr.Source = c.Servers[0].Name
	}
	if pr.Target == "" && len(c.Servers) > 1 {
		pr.Target = c.Servers[1].Name
	}
	if pr.User == "" {
		pr.User = def.Probe.User
	}
	if pr.Password == "" && pr.PrivateKeyPath == "" {
		pr.Password = def.Probe.Password
	}
	if pr.Port == 0 {
		pr.Port = def.Probe.Port
	}
	if pr.Count == 0 {
		pr.Count = def.Probe.Count
	}
	return nil
}
