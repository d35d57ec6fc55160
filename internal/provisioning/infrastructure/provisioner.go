package infrastructure

import (
	"github.com/osdemo/bgplab/internal/provisioning"
)

const (
	phase         = "infrastructure"
	securityPhase = "security"
)

// Provisioner builds every configured topology behind the shared router.
type Provisioner struct{}

// NewProvisioner creates a new infrastructure provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	for _, spec := range ctx.Config.Topologies {
		if _, err := ProvisionTopology(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}

// SecurityProvisioner creates the security group and attaches it to the
// configured servers.
type SecurityProvisioner struct{}

// NewSecurityProvisioner creates a new security provisioner.
func NewSecurityProvisioner() *SecurityProvisioner {
	return &SecurityProvisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *SecurityProvisioner) Name() string {
	return securityPhase
}

// Provision implements the provisioning.Phase interface.
func (p *SecurityProvisioner) Provision(ctx *provisioning.Context) error {
	sg := ctx.Config.SecurityGroup
	if _, err := EnsureSecurityGroup(ctx, sg.Name, sg.Description); err != nil {
		return err
	}
	for _, server := range sg.Servers {
		if err := ApplySecurityGroup(ctx, server, sg.Name); err != nil {
			return err
		}
	}
	return nil
}
