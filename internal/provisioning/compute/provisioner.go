package compute

import (
	"github.com/osdemo/bgplab/internal/provisioning"
)

const phase = "compute"

// Provisioner handles server provisioning.
type Provisioner struct{}

// NewProvisioner creates a new compute provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	total := len(ctx.Config.Servers)
	for i, spec := range ctx.Config.Servers {
		if _, err := ProvisionServer(ctx, spec); err != nil {
			return err
		}
		ctx.Observer.Progress(phase, i+1, total)
	}
	return nil
}
