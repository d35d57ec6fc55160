package probe

import (
	"strconv"

	"github.com/osdemo/bgplab/internal/provisioning"
)

// Provisioner runs the connectivity probe as the last phase of a run.
type Provisioner struct {
	dial Dialer
}

// NewProvisioner creates a probe phase that connects over SSH.
func NewProvisioner() *Provisioner {
	return NewProvisionerWithDialer(SSHDialer)
}

// NewProvisionerWithDialer creates a probe phase using dial to reach the source server.
func NewProvisionerWithDialer(dial Dialer) *Provisioner {
	return &Provisioner{dial: dial}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface. The ping output is
// printed, not judged; the phase fails only when the probe cannot be set up.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	res, err := Run(ctx, p.dial)
	if err != nil {
		return err
	}
	ctx.State.ProbeOutput = res.Output
	if ctx.Metrics != nil {
		ctx.Metrics.SetProbeSuccess(res.Success)
	}
	ctx.Observer.WithFields(map[string]string{
		"source":  res.Source,
		"target":  res.Target,
		"success": strconv.FormatBool(res.Success),
	}).Printf("[%s] Ping output:\n%s", phase, res.Output)
	return nil
}

