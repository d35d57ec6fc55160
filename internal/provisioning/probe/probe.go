package probe

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"

	"github.com/osdemo/bgplab/internal/platform/openstack"
	"github.com/osdemo/bgplab/internal/platform/ssh"
	"github.com/osdemo/bgplab/internal/provisioning"
)

const phase = "probe"

// ErrNoAddress is returned when a server has no address of the required type.
var ErrNoAddress = errors.New("server has no address of the required type")

// Executor runs a command on a remote host and returns its combined output.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// Dialer creates an Executor for an SSH target.
type Dialer func(cfg *ssh.Config) (Executor, error)

// SSHDialer is the Dialer backed by the ssh package.
func SSHDialer(cfg *ssh.Config) (Executor, error) {
	client, err := ssh.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Result is the outcome of one probe.
type Result struct {
	Source   string
	Target   string
	SourceIP string // floating IP of the source
	TargetIP string // fixed IP of the target
	Output   string
	// Success is true when ping exited 0, i.e. at least one reply came back.
	Success bool
}

// PingCommand returns the command run on the source server.
func PingCommand(count int, target string) string {
	return fmt.Sprintf("ping -c %d %s", count, target)
}

// Run pings the target server from the source server. A failed SSH connection
// or a failed ping is reported in the result; only missing servers, missing
// addresses and unusable credentials are errors.
func Run(ctx *provisioning.Context, dial Dialer) (*Result, error) {
	cfg := ctx.Config.Probe
	res := &Result{Source: cfg.Source, Target: cfg.Target}

	var err error
	if res.SourceIP, err = serverAddress(ctx, cfg.Source, openstack.AddressFloating); err != nil {
		return nil, err
	}
	if res.TargetIP, err = serverAddress(ctx, cfg.Target, openstack.AddressFixed); err != nil {
		return nil, err
	}
	ctx.Observer.Printf("[%s] %s (source) floating IP: %s, %s (destination) fixed IP: %s",
		phase, cfg.Source, res.SourceIP, cfg.Target, res.TargetIP)

	sshCfg := &ssh.Config{
		Host:        res.SourceIP,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		DialTimeout: ctx.Timeouts.SSHDial,
		MaxRetries:  ctx.Timeouts.RetryMaxAttempts,
		RetryDelay:  ctx.Timeouts.RetryInitialDelay,
	}
	if cfg.PrivateKeyPath != "" {
		// #nosec G304
		key, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		sshCfg.PrivateKey = key
	}

	executor, err := dial(sshCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH client for %s: %w", cfg.Source, err)
	}

	ctx.Observer.Printf("[%s] Pinging from %s to %s...", phase, cfg.Source, cfg.Target)
	output, err := executor.Execute(ctx, PingCommand(cfg.Count, res.TargetIP))
	switch {
	case err == nil:
		res.Output = output
		res.Success = true
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, ssh.ErrConnectionFailed):
		res.Output = err.Error()
	default:
		res.Output = output
	}
	return res, nil
}

func serverAddress(ctx *provisioning.Context, name, addrType string) (string, error) {
	server, err := ctx.Infra.GetServer(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to look up server %s: %w", name, err)
	}
	if server == nil {
		return "", fmt.Errorf("%w: server %q", openstack.ErrDependencyNotFound, name)
	}
	return addressOf(server, addrType)
}

func addressOf(server *servers.Server, addrType string) (string, error) {
	addr, ok := openstack.ServerAddress(server, addrType)
	if !ok {
		return "", fmt.Errorf("%w: %s has no %s address", ErrNoAddress, server.Name, addrType)
	}
	return addr, nil
}
