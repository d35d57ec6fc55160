package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/osdemo/bgplab/internal/config"
	"github.com/osdemo/bgplab/internal/logging"
	"github.com/osdemo/bgplab/internal/platform/docker"
	"github.com/osdemo/bgplab/internal/platform/openstack"
	"github.com/osdemo/bgplab/internal/provisioning"
)

// Options holds the flags shared by every provisioning command.
type Options struct {
	// ConfigPath is the scenario file; empty runs the built-in demo.
	ConfigPath string
	// CloudConfig is a cloud.conf used when the OS_* variables are incomplete.
	CloudConfig string
	Verbose     bool
	// MetricsFile receives the run metrics in textfile format when set.
	MetricsFile string
}

// needs selects the clients a command connects to.
type needs int

const (
	needOpenStack needs = 1 << iota
	needDocker
)

// Factory function variables - can be replaced in tests.
var (
	loadConfig = config.Load

	newLogger = func(verbose bool) *zap.SugaredLogger {
		return logging.New(logging.Options{Verbose: verbose})
	}

	newInfraClient = func(ctx context.Context, cloudConfig string, hook openstack.EnsureHook) (openstack.InfrastructureManager, error) {
		authOpts, region, err := openstack.AuthOptions(cloudConfig)
		if err != nil {
			return nil, err
		}
		client, err := openstack.NewRealClient(ctx, authOpts, region, openstack.WithEnsureHook(hook))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	newDockerClient = func(hook docker.EventHook) (*docker.Client, error) {
		return docker.NewClientFromEnv(docker.WithEventHook(hook))
	}
)

// run connects the required clients and executes phases in order. The
// metrics file is written even when a phase fails.
func run(ctx context.Context, opts Options, need needs, phases ...provisioning.Phase) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	logger := newLogger(opts.Verbose)
	defer func() { _ = logger.Sync() }()
	observer := provisioning.NewZapObserver(logger)
	pCtx := provisioning.NewContext(ctx, cfg, nil, nil, observer)

	if need&needOpenStack != 0 {
		pCtx.Infra, err = newInfraClient(ctx, opts.CloudConfig, provisioning.ResourceHook(observer, pCtx.Metrics))
		if err != nil {
			return fmt.Errorf("failed to connect to OpenStack: %w", err)
		}
	}

	if need&needDocker != 0 {
		pCtx.Docker, err = newDockerClient(provisioning.ContainerHook(observer, pCtx.Metrics))
		if err != nil {
			return err
		}
		if err := pCtx.Docker.Ping(ctx); err != nil {
			return err
		}
	}

	runErr := provisioning.NewPipeline(phases...).Run(pCtx)

	if opts.MetricsFile != "" {
		if err := pCtx.Metrics.WriteTextfile(opts.MetricsFile); err != nil {
			if runErr != nil {
				provisioning.LogWarning(observer, "metrics", opts.MetricsFile, err)
				return runErr
			}
			return err
		}
	}
	return runErr
}
