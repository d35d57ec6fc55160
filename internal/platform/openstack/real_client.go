package openstack

import (
	"context"
	"fmt"
	"os"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"
	gcfg "gopkg.in/gcfg.v1"
)

// RealClient implements InfrastructureManager using the OpenStack APIs.
type RealClient struct {
	network *gophercloud.ServiceClient
	compute *gophercloud.ServiceClient
	image   *gophercloud.ServiceClient
	hook    EnsureHook
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithEnsureHook sets the hook called after every ensure operation.
func WithEnsureHook(hook EnsureHook) ClientOption {
	return func(c *RealClient) {
		c.hook = hook
	}
}

// WithServiceClients sets the service clients directly (useful for testing).
func WithServiceClients(network, compute, image *gophercloud.ServiceClient) ClientOption {
	return func(c *RealClient) {
		c.network = network
		c.compute = compute
		c.image = image
	}
}

// CloudConfig is the [Global] section of a cloud.conf file.
type CloudConfig struct {
	Global struct {
		AuthURL    string `gcfg:"auth-url"`
		Username   string `gcfg:"username"`
		UserID     string `gcfg:"user-id"`
		Password   string `gcfg:"password"`
		TenantID   string `gcfg:"tenant-id"`
		TenantName string `gcfg:"tenant-name"`
		DomainID   string `gcfg:"domain-id"`
		DomainName string `gcfg:"domain-name"`
		Region     string `gcfg:"region"`
	}
}

// ReadCloudConfig parses a cloud.conf file.
func ReadCloudConfig(path string) (*CloudConfig, error) {
	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var cfg CloudConfig
	if err := gcfg.ReadInto(&cfg, f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

func (cfg *CloudConfig) authOptions() gophercloud.AuthOptions {
	return gophercloud.AuthOptions{
		IdentityEndpoint: cfg.Global.AuthURL,
		Username:         cfg.Global.Username,
		UserID:           cfg.Global.UserID,
		Password:         cfg.Global.Password,
		TenantID:         cfg.Global.TenantID,
		TenantName:       cfg.Global.TenantName,
		DomainID:         cfg.Global.DomainID,
		DomainName:       cfg.Global.DomainName,
	}
}

// AuthOptions resolves credentials from the OS_* environment variables.
// When they are incomplete and cloudConfigPath is set, the cloud.conf file
// is used instead. The returned region may be empty.
func AuthOptions(cloudConfigPath string) (gophercloud.AuthOptions, string, error) {
	opts, envErr := openstack.AuthOptionsFromEnv()
	if envErr == nil {
		return opts, os.Getenv("OS_REGION_NAME"), nil
	}
	if cloudConfigPath == "" {
		return gophercloud.AuthOptions{}, "", fmt.Errorf("failed to read OpenStack credentials from environment: %w", envErr)
	}

	cfg, err := ReadCloudConfig(cloudConfigPath)
	if err != nil {
		return gophercloud.AuthOptions{}, "", fmt.Errorf("failed to read OpenStack credentials from environment (%v) or cloud config: %w", envErr, err)
	}
	return cfg.authOptions(), cfg.Global.Region, nil
}

// NewRealClient authenticates and creates the network, compute and image
// service clients. ctx bounds every request made through the client.
func NewRealClient(ctx context.Context, authOpts gophercloud.AuthOptions, region string, opts ...ClientOption) (*RealClient, error) {
	provider, err := openstack.NewClient(authOpts.IdentityEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenStack provider: %w", err)
	}
	provider.Context = ctx

	if err := openstack.Authenticate(provider, authOpts); err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	endpoint := gophercloud.EndpointOpts{Region: region}

	network, err := openstack.NewNetworkV2(provider, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create network client: %w", err)
	}
	compute, err := openstack.NewComputeV2(provider, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}
	image, err := openstack.NewImageServiceV2(provider, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create image client: %w", err)
	}

	c := &RealClient{network: network, compute: compute, image: image}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewRealClientWithOptions builds a RealClient from already constructed
// service clients without authenticating.
func NewRealClientWithOptions(opts ...ClientOption) *RealClient {
	c := &RealClient{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
