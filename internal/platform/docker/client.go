// Package docker wraps the Docker Engine API for the routing-peer containers:
// the bridge network they share, their destructive recreation, and command
// execution inside them.
package docker

import (
	"context"
	"fmt"

	dockerclient "github.com/fsouza/go-dockerclient"
)

// API is the subset of the Docker client used by this package.
// *dockerclient.Client satisfies it; FakeAPI is an in-memory implementation.
type API interface {
	// Ping pings the docker server.
	Ping() error
	NetworkInfo(id string) (*dockerclient.Network, error)
	CreateNetwork(opts dockerclient.CreateNetworkOptions) (*dockerclient.Network, error)
	InspectImage(name string) (*dockerclient.Image, error)
	PullImage(opts dockerclient.PullImageOptions, auth dockerclient.AuthConfiguration) error
	InspectContainerWithOptions(opts dockerclient.InspectContainerOptions) (*dockerclient.Container, error)
	RemoveContainer(opts dockerclient.RemoveContainerOptions) error
	CreateContainer(opts dockerclient.CreateContainerOptions) (*dockerclient.Container, error)
	StartContainerWithContext(id string, hostConfig *dockerclient.HostConfig, ctx context.Context) error
	CreateExec(opts dockerclient.CreateExecOptions) (*dockerclient.Exec, error)
	StartExec(id string, opts dockerclient.StartExecOptions) error
	InspectExec(id string) (*dockerclient.ExecInspect, error)
}

// Resource actions reported to the EventHook.
const (
	ActionCreated = "created"
	ActionExists  = "exists"
	ActionRemoved = "removed"
)

// EventHook is notified whenever a network or container is found, created or removed.
type EventHook func(resourceType, name, id, action string)

// Client manages Docker networks and containers.
type Client struct {
	api  API
	hook EventHook
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEventHook sets the hook notified about resource changes.
func WithEventHook(hook EventHook) ClientOption {
	return func(c *Client) {
		c.hook = hook
	}
}

// NewClient wraps an API implementation.
func NewClient(api API, opts ...ClientOption) *Client {
	c := &Client{api: api}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromEnv connects to the engine named by DOCKER_HOST, DOCKER_TLS_VERIFY
// and DOCKER_CERT_PATH, falling back to the local socket.
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	api, err := dockerclient.NewClientFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return NewClient(api, opts...), nil
}

// Ping checks that the engine is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.api.Ping(); err != nil {
		return fmt.Errorf("docker engine is not reachable: %w", err)
	}
	return nil
}

func (c *Client) report(resourceType, name, id, action string) {
	if c.hook != nil {
		c.hook(resourceType, name, id, action)
	}
}

var _ API = (*dockerclient.Client)(nil)
