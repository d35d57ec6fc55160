package docker

import (
	"context"
	"errors"
	"fmt"
	"time"

	dockerclient "github.com/fsouza/go-dockerclient"

	"github.com/osdemo/bgplab/internal/util/retry"
)

// ErrNoContainerAddress is returned when a container has no address on the requested network.
var ErrNoContainerAddress = errors.New("container has no address on network")

// ContainerSpec describes a long-running container attached to one network.
type ContainerSpec struct {
	Name       string
	Image      string
	Network    string
	Cmd        []string
	Privileged bool
	Tty        bool
}

// GetContainer returns the container with the given name or ID, or nil if it does not exist.
func (c *Client) GetContainer(ctx context.Context, nameOrID string) (*dockerclient.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	container, err := c.api.InspectContainerWithOptions(dockerclient.InspectContainerOptions{
		ID:      nameOrID,
		Context: ctx,
	})
	if err != nil {
		var noSuch *dockerclient.NoSuchContainer
		if errors.As(err, &noSuch) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to inspect container %s: %w", nameOrID, err)
	}
	return container, nil
}

// RecreateContainer force-removes any container named spec.Name, then creates
// and starts a fresh one. The image is pulled if it is not present locally.
// Unlike every other resource, an existing container is never reused.
func (c *Client) RecreateContainer(ctx context.Context, spec ContainerSpec) (*dockerclient.Container, error) {
	existing, err := c.GetContainer(ctx, spec.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := c.api.RemoveContainer(dockerclient.RemoveContainerOptions{
			ID:      existing.ID,
			Force:   true,
			Context: ctx,
		}); err != nil {
			return nil, fmt.Errorf("failed to remove container %s: %w", spec.Name, err)
		}
		c.report("container", spec.Name, existing.ID, ActionRemoved)
	}

	if err := c.ensureImage(ctx, spec.Image); err != nil {
		return nil, err
	}

	container, err := c.api.CreateContainer(dockerclient.CreateContainerOptions{
		Name: spec.Name,
		Config: &dockerclient.Config{
			Image: spec.Image,
			Cmd:   spec.Cmd,
			Tty:   spec.Tty,
		},
		HostConfig: &dockerclient.HostConfig{
			Privileged:  spec.Privileged,
			NetworkMode: spec.Network,
		},
		Context: ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create container %s: %w", spec.Name, err)
	}

	if err := c.api.StartContainerWithContext(container.ID, nil, ctx); err != nil {
		return nil, fmt.Errorf("failed to start container %s: %w", spec.Name, err)
	}
	c.report("container", spec.Name, container.ID, ActionCreated)
	return container, nil
}

// WaitForRunning polls the container until its state reports running and
// returns the refreshed container.
func (c *Client) WaitForRunning(ctx context.Context, id string, interval, timeout time.Duration) (*dockerclient.Container, error) {
	var container *dockerclient.Container
	err := retry.Poll(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
		ct, err := c.GetContainer(ctx, id)
		if err != nil {
			return false, err
		}
		if ct == nil {
			return false, retry.Fatal(fmt.Errorf("container %s disappeared", id))
		}
		container = ct
		if !ct.State.Running && !ct.State.Restarting && ct.State.ExitCode != 0 {
			return false, retry.Fatal(fmt.Errorf("container %s exited with code %d", id, ct.State.ExitCode))
		}
		return ct.State.Running, nil
	})
	if err != nil {
		return nil, fmt.Errorf("container %s is not running: %w", id, err)
	}
	return container, nil
}

// ContainerIP returns the container's IPv4 address on the named network.
func ContainerIP(container *dockerclient.Container, network string) (string, error) {
	if container.NetworkSettings != nil {
		if ep, ok := container.NetworkSettings.Networks[network]; ok && ep.IPAddress != "" {
			return ep.IPAddress, nil
		}
	}
	return "", fmt.Errorf("%w: %s on %s", ErrNoContainerAddress, container.Name, network)
}

func (c *Client) ensureImage(ctx context.Context, image string) error {
	if _, err := c.api.InspectImage(image); err == nil {
		return nil
	} else if !errors.Is(err, dockerclient.ErrNoSuchImage) {
		return fmt.Errorf("failed to inspect image %s: %w", image, err)
	}

	repo, tag := dockerclient.ParseRepositoryTag(image)
	if tag == "" {
		tag = "latest"
	}
	if err := c.api.PullImage(dockerclient.PullImageOptions{
		Repository: repo,
		Tag:        tag,
		Context:    ctx,
	}, dockerclient.AuthConfiguration{}); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}
	c.report("image", image, image, ActionCreated)
	return nil
}
