package docker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	dockerclient "github.com/fsouza/go-dockerclient"
	"github.com/google/uuid"

	"github.com/osdemo/bgplab/internal/config"
)

// ExecCall records one command executed in a container.
type ExecCall struct {
	Container string // container name
	User      string
	Cmd       []string
}

// ExecHandler produces the output and exit code of a command run in a fake container.
type ExecHandler func(container *dockerclient.Container, cmd []string) (string, int)

// FakeAPI is an in-memory Docker engine. Containers get sequential addresses
// from their network's IPAM pool starting at .2.
type FakeAPI struct {
	sync.Mutex
	errors map[string]error
	execs  map[string]*fakeExec

	Networks   map[string]*dockerclient.Network   // by name
	Containers map[string]*dockerclient.Container // by name
	Images     map[string]bool
	Pulled     []string
	Removed    []string // IDs of removed containers
	ExecCalls  []ExecCall

	// ExecHandler answers exec calls; nil means empty output and exit code 0.
	ExecHandler ExecHandler

	nextHost map[string]int
}

type fakeExec struct {
	container *dockerclient.Container
	cmd       []string
	exitCode  int
}

var _ API = (*FakeAPI)(nil)

// NewFakeAPI creates an empty FakeAPI.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		errors:     make(map[string]error),
		execs:      make(map[string]*fakeExec),
		Networks:   make(map[string]*dockerclient.Network),
		Containers: make(map[string]*dockerclient.Container),
		Images:     make(map[string]bool),
		nextHost:   make(map[string]int),
	}
}

// InjectError makes the next call of fn fail with err.
func (f *FakeAPI) InjectError(fn string, err error) {
	f.Lock()
	defer f.Unlock()
	f.errors[fn] = err
}

func (f *FakeAPI) getError(fn string) error {
	err, ok := f.errors[fn]
	if ok {
		delete(f.errors, fn)
		return err
	}
	return nil
}

// ExecCallsFor returns the commands run in the named container, in order.
func (f *FakeAPI) ExecCallsFor(name string) []ExecCall {
	f.Lock()
	defer f.Unlock()
	var out []ExecCall
	for _, call := range f.ExecCalls {
		if call.Container == name {
			out = append(out, call)
		}
	}
	return out
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Ping always succeeds unless an error is injected.
func (f *FakeAPI) Ping() error {
	f.Lock()
	defer f.Unlock()
	return f.getError("Ping")
}

// NetworkInfo looks a network up by name or ID.
func (f *FakeAPI) NetworkInfo(id string) (*dockerclient.Network, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.getError("NetworkInfo"); err != nil {
		return nil, err
	}
	for _, n := range f.Networks {
		if n.Name == id || n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, &dockerclient.NoSuchNetwork{ID: id}
}

// CreateNetwork stores the network.
func (f *FakeAPI) CreateNetwork(opts dockerclient.CreateNetworkOptions) (*dockerclient.Network, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.getError("CreateNetwork"); err != nil {
		return nil, err
	}
	if _, ok := f.Networks[opts.Name]; ok {
		return nil, dockerclient.ErrNetworkAlreadyExists
	}
	n := &dockerclient.Network{
		ID:         newID(),
		Name:       opts.Name,
		Driver:     opts.Driver,
		Containers: map[string]dockerclient.Endpoint{},
	}
	if opts.IPAM != nil {
		n.IPAM = *opts.IPAM
	}
	f.Networks[opts.Name] = n
	cp := *n
	return &cp, nil
}

// InspectImage reports whether the image has been pulled.
func (f *FakeAPI) InspectImage(name string) (*dockerclient.Image, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.getError("InspectImage"); err != nil {
		return nil, err
	}
	if !f.Images[name] {
		return nil, dockerclient.ErrNoSuchImage
	}
	return &dockerclient.Image{ID: "sha256:" + name}, nil
}

// PullImage marks the image as present.
func (f *FakeAPI) PullImage(opts dockerclient.PullImageOptions, _ dockerclient.AuthConfiguration) error {
	f.Lock()
	defer f.Unlock()
	if err := f.getError("PullImage"); err != nil {
		return err
	}
	ref := opts.Repository + ":" + opts.Tag
	f.Images[ref] = true
	f.Pulled = append(f.Pulled, ref)
	return nil
}

// InspectContainerWithOptions looks a container up by name or ID.
func (f *FakeAPI) InspectContainerWithOptions(opts dockerclient.InspectContainerOptions) (*dockerclient.Container, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.getError("InspectContainer"); err != nil {
		return nil, err
	}
	c := f.containerByNameOrID(opts.ID)
	if c == nil {
		return nil, &dockerclient.NoSuchContainer{ID: opts.ID}
	}
	return copyContainer(c), nil
}

// RemoveContainer deletes the container. Running containers require Force.
func (f *FakeAPI) RemoveContainer(opts dockerclient.RemoveContainerOptions) error {
	f.Lock()
	defer f.Unlock()
	if err := f.getError("RemoveContainer"); err != nil {
		return err
	}
	c := f.containerByNameOrID(opts.ID)
	if c == nil {
		return &dockerclient.NoSuchContainer{ID: opts.ID}
	}
	if c.State.Running && !opts.Force {
		return fmt.Errorf("cannot remove running container %s", c.ID)
	}
	delete(f.Containers, c.Name)
	f.Removed = append(f.Removed, c.ID)
	return nil
}

// CreateContainer stores a created, not yet running container.
func (f *FakeAPI) CreateContainer(opts dockerclient.CreateContainerOptions) (*dockerclient.Container, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.getError("CreateContainer"); err != nil {
		return nil, err
	}
	if _, ok := f.Containers[opts.Name]; ok {
		return nil, dockerclient.ErrContainerAlreadyExists
	}
	c := &dockerclient.Container{
		ID:         newID(),
		Name:       opts.Name,
		Config:     opts.Config,
		HostConfig: opts.HostConfig,
		State:      dockerclient.State{Status: "created"},
		NetworkSettings: &dockerclient.NetworkSettings{
			Networks: map[string]dockerclient.ContainerNetwork{},
		},
	}
	f.Containers[opts.Name] = c
	return copyContainer(c), nil
}

// StartContainerWithContext marks the container running and assigns its address.
func (f *FakeAPI) StartContainerWithContext(id string, _ *dockerclient.HostConfig, _ context.Context) error {
	f.Lock()
	defer f.Unlock()
	if err := f.getError("StartContainer"); err != nil {
		return err
	}
	c := f.containerByNameOrID(id)
	if c == nil {
		return &dockerclient.NoSuchContainer{ID: id}
	}
	c.State.Running = true
	c.State.Status = "running"

	if c.HostConfig == nil || c.HostConfig.NetworkMode == "" {
		return nil
	}
	networkName := c.HostConfig.NetworkMode
	n, ok := f.Networks[networkName]
	if !ok || len(n.IPAM.Config) == 0 {
		return nil
	}
	f.nextHost[networkName]++
	ip, err := config.CIDRHost(n.IPAM.Config[0].Subnet, 1+f.nextHost[networkName])
	if err != nil {
		return err
	}
	c.NetworkSettings.Networks[networkName] = dockerclient.ContainerNetwork{
		NetworkID: n.ID,
		IPAddress: ip,
		Gateway:   n.IPAM.Config[0].Gateway,
	}
	return nil
}

// CreateExec registers an exec instance.
func (f *FakeAPI) CreateExec(opts dockerclient.CreateExecOptions) (*dockerclient.Exec, error) {
	f.Lock()
	defer f.Unlock()
	if err := f.getError("CreateExec"); err != nil {
		return nil, err
	}
	c := f.containerByNameOrID(opts.Container)
	if c == nil {
		return nil, &dockerclient.NoSuchContainer{ID: opts.Container}
	}
	id := newID()
	f.execs[id] = &fakeExec{container: c, cmd: opts.Cmd}
	f.ExecCalls = append(f.ExecCalls, ExecCall{Container: c.Name, User: opts.User, Cmd: opts.Cmd})
	return &dockerclient.Exec{ID: id}, nil
}

// StartExec runs the ExecHandler and writes its output.
func (f *FakeAPI) StartExec(id string, opts dockerclient.StartExecOptions) error {
	f.Lock()
	if err := f.getError("StartExec"); err != nil {
		f.Unlock()
		return err
	}
	exec, ok := f.execs[id]
	handler := f.ExecHandler
	f.Unlock()
	if !ok {
		return &dockerclient.NoSuchExec{ID: id}
	}

	output, code := "", 0
	if handler != nil {
		output, code = handler(copyContainer(exec.container), exec.cmd)
	}

	f.Lock()
	exec.exitCode = code
	f.Unlock()

	if opts.OutputStream != nil && output != "" {
		_, _ = opts.OutputStream.Write([]byte(output))
	}
	return nil
}

// InspectExec returns the exit code of a finished exec.
func (f *FakeAPI) InspectExec(id string) (*dockerclient.ExecInspect, error) {
	f.Lock()
	defer f.Unlock()
	exec, ok := f.execs[id]
	if !ok {
		return nil, &dockerclient.NoSuchExec{ID: id}
	}
	return &dockerclient.ExecInspect{ID: id, ExitCode: exec.exitCode}, nil
}

func (f *FakeAPI) containerByNameOrID(nameOrID string) *dockerclient.Container {
	if c, ok := f.Containers[strings.TrimPrefix(nameOrID, "/")]; ok {
		return c
	}
	for _, c := range f.Containers {
		if c.ID == nameOrID {
			return c
		}
	}
	return nil
}

func copyContainer(c *dockerclient.Container) *dockerclient.Container {
	cp := *c
	if c.NetworkSettings != nil {
		ns := *c.NetworkSettings
		ns.Networks = make(map[string]dockerclient.ContainerNetwork, len(c.NetworkSettings.Networks))
		for k, v := range c.NetworkSettings.Networks {
			ns.Networks[k] = v
		}
		cp.NetworkSettings = &ns
	}
	return &cp
}
