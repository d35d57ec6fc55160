package openstack

import (
	"context"
	"fmt"
)

// Outcome describes what an ensure call did to reach the desired state.
type Outcome string

// Ensure outcomes.
const (
	OutcomeCreated Outcome = "created"
	OutcomeExists  Outcome = "exists"
	OutcomeUpdated Outcome = "updated"
)

// EnsureHook is notified after every successful ensure call.
type EnsureHook func(resourceType, name, id string, outcome Outcome)

// EnsureOperation encapsulates find-or-create logic for any OpenStack resource.
// An existing resource is returned unchanged; its attributes are not compared
// with the create options.
//
// Usage example:
//
//	func (c *RealClient) EnsureNetwork(ctx context.Context, name string) (*networks.Network, error) {
//	    return (&EnsureOperation[networks.Network, networks.CreateOpts]{
//	        Name:         name,
//	        ResourceType: "network",
//	        Get:          c.GetNetwork,
//	        Create: func(ctx context.Context, opts networks.CreateOpts) (*networks.Network, error) {
//	            return networks.Create(c.network, opts).Extract()
//	        },
//	        CreateOptsMapper: func() networks.CreateOpts { return networks.CreateOpts{Name: name} },
//	        ID:               func(n *networks.Network) string { return n.ID },
//	    }).Execute(ctx, c.hook)
//	}
type EnsureOperation[T any, CreateOpts any] struct {
	Name         string
	ResourceType string

	// Get retrieves the resource by name and returns nil if it does not exist.
	Get func(ctx context.Context, name string) (*T, error)

	// Create creates the resource with the given options.
	Create func(ctx context.Context, opts CreateOpts) (*T, error)

	// CreateOptsMapper maps input parameters to create options.
	CreateOptsMapper func() CreateOpts

	// ID returns the resource identifier reported to the hook.
	ID func(resource *T) string
}

// Execute performs the ensure operation: return the existing resource or create a new one.
func (op *EnsureOperation[T, CreateOpts]) Execute(ctx context.Context, hook EnsureHook) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resource, err := op.Get(ctx, op.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", op.ResourceType, op.Name, err)
	}
	if resource != nil {
		op.report(hook, resource, OutcomeExists)
		return resource, nil
	}

	resource, err = op.Create(ctx, op.CreateOptsMapper())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s %s: %w", op.ResourceType, op.Name, err)
	}
	op.report(hook, resource, OutcomeCreated)
	return resource, nil
}

func (op *EnsureOperation[T, CreateOpts]) report(hook EnsureHook, resource *T, outcome Outcome) {
	if hook == nil {
		return
	}
	id := ""
	if op.ID != nil {
		id = op.ID(resource)
	}
	hook(op.ResourceType, op.Name, id, outcome)
}

// firstNamed returns a pointer to the first item whose name equals name.
// Name filters on list calls are not always exact (Nova treats them as
// regular expressions), so results are matched again client-side.
func firstNamed[T any](items []T, name string, nameOf func(T) string) *T {
	for i := range items {
		if nameOf(items[i]) == name {
			return &items[i]
		}
	}
	return nil
}
