package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/secgroups"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/groups"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/rules"
)

// GetSecurityGroup returns the security group with the given name, or nil if it does not exist.
func (c *RealClient) GetSecurityGroup(ctx context.Context, name string) (*groups.SecGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := groups.List(c.network, groups.ListOpts{Name: name}).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list security groups: %w", err)
	}
	all, err := groups.ExtractGroups(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract security groups: %w", err)
	}
	return firstNamed(all, name, func(g groups.SecGroup) string { return g.Name }), nil
}

// EnsureSecurityGroup ensures that a security group with the given name exists.
// Rules of an existing group are left untouched.
func (c *RealClient) EnsureSecurityGroup(ctx context.Context, name, description string) (*groups.SecGroup, error) {
	return (&EnsureOperation[groups.SecGroup, groups.CreateOpts]{
		Name:         name,
		ResourceType: "security group",
		Get:          c.GetSecurityGroup,
		Create: func(_ context.Context, opts groups.CreateOpts) (*groups.SecGroup, error) {
			return groups.Create(c.network, opts).Extract()
		},
		CreateOptsMapper: func() groups.CreateOpts {
			return groups.CreateOpts{Name: name, Description: description}
		},
		ID: func(g *groups.SecGroup) string { return g.ID },
	}).Execute(ctx, c.hook)
}

// AddIngressRule adds an IPv4 ingress rule to the group. Neutron rejects an
// identical rule with 409; see IsConflict.
func (c *RealClient) AddIngressRule(ctx context.Context, groupID string, rule IngressRule) (*rules.SecGroupRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	created, err := rules.Create(c.network, ingressRuleOpts(groupID, rule)).Extract()
	if err != nil {
		return nil, fmt.Errorf("failed to add %s rule to security group %s: %w", rule.Protocol, groupID, err)
	}
	return created, nil
}

// ListRules returns all rules of the security group.
func (c *RealClient) ListRules(ctx context.Context, groupID string) ([]rules.SecGroupRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := rules.List(c.network, rules.ListOpts{SecGroupID: groupID}).AllPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list rules of security group %s: %w", groupID, err)
	}
	return rules.ExtractRules(pages)
}

// AddServerSecurityGroup attaches the named security group to the server.
func (c *RealClient) AddServerSecurityGroup(ctx context.Context, serverID, groupName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := secgroups.AddServer(c.compute, serverID, groupName).ExtractErr(); err != nil {
		return fmt.Errorf("failed to add security group %s to server %s: %w", groupName, serverID, err)
	}
	return nil
}

func ingressRuleOpts(groupID string, rule IngressRule) rules.CreateOpts {
	return rules.CreateOpts{
		Direction:      rules.DirIngress,
		EtherType:      rules.EtherType4,
		SecGroupID:     groupID,
		Protocol:       rule.Protocol,
		PortRangeMin:   rule.PortRangeMin,
		PortRangeMax:   rule.PortRangeMax,
		RemoteIPPrefix: rule.RemoteIPPrefix,
	}
}
