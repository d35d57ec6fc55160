package infrastructure

import (
	"fmt"

	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/groups"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/rules"

	"github.com/osdemo/bgplab/internal/platform/openstack"
	"github.com/osdemo/bgplab/internal/provisioning"
)

// anywhere is the remote prefix of every ingress rule.
const anywhere = "0.0.0.0/0"

// IngressRules returns the rules submitted on every run: all ICMP and all TCP
// ports, from any IPv4 source.
func IngressRules() []openstack.IngressRule {
	return []openstack.IngressRule{
		{Protocol: rules.ProtocolICMP, RemoteIPPrefix: anywhere},
		{Protocol: rules.ProtocolTCP, PortRangeMin: 1, PortRangeMax: 65535, RemoteIPPrefix: anywhere},
	}
}

// EnsureSecurityGroup finds or creates the group and submits its ingress rules.
// Rules are submitted even when the group already existed. A 409 for a
// duplicate rule is logged and ignored; clouds that accept duplicates end up
// with one copy per run. The resulting rule count is logged.
func EnsureSecurityGroup(ctx *provisioning.Context, name, description string) (*groups.SecGroup, error) {
	ctx.Observer.Printf("[%s] Reconciling security group %s...", securityPhase, name)

	group, err := ctx.Infra.EnsureSecurityGroup(ctx, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure security group %s: %w", name, err)
	}

	for _, rule := range IngressRules() {
		created, err := ctx.Infra.AddIngressRule(ctx, group.ID, rule)
		if err != nil {
			if openstack.IsConflict(err) {
				provisioning.LogWarning(ctx.Observer, securityPhase, name,
					fmt.Errorf("%s ingress rule already exists: %w", rule.Protocol, err))
				continue
			}
			return nil, fmt.Errorf("failed to add %s rule to security group %s: %w", rule.Protocol, name, err)
		}
		provisioning.LogResourceCreated(ctx.Observer, securityPhase, "security group rule", name, created.ID)
	}

	if all, err := ctx.Infra.ListRules(ctx, group.ID); err != nil {
		provisioning.LogWarning(ctx.Observer, securityPhase, name, fmt.Errorf("failed to list rules: %w", err))
	} else {
		ctx.Observer.Printf("[%s] Security group %s has %d rules", securityPhase, name, len(all))
	}

	ctx.State.SecurityGroup = group
	return group, nil
}

// ApplySecurityGroup attaches the group to the server. A missing server or
// group and a failed attach are logged, not returned; only an API failure
// while looking them up aborts the run.
func ApplySecurityGroup(ctx *provisioning.Context, serverName, groupName string) error {
	server, err := ctx.Infra.GetServer(ctx, serverName)
	if err != nil {
		return fmt.Errorf("failed to look up server %s: %w", serverName, err)
	}
	if server == nil {
		provisioning.LogResourceSkipped(ctx.Observer, securityPhase, "security group attachment", serverName, "server not found")
		return nil
	}

	group, err := ctx.Infra.GetSecurityGroup(ctx, groupName)
	if err != nil {
		return fmt.Errorf("failed to look up security group %s: %w", groupName, err)
	}
	if group == nil {
		provisioning.LogResourceSkipped(ctx.Observer, securityPhase, "security group attachment", serverName,
			fmt.Sprintf("security group %s not found", groupName))
		return nil
	}

	if err := ctx.Infra.AddServerSecurityGroup(ctx, server.ID, group.Name); err != nil {
		provisioning.LogWarning(ctx.Observer, securityPhase, serverName,
			fmt.Errorf("failed to apply security group %s: %w", groupName, err))
		return nil
	}

	ctx.Observer.Printf("[%s] Security group %s applied to %s", securityPhase, groupName, serverName)
	return nil
}
