package infrastructure

import (
	"net/http"
	"testing"

	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdemo/bgplab/internal/platform/openstack"
)

func TestIngressRules(t *testing.T) {
	t.Parallel()
	got := IngressRules()

	require.Len(t, got, 2)
	assert.Equal(t, rules.ProtocolICMP, got[0].Protocol)
	assert.Zero(t, got[0].PortRangeMin)
	assert.Equal(t, rules.ProtocolTCP, got[1].Protocol)
	assert.Equal(t, 1, got[1].PortRangeMin)
	assert.Equal(t, 65535, got[1].PortRangeMax)
	for _, r := range got {
		assert.Equal(t, "0.0.0.0/0", r.RemoteIPPrefix)
	}
}

func TestEnsureSecurityGroup_RerunAccumulatesRules(t *testing.T) {
	t.Parallel()
	infra := openstack.NewDemoFakeClient()
	ctx, _ := createTestContext(t, infra)

	first, err := EnsureSecurityGroup(ctx, "custom_sg", "Security group for ICMP and TCP")
	require.NoError(t, err)
	second, err := EnsureSecurityGroup(ctx, "custom_sg", "Security group for ICMP and TCP")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Security group for ICMP and TCP", first.Description)
	assert.Equal(t, 1, infra.CountCalls("CreateSecurityGroup"))

	list, err := infra.ListRules(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, list, 4)
	for _, r := range list {
		assert.Equal(t, "ingress", r.Direction)
		assert.Equal(t, "IPv4", r.EtherType)
	}
	assert.Same(t, second, ctx.State.SecurityGroup)
}

func TestEnsureSecurityGroup_LogsRuleCount(t *testing.T) {
	t.Parallel()
	infra := openstack.NewDemoFakeClient()
	ctx, logs := createTestContext(t, infra)

	_, err := EnsureSecurityGroup(ctx, "custom_sg", "")
	require.NoError(t, err)
	_, err = EnsureSecurityGroup(ctx, "custom_sg", "")
	require.NoError(t, err)

	assert.Equal(t, 2, infra.CountCalls("ListRules"))
	assert.Equal(t, 1, logs.FilterMessageSnippet("Security group custom_sg has 2 rules").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("Security group custom_sg has 4 rules").Len())
}

func TestEnsureSecurityGroup_ListRulesFailureLogged(t *testing.T) {
	t.Parallel()
	infra := openstack.NewDemoFakeClient()
	infra.InjectError("ListRules", openstack.StatusError(http.StatusServiceUnavailable))
	ctx, logs := createTestContext(t, infra)

	group, err := EnsureSecurityGroup(ctx, "custom_sg", "")

	require.NoError(t, err)
	assert.Same(t, group, ctx.State.SecurityGroup)
	assert.Equal(t, 1, logs.FilterMessageSnippet("failed to list rules").Len())
}

func TestEnsureSecurityGroup_DuplicateRuleConflictIgnored(t *testing.T) {
	t.Parallel()
	infra := openstack.NewDemoFakeClient()
	infra.InjectError("AddIngressRule", openstack.StatusError(http.StatusConflict))
	ctx, logs := createTestContext(t, infra)

	group, err := EnsureSecurityGroup(ctx, "custom_sg", "")
	require.NoError(t, err)

	assert.Len(t, infra.Rules[group.ID], 1)
	assert.Equal(t, 1, logs.FilterField(zapString("event", "warning")).Len())
}

func TestEnsureSecurityGroup_RuleErrorPropagates(t *testing.T) {
	t.Parallel()
	infra := openstack.NewDemoFakeClient()
	infra.InjectError("AddIngressRule", openstack.StatusError(http.StatusForbidden))
	ctx, _ := createTestContext(t, infra)

	_, err := EnsureSecurityGroup(ctx, "custom_sg", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add icmp rule to security group custom_sg")
	assert.Nil(t, ctx.State.SecurityGroup)
}

func TestEnsureSecurityGroup_CreateError(t *testing.T) {
	t.Parallel()
	infra := openstack.NewDemoFakeClient()
	infra.InjectError("CreateSecurityGroup", openstack.StatusError(http.StatusInternalServerError))
	ctx, _ := createTestContext(t, infra)

	_, err := EnsureSecurityGroup(ctx, "custom_sg", "")

	require.Error(t, err)
	assert.Equal(t, 0, infra.CountCalls("AddIngressRule"))
}

func TestApplySecurityGroup(t *testing.T) {
	t.Parallel()
	infra := openstack.NewDemoFakeClient()
	ctx, _ := createTestContext(t, infra)

	server, err := infra.EnsureServer(ctx, openstack.ServerCreateOpts{Name: "vm11"})
	require.NoError(t, err)
	_, err = EnsureSecurityGroup(ctx, "custom_sg", "")
	require.NoError(t, err)

	require.NoError(t, ApplySecurityGroup(ctx, "vm11", "custom_sg"))

	assert.Equal(t, []string{"custom_sg"}, infra.ServerGroups[server.ID])
}

func TestApplySecurityGroup_MissingResourcesSkipped(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		withServer  bool
		withGroup   bool
		wantMessage string
	}{
		{"missing server", false, true, "security group attachment skipped: server not found"},
		{"missing group", true, false, "security group attachment skipped: security group custom_sg not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			infra := openstack.NewDemoFakeClient()
			ctx, logs := createTestContext(t, infra)
			if tt.withServer {
				_, err := infra.EnsureServer(ctx, openstack.ServerCreateOpts{Name: "vm11"})
				require.NoError(t, err)
			}
			if tt.withGroup {
				_, err := infra.EnsureSecurityGroup(ctx, "custom_sg", "")
				require.NoError(t, err)
			}

			require.NoError(t, ApplySecurityGroup(ctx, "vm11", "custom_sg"))

			assert.Equal(t, 0, infra.CountCalls("AddServerSecurityGroup"))
			assert.Equal(t, 1, logs.FilterMessage(tt.wantMessage).Len())
		})
	}
}

func TestApplySecurityGroup_AttachFailureSwallowed(t *testing.T) {
	t.Parallel()
	infra := openstack.NewDemoFakeClient()
	ctx, logs := createTestContext(t, infra)
	_, err := infra.EnsureServer(ctx, openstack.ServerCreateOpts{Name: "vm11"})
	require.NoError(t, err)
	_, err = infra.EnsureSecurityGroup(ctx, "custom_sg", "")
	require.NoError(t, err)
	infra.InjectError("AddServerSecurityGroup", openstack.StatusError(http.StatusInternalServerError))

	require.NoError(t, ApplySecurityGroup(ctx, "vm11", "custom_sg"))
	assert.Equal(t, 1, logs.FilterField(zapString("event", "warning")).Len())
}

func TestApplySecurityGroup_LookupErrorPropagates(t *testing.T) {
	t.Parallel()
	infra := openstack.NewDemoFakeClient()
	infra.InjectError("GetServer", openstack.StatusError(http.StatusUnauthorized))
	ctx, _ := createTestContext(t, infra)

	err := ApplySecurityGroup(ctx, "vm11", "custom_sg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to look up server vm11")
}

func TestSecurityProvisioner_RunTwice(t *testing.T) {
	t.Parallel()
	infra := openstack.NewDemoFakeClient()
	ctx, _ := createTestContext(t, infra)
	for _, name := range []string{"vm11", "vm22"} {
		_, err := infra.EnsureServer(ctx, openstack.ServerCreateOpts{Name: name})
		require.NoError(t, err)
	}

	require.NoError(t, NewSecurityProvisioner().Provision(ctx))
	require.NoError(t, NewSecurityProvisioner().Provision(ctx))

	group := infra.SecurityGroups["custom_sg"]
	require.NotNil(t, group)
	assert.Len(t, infra.Rules[group.ID], 4)
	assert.Equal(t, 4, infra.CountCalls("AddServerSecurityGroup"))
}
