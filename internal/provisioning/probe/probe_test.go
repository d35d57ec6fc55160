package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdemo/bgplab/internal/config"
	"github.com/osdemo/bgplab/internal/platform/openstack"
	"github.com/osdemo/bgplab/internal/platform/ssh"
	"github.com/osdemo/bgplab/internal/provisioning"
)

type fakeExecutor struct {
	output   string
	err      error
	commands []string
}

func (f *fakeExecutor) Execute(_ context.Context, command string) (string, error) {
	f.commands = append(f.commands, command)
	return f.output, f.err
}

// fakeDialer records the SSH configuration and hands out exec.
type fakeDialer struct {
	exec   *fakeExecutor
	err    error
	config *ssh.Config
}

func (d *fakeDialer) dial(cfg *ssh.Config) (Executor, error) {
	d.config = cfg
	if d.err != nil {
		return nil, d.err
	}
	return d.exec, nil
}

func address(addr, typ string) map[string]interface{} {
	return map[string]interface{}{"addr": addr, "version": float64(4), "OS-EXT-IPS:type": typ}
}

// createTestContext returns a context whose fake cloud holds vm11 with a
// floating IP and vm22 with a fixed IP only.
func createTestContext(t *testing.T) (*provisioning.Context, *openstack.FakeClient) {
	t.Helper()
	infra := openstack.NewDemoFakeClient()
	infra.Servers["vm11"] = &servers.Server{ID: "s-11", Name: "vm11", Status: "ACTIVE", Addresses: map[string]interface{}{
		"network_10": []interface{}{address("10.0.0.10", "fixed"), address("172.24.4.100", "floating")},
	}}
	infra.Servers["vm22"] = &servers.Server{ID: "s-22", Name: "vm22", Status: "ACTIVE", Addresses: map[string]interface{}{
		"network_20": []interface{}{address("20.0.0.11", "fixed")},
	}}
	return provisioning.NewContext(context.Background(), config.Default(), infra, nil, nil), infra
}

func TestPingCommand(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ping -c 3 20.0.0.11", PingCommand(3, "20.0.0.11"))
}

func TestRun_Success(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	dialer := &fakeDialer{exec: &fakeExecutor{output: "3 packets transmitted, 3 packets received, 0% packet loss\n"}}

	res, err := Run(ctx, dialer.dial)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "172.24.4.100", res.SourceIP)
	assert.Equal(t, "20.0.0.11", res.TargetIP)
	assert.Contains(t, res.Output, "0% packet loss")
	assert.Equal(t, []string{"ping -c 3 20.0.0.11"}, dialer.exec.commands)

	require.NotNil(t, dialer.config)
	assert.Equal(t, "172.24.4.100", dialer.config.Host)
	assert.Equal(t, 22, dialer.config.Port)
	assert.Equal(t, "cirros", dialer.config.User)
	assert.Equal(t, "gocubsgo", dialer.config.Password)
	assert.Empty(t, dialer.config.PrivateKey)
	assert.Equal(t, ctx.Timeouts.SSHDial, dialer.config.DialTimeout)
	assert.Equal(t, ctx.Timeouts.RetryMaxAttempts, dialer.config.MaxRetries)
}

func TestRun_ConnectionFailureIsOutput(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	connErr := fmt.Errorf("%w to 172.24.4.100:22 after 5 retry attempts: %w", ssh.ErrConnectionFailed, errors.New("connection refused"))
	dialer := &fakeDialer{exec: &fakeExecutor{err: connErr}}

	res, err := Run(ctx, dialer.dial)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "SSH connection failed")
	assert.Contains(t, res.Output, "connection refused")
}

func TestRun_PingFailureKeepsOutput(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	dialer := &fakeDialer{exec: &fakeExecutor{
		output: "3 packets transmitted, 0 packets received, 100% packet loss\n",
		err:    errors.New("command failed: Process exited with status 1"),
	}}

	res, err := Run(ctx, dialer.dial)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "100% packet loss")
}

func TestRun_MissingAddresses(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(infra *openstack.FakeClient)
		wantErr error
		wantMsg string
	}{
		{
			name:    "source server missing",
			mutate:  func(infra *openstack.FakeClient) { delete(infra.Servers, "vm11") },
			wantErr: openstack.ErrDependencyNotFound,
			wantMsg: `server "vm11"`,
		},
		{
			name:    "target server missing",
			mutate:  func(infra *openstack.FakeClient) { delete(infra.Servers, "vm22") },
			wantErr: openstack.ErrDependencyNotFound,
			wantMsg: `server "vm22"`,
		},
		{
			name: "source without floating ip",
			mutate: func(infra *openstack.FakeClient) {
				infra.Servers["vm11"].Addresses = map[string]interface{}{
					"network_10": []interface{}{address("10.0.0.10", "fixed")},
				}
			},
			wantErr: ErrNoAddress,
			wantMsg: "vm11 has no floating address",
		},
		{
			name:    "target without fixed ip",
			mutate:  func(infra *openstack.FakeClient) { infra.Servers["vm22"].Addresses = map[string]interface{}{} },
			wantErr: ErrNoAddress,
			wantMsg: "vm22 has no fixed address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx, infra := createTestContext(t)
			tt.mutate(infra)
			dialer := &fakeDialer{exec: &fakeExecutor{}}

			_, err := Run(ctx, dialer.dial)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Nil(t, dialer.config)
		})
	}
}

func TestRun_LookupError(t *testing.T) {
	t.Parallel()
	ctx, infra := createTestContext(t)
	infra.InjectError("GetServer", openstack.StatusError(http.StatusUnauthorized))

	_, err := Run(ctx, (&fakeDialer{exec: &fakeExecutor{}}).dial)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to look up server vm11")
}

func TestRun_PrivateKey(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, []byte("key material"), 0o600))
	ctx.Config.Probe.PrivateKeyPath = keyPath
	dialer := &fakeDialer{exec: &fakeExecutor{}}

	_, err := Run(ctx, dialer.dial)
	require.NoError(t, err)

	assert.Equal(t, []byte("key material"), dialer.config.PrivateKey)
}

func TestRun_PrivateKeyMissing(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	ctx.Config.Probe.PrivateKeyPath = filepath.Join(t.TempDir(), "absent")

	_, err := Run(ctx, (&fakeDialer{exec: &fakeExecutor{}}).dial)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read private key")
}

func TestRun_DialError(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	dialer := &fakeDialer{err: errors.New("failed to parse private key")}

	_, err := Run(ctx, dialer.dial)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create SSH client for vm11")
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	cancelled, cancel := context.WithCancel(context.Background())
	ctx.Context = cancelled
	cancel()
	dialer := &fakeDialer{exec: &fakeExecutor{err: errors.New("session closed")}}

	_, err := Run(ctx, dialer.dial)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_CancelledWhileDialing(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	cancelled, cancel := context.WithCancel(context.Background())
	ctx.Context = cancelled
	cancel()
	connErr := fmt.Errorf("%w to 172.24.4.100:22 after 5 retry attempts: %w", ssh.ErrConnectionFailed, context.Canceled)
	dialer := &fakeDialer{exec: &fakeExecutor{err: connErr}}

	res, err := Run(ctx, dialer.dial)

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestProvisioner_CancelledWhileDialingFails(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	cancelled, cancel := context.WithCancel(context.Background())
	ctx.Context = cancelled
	cancel()
	connErr := fmt.Errorf("%w: %w", ssh.ErrConnectionFailed, context.Canceled)
	p := NewProvisionerWithDialer((&fakeDialer{exec: &fakeExecutor{err: connErr}}).dial)

	err := p.Provision(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ctx.State.ProbeOutput)
}

func TestProvisioner(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	dialer := &fakeDialer{exec: &fakeExecutor{output: "64 bytes from 20.0.0.11: seq=0 ttl=63 time=1.2 ms\n"}}
	p := NewProvisionerWithDialer(dialer.dial)

	assert.Equal(t, "probe", p.Name())
	require.NoError(t, p.Provision(ctx))

	assert.Contains(t, ctx.State.ProbeOutput, "64 bytes from 20.0.0.11")
	assert.Equal(t, 1, testutil.CollectAndCount(ctx.Metrics.Registry(), "bgplab_probe_success"))
}

func TestSSHDialer_InvalidConfig(t *testing.T) {
	t.Parallel()
	exec, err := SSHDialer(&ssh.Config{Host: "172.24.4.100", User: "cirros"})

	require.Error(t, err)
	assert.Nil(t, exec)
}
