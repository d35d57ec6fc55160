package openstack

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdemo/bgplab/internal/util/retry"
)

func TestWaitForServerActive(t *testing.T) {
	t.Parallel()

	sequence := func(statuses ...string) func(context.Context, string) (*servers.Server, error) {
		i := 0
		return func(_ context.Context, id string) (*servers.Server, error) {
			s := &servers.Server{ID: id, Name: "vm11", Status: statuses[i]}
			if i < len(statuses)-1 {
				i++
			}
			return s, nil
		}
	}

	t.Run("becomes active", func(t *testing.T) {
		t.Parallel()
		s, err := waitForServerActive(context.Background(), sequence("BUILD", "BUILD", "ACTIVE"), "id", time.Millisecond, time.Second)
		require.NoError(t, err)
		assert.Equal(t, ServerStatusActive, s.Status)
	})

	t.Run("error state is fatal", func(t *testing.T) {
		t.Parallel()
		_, err := waitForServerActive(context.Background(), sequence("BUILD", "ERROR"), "id", time.Millisecond, time.Second)
		require.ErrorIs(t, err, ErrServerError)
		assert.True(t, retry.IsFatal(err))
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		_, err := waitForServerActive(context.Background(), sequence("BUILD"), "id", time.Millisecond, 20*time.Millisecond)
		assert.ErrorIs(t, err, retry.ErrPollTimeout)
	})

	t.Run("deleted server is fatal", func(t *testing.T) {
		t.Parallel()
		get := func(context.Context, string) (*servers.Server, error) { return nil, StatusError(404) }
		_, err := waitForServerActive(context.Background(), get, "id", time.Millisecond, time.Second)
		assert.True(t, IsNotFound(err))
	})
}

func TestServerAddress(t *testing.T) {
	t.Parallel()
	server := &servers.Server{
		Addresses: map[string]interface{}{
			"network_10": []interface{}{
				map[string]interface{}{"addr": "10.0.0.12", "OS-EXT-IPS:type": "fixed"},
				map[string]interface{}{"addr": "172.24.4.50", "OS-EXT-IPS:type": "floating"},
			},
		},
	}

	fixed, ok := ServerAddress(server, AddressFixed)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.12", fixed)

	floating, ok := ServerAddress(server, AddressFloating)
	require.True(t, ok)
	assert.Equal(t, "172.24.4.50", floating)

	_, ok = ServerAddress(&servers.Server{}, AddressFloating)
	assert.False(t, ok)
}

func TestReadCloudConfig(t *testing.T) {
	t.Parallel()
	path := t.TempDir() + "/cloud.conf"
	require.NoError(t, writeFile(path, `[Global]
auth-url = http://keystone:5000/v3
username = admin
password = secret
tenant-name = demo
domain-name = Default
region = RegionOne
`))

	cfg, err := ReadCloudConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "RegionOne", cfg.Global.Region)

	opts := cfg.authOptions()
	assert.Equal(t, "http://keystone:5000/v3", opts.IdentityEndpoint)
	assert.Equal(t, "admin", opts.Username)
	assert.Equal(t, "demo", opts.TenantName)
	assert.Equal(t, "Default", opts.DomainName)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
