package peering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdemo/bgplab/internal/config"
	"github.com/osdemo/bgplab/internal/provisioning"
)

func TestBGPConfig_Render(t *testing.T) {
	t.Parallel()
	cfg := BGPConfig{LocalAS: 1, RouterID: "1.1.1.1", NeighborIP: "10.0.0.3", RemoteAS: 2}

	want := "configure terminal\n" +
		"router bgp 1\n" +
		"bgp router-id 1.1.1.1\n" +
		"neighbor 10.0.0.3 remote-as 2\n" +
		"end\n" +
		"write memory\n"
	assert.Equal(t, want, cfg.Render())
	assert.Equal(t, []string{"vtysh", "-c", want}, cfg.Command())
}

func TestSessionConfig(t *testing.T) {
	t.Parallel()
	a := &provisioning.PeerResult{Peer: config.PeerConfig{Name: "frr_router", AS: 1, RouterID: "1.1.1.1"}, Address: "10.0.0.2"}
	b := &provisioning.PeerResult{Peer: config.PeerConfig{Name: "sdn_controller", AS: 2, RouterID: "2.2.2.2"}, Address: "10.0.0.3"}

	ab, err := SessionConfig(a, b)
	require.NoError(t, err)
	assert.Equal(t, BGPConfig{LocalAS: 1, RouterID: "1.1.1.1", NeighborIP: "10.0.0.3", RemoteAS: 2}, ab)

	ba, err := SessionConfig(b, a)
	require.NoError(t, err)
	assert.Equal(t, BGPConfig{LocalAS: 2, RouterID: "2.2.2.2", NeighborIP: "10.0.0.2", RemoteAS: 1}, ba)
}

func TestSessionConfig_SelfPeering(t *testing.T) {
	t.Parallel()
	a := &provisioning.PeerResult{Peer: config.PeerConfig{Name: "frr_router", AS: 1}, Address: "10.0.0.2"}

	tests := []struct {
		name   string
		remote *provisioning.PeerResult
	}{
		{"same address", &provisioning.PeerResult{Peer: config.PeerConfig{Name: "sdn_controller", AS: 2}, Address: "10.0.0.2"}},
		{"remote without address", &provisioning.PeerResult{Peer: config.PeerConfig{Name: "sdn_controller", AS: 2}}},
		{"itself", a},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := SessionConfig(a, tt.remote)
			assert.ErrorIs(t, err, ErrSelfPeering)
		})
	}
}

func TestPeerState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "absent", StateAbsent.String())
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "daemon-installed", StateDaemonInstalled.String())
	assert.Equal(t, "daemon-running", StateDaemonRunning.String())
	assert.Equal(t, "bgp-configured", StateBGPConfigured.String())
	assert.Equal(t, "unknown", PeerState(42).String())
}
