package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIDRHost(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		prefix  string
		hostnum int
		want    string
		wantErr bool
	}{
		{name: "first host", prefix: "10.0.0.0/24", hostnum: 1, want: "10.0.0.1"},
		{name: "last host from end", prefix: "10.0.0.0/24", hostnum: -2, want: "10.0.0.254"},
		{name: "crosses octet", prefix: "20.0.0.0/16", hostnum: 256, want: "20.0.1.0"},
		{name: "out of range", prefix: "10.0.0.0/30", hostnum: 4, wantErr: true},
		{name: "ipv6 rejected", prefix: "fd00::/64", hostnum: 1, wantErr: true},
		{name: "garbage", prefix: "not-a-cidr", hostnum: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := CIDRHost(tt.prefix, tt.hostnum)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateGateway(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cidr    string
		gateway string
		wantErr error
	}{
		{name: "demo network 10", cidr: "10.0.0.0/24", gateway: "10.0.0.1"},
		{name: "demo network 20", cidr: "20.0.0.0/24", gateway: "20.0.0.1"},
		{name: "last usable host", cidr: "10.0.0.0/24", gateway: "10.0.0.254"},
		{name: "point to point allows network address", cidr: "10.0.0.0/31", gateway: "10.0.0.0"},
		{name: "outside cidr", cidr: "20.0.0.0/24", gateway: "10.0.0.1", wantErr: ErrGatewayOutsideCIDR},
		{name: "network address", cidr: "10.0.0.0/24", gateway: "10.0.0.0", wantErr: ErrGatewayOutsideCIDR},
		{name: "broadcast address", cidr: "10.0.0.0/24", gateway: "10.0.0.255", wantErr: ErrGatewayOutsideCIDR},
		{name: "not an address", cidr: "10.0.0.0/24", gateway: "gateway", wantErr: ErrGatewayOutsideCIDR},
		{name: "ipv6 gateway", cidr: "10.0.0.0/24", gateway: "fd00::1", wantErr: ErrGatewayOutsideCIDR},
		{name: "invalid cidr", cidr: "10.0.0.0/33", gateway: "10.0.0.1", wantErr: ErrInvalidCIDR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateGateway(tt.cidr, tt.gateway)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
