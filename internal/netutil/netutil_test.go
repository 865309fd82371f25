package netutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNetmask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		ones int
		ok   bool
	}{
		{in: "255.255.255.0", ones: 24, ok: true},
		{in: "24", ones: 24, ok: true},
		{in: "/16", ones: 16, ok: true},
		{in: "255.0.255.0", ok: false},
		{in: "33", ok: false},
		{in: "nope", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			m, err := ParseNetmask(tt.in)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			ones, _ := m.Size()
			assert.Equal(t, tt.ones, ones)
		})
	}
}

func TestLastIP(t *testing.T) {
	t.Parallel()

	_, n, err := net.ParseCIDR("10.1.2.0/23")
	require.NoError(t, err)
	assert.Equal(t, "10.1.3.255", LastIP(n).String())

	host, err := ParseAddress("192.168.1.7")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.7", LastIP(host).String())
}

func TestAvailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		addresses []string
		excludes  []string
		want      string
	}{
		{
			name:      "host and duplicate excludes",
			addresses: []string{"10.0.0.0/30", "10.0.1.5"},
			excludes:  []string{"10.0.0.1", "10.0.0.1", "172.16.0.1"},
			want:      "4",
		},
		{name: "overlapping addresses counted once", addresses: []string{"10.0.0.0/24", "10.0.0.0/25"}, want: "256"},
		{name: "adjacent addresses", addresses: []string{"10.0.0.0/25", "10.0.0.128/25"}, excludes: []string{"10.0.0.127", "10.0.0.128"}, want: "254"},
		{name: "exclude wider than block", addresses: []string{"10.0.0.0/25"}, excludes: []string{"10.0.0.0/24"}, want: "0"},
		{name: "exclude inside block", addresses: []string{"10.0.0.0/24"}, excludes: []string{"10.0.0.128/26"}, want: "192"},
		{name: "overlapping excludes", addresses: []string{"10.0.0.0/24"}, excludes: []string{"10.0.0.0/26", "10.0.0.0/25", "10.0.0.5"}, want: "128"},
		{name: "other family exclude ignored", addresses: []string{"10.0.0.0/30"}, excludes: []string{"fd00::1"}, want: "4"},
		{name: "large ipv6 block", addresses: []string{"fd00::/65"}, want: "9223372036854775808"},
		{name: "ipv6 beyond uint64", addresses: []string{"fd00::/56"}, excludes: []string{"fd00::/64"}, want: "4703919738795935662080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n, err := Available(tt.addresses, tt.excludes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
			assert.GreaterOrEqual(t, n.Sign(), 0)
		})
	}

	_, err := Available([]string{"bogus"}, nil)
	require.Error(t, err)
	_, err = Available([]string{"10.0.0.0/24"}, []string{"bogus"})
	require.Error(t, err)
}

func TestGatewaySubnet(t *testing.T) {
	t.Parallel()

	n, err := GatewaySubnet("10.0.3.1", "255.255.252.0")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/22", n.String())

	_, err = GatewaySubnet("fd00::1", "24")
	require.Error(t, err)
	_, err = GatewaySubnet("10.0.0.1", "nope")
	require.Error(t, err)
}

func TestInNetworks(t *testing.T) {
	t.Parallel()

	assert.True(t, InNetworks(net.ParseIP("10.0.0.9"), []string{"10.0.0.0/24"}))
	assert.False(t, InNetworks(net.ParseIP("10.0.1.9"), []string{"10.0.0.0/24", "junk"}))
}
