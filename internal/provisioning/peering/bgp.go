package peering

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSelfPeering is returned when a peer would be configured with its own address as neighbor.
var ErrSelfPeering = errors.New("peer cannot be its own neighbor")

// BGPConfig is the one-directional BGP session configured in a single container.
type BGPConfig struct {
	LocalAS    uint32
	RouterID   string
	NeighborIP string
	RemoteAS   uint32
}

// Render returns the vtysh command sequence for the session, one command per line.
func (c BGPConfig) Render() string {
	var b strings.Builder
	b.WriteString("configure terminal\n")
	fmt.Fprintf(&b, "router bgp %d\n", c.LocalAS)
	fmt.Fprintf(&b, "bgp router-id %s\n", c.RouterID)
	fmt.Fprintf(&b, "neighbor %s remote-as %d\n", c.NeighborIP, c.RemoteAS)
	b.WriteString("end\n")
	b.WriteString("write memory\n")
	return b.String()
}

// Command returns the argv that applies the configuration.
func (c BGPConfig) Command() []string {
	return vtysh(c.Render())
}

func vtysh(command string) []string {
	return []string{"vtysh", "-c", command}
}
