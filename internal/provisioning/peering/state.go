package peering

// PeerState is the lifecycle position of a routing-peer container.
type PeerState int

// States in the order a peer moves through them.
const (
	StateAbsent PeerState = iota
	StateCreated
	StateDaemonInstalled
	StateDaemonRunning
	StateBGPConfigured
)

func (s PeerState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateCreated:
		return "created"
	case StateDaemonInstalled:
		return "daemon-installed"
	case StateDaemonRunning:
		return "daemon-running"
	case StateBGPConfigured:
		return "bgp-configured"
	default:
		return "unknown"
	}
}
