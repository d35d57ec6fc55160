package peering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/osdemo/bgplab/internal/provisioning"
	"github.com/osdemo/bgplab/internal/util/retry"
)

// SessionEstablished is the neighbor state of a working BGP session.
const SessionEstablished = "Established"

type neighborSummary struct {
	State string `json:"state"`
}

// bgpSummary is the part of "show ip bgp summary json" read here. FRR 7.4 and
// later nest the peers under the address family.
type bgpSummary struct {
	IPv4Unicast *struct {
		Peers map[string]neighborSummary `json:"peers"`
	} `json:"ipv4Unicast"`
	Peers map[string]neighborSummary `json:"peers"`
}

// NeighborState extracts the state of neighbor from FRR's JSON summary.
// An empty state means the neighbor is not configured.
func NeighborState(summaryJSON, neighbor string) (string, error) {
	var summary bgpSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return "", fmt.Errorf("failed to parse BGP summary: %w", err)
	}
	peers := summary.Peers
	if summary.IPv4Unicast != nil {
		peers = summary.IPv4Unicast.Peers
	}
	return peers[neighbor].State, nil
}

// WaitForSession polls the peer until its session to neighborIP is Established.
// A timeout is logged and reported as false, not as an error.
func WaitForSession(ctx *provisioning.Context, p *Peer, neighborIP string) (bool, error) {
	last := ""
	err := retry.Poll(ctx, ctx.Timeouts.PollInterval, ctx.Timeouts.BGPSession, func(pollCtx context.Context) (bool, error) {
		res, err := ctx.Docker.Exec(pollCtx, p.ContainerID, execUser, vtysh("show ip bgp summary json"))
		if err != nil {
			return false, err
		}
		if res.ExitCode != 0 {
			return false, nil
		}
		state, err := NeighborState(res.Output, neighborIP)
		if err != nil {
			return false, err
		}
		last = state
		return state == SessionEstablished, nil
	})
	if errors.Is(err, retry.ErrPollTimeout) {
		provisioning.LogWarning(ctx.Observer, phase, p.Config.Name,
			fmt.Errorf("session to %s not established within %v (last state %q)", neighborIP, ctx.Timeouts.BGPSession, last))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed waiting for BGP session in %s: %w", p.Config.Name, err)
	}
	ctx.Observer.Printf("[%s] %s: session to %s is %s", phase, p.Config.Name, neighborIP, SessionEstablished)
	return true, nil
}

// Summary returns the plain-text BGP summary of the peer.
func Summary(ctx *provisioning.Context, p *Peer) (string, error) {
	res, err := ctx.Docker.Exec(ctx, p.ContainerID, execUser, vtysh("show ip bgp summary"))
	if err != nil {
		return "", fmt.Errorf("failed to read BGP summary of %s: %w", p.Config.Name, err)
	}
	return res.Output, nil
}
