// Package peering runs two FRR routing daemons in Docker containers and peers
// them over BGP.
//
// Every run destroys and recreates both containers. Each one then moves
// through the states of PeerState: created, daemon installed, daemon running
// and finally BGP configured with the other container as its only neighbor.
package peering
