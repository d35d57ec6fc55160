// Package infrastructure provisions the OpenStack networking for a bgplab run.
//
// Each topology is a tenant network with one IPv4 subnet, wired to the router
// shared by all topologies, whose gateway points at the external network. The
// security phase creates a group allowing ICMP and all TCP and attaches it to
// the servers. All resources are found by name and reused when present.
package infrastructure
