// Package provisioning provides the shared types for a bgplab run.
//
// A run is a Pipeline of phases, each in its own subpackage:
//   - infrastructure/ (networks, subnets, the shared router, the security group)
//   - compute/ (servers and their floating IPs)
//   - peering/ (FRR containers and their BGP sessions)
//   - probe/ (the SSH ping between servers)
//
// This root package holds the Context passed to every phase, the State the
// phases fill in, and the Observer used to report progress.
package provisioning
