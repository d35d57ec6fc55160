// Package config defines the demo scenario bgplab provisions and the
// timeouts that bound its readiness waits.
//
// With no file given, Default() returns the built-in scenario: networks
// network_10 (10.0.0.0/24) and network_20 (20.0.0.0/24) behind shared_router,
// VMs vm11 and vm22, security group custom_sg, and two FRR peers on the
// Docker network bgp_net. A YAML file can override any part of it:
//
//	externalNetwork: public
//	router: shared_router
//	topologies:
//	  - {network: network_10, subnet: subnet_10, cidr: 10.0.0.0/24, gateway: 10.0.0.1}
//	peering:
//	  peers:
//	    - {name: frr_router, as: 1, routerID: 1.1.1.1}
//	    - {name: sdn_controller, as: 2, routerID: 2.2.2.2}
//
// Timeouts are read from BGPLAB_* environment variables; see LoadTimeouts.
package config
