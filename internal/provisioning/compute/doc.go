// Package compute provisions the demo servers. Each server is found or
// created on its tenant network, waited on until ACTIVE and given a floating
// IP on the external network.
package compute
