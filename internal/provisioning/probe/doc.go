// Package probe checks connectivity between two demo servers by logging into
// the source over SSH on its floating IP and pinging the target's fixed IP.
package probe
