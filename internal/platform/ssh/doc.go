// Package ssh provides an SSH client for executing commands on remote servers.
//
// It is used by the connectivity probe to log into a VM through its floating
// IP and run ping against another VM. The client supports password and
// key-based authentication with configurable retry logic.
package ssh
