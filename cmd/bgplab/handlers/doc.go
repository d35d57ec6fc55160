// Package handlers executes the bgplab commands.
//
// Each handler loads the scenario, builds the clients the command needs and
// runs its phases through a provisioning.Pipeline. Client construction goes
// through package-level factory variables so tests can substitute fakes.
package handlers
