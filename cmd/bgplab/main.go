// Package main is the entry point for the bgplab CLI.
//
// bgplab stands up a small demo on an OpenStack cloud and the local Docker
// engine: two tenant networks behind a shared router, one VM on each, a
// permissive security group, and a pair of FRR containers peering over BGP.
// A final probe pings one VM from the other over SSH.
//
// Commands: deploy, network, vm, secgroup, peering, probe, version.
//
// For detailed usage information, run:
//
//	bgplab --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/osdemo/bgplab/cmd/bgplab/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	commands.SetVersionInfo(version, commit, date)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
