// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing
// and flag binding. Command execution is delegated to handler functions in the
// handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/osdemo/bgplab/cmd/bgplab/handlers"
)

// Root returns the root command for the bgplab CLI.
//
// The persistent flags are shared by every provisioning subcommand.
func Root() *cobra.Command {
	opts := &handlers.Options{}

	cmd := &cobra.Command{
		Use:           "bgplab",
		Short:         "Stand up an OpenStack and FRR BGP demo topology",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a scenario file (default: built-in demo)")
	flags.StringVar(&opts.CloudConfig, "cloud-config", "", "cloud.conf used when the OS_* variables are not set")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "Write run metrics to this file in Prometheus textfile format")

	cmd.AddCommand(Deploy(opts))
	cmd.AddCommand(Network(opts))
	cmd.AddCommand(VM(opts))
	cmd.AddCommand(SecGroup(opts))
	cmd.AddCommand(Peering(opts))
	cmd.AddCommand(Probe(opts))
	cmd.AddCommand(Version())

	return cmd
}
