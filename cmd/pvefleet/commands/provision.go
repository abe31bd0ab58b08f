package commands

import (
	"github.com/spf13/cobra"

	"github.com/pvetools/pvefleet/cmd/pvefleet/handlers"
)

// Provision returns the command that clones and configures the whole batch.
//
// Optional flags:
//
//	--config, -c:    Path to batch configuration YAML file (default: fleet.yaml)
//	--inventory, -o: Write a YAML inventory of reachable guests to this path
//	--parallel, -p:  Override the configured parallelism limit
//	--metrics-addr:  Serve Prometheus metrics on this address for the run
//	--insecure, -k:  Skip TLS certificate verification
//
// Environment variables:
//
//	PVE_URL: Proxmox API endpoint, e.g. https://pve.example:8006/api2/json (required)
//	PVE_TOKEN_ID, PVE_TOKEN_SECRET: API token auth
//	PVE_USER, PVE_PASSWORD: username/password auth (used when no token is set)
func Provision() *cobra.Command {
	var opts handlers.ProvisionOptions

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Clone and configure the requested fleet",
		Long: `Clone and configure a batch of virtual machines from a template.

Reads the batch request from fleet.yaml (or --config), plans deterministic
names, VMIDs and addresses, then clones each guest with bounded parallelism.
Guests that already exist are skipped, so re-running a partially failed
batch only provisions what is missing.

Examples:
  # Provision using fleet.yaml in the current directory
  pvefleet provision

  # Provision a specific request and write an inventory fragment
  pvefleet provision -c web-tier.yaml -o inventory.yaml

  # Retry a partial batch with more parallelism
  pvefleet provision -p 8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Provision(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: fleet.yaml)")
	cmd.Flags().StringVarP(&opts.InventoryPath, "inventory", "o", "", "Write YAML inventory of reachable guests to this path")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 0, "Override configured parallelism limit")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().BoolVarP(&opts.Insecure, "insecure", "k", false, "Skip TLS certificate verification")

	return cmd
}
