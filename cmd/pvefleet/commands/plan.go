package commands

import (
	"github.com/spf13/cobra"

	"github.com/pvetools/pvefleet/cmd/pvefleet/handlers"
)

// Plan returns the dry-run command: it prints the allocation a provision run
// would use without cloning anything.
func Plan() *cobra.Command {
	var (
		configPath string
		insecure   bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the allocation without provisioning",
		Long: `Show the names, VMIDs and addresses a provision run would allocate.

Reads current hypervisor state to pick collision-free VMIDs, but performs
no clones and leaves the cluster untouched.

Examples:
  pvefleet plan
  pvefleet plan -c web-tier.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), configPath, insecure)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: fleet.yaml)")
	cmd.Flags().BoolVarP(&insecure, "insecure", "k", false, "Skip TLS certificate verification")

	return cmd
}
