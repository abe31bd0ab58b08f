// Package main is the entry point for the pvefleet CLI.
//
// pvefleet clones fleets of virtual machines from a Proxmox VE template:
// it plans deterministic names, VMIDs and addresses for a batch, clones
// and cloud-init-configures each guest with bounded parallelism, and
// reports a terminal status for every requested guest.
//
// Commands: provision, plan, version, completion.
//
// For detailed usage information, run:
//
//	pvefleet --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pvetools/pvefleet/cmd/pvefleet/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// First signal cancels the context so the batch stops dispatching;
	// a second signal terminates immediately.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
