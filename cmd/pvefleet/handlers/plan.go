package handlers

import (
	"context"
	"fmt"

	"github.com/pvetools/pvefleet/internal/provisioning/batch"
)

// Plan prints the allocation a provision run would use without mutating the
// cluster. Hypervisor state is read to pick collision-free VMIDs.
func Plan(ctx context.Context, configPath string, insecure bool) error {
	req, err := loadRequest(configPath)
	if err != nil {
		return err
	}

	client, err := connect(insecure)
	if err != nil {
		return err
	}

	entries, err := batch.New(client, req).Plan(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Planned allocation for %d guest(s) on node %s:\n\n", len(entries), req.Node)
	fmt.Printf("  %-20s %-8s %s\n", "NAME", "VMID", "ADDRESS")
	for _, entry := range entries {
		address := entry.IPAddress
		if address == "" {
			address = "dhcp"
		}
		fmt.Printf("  %-20s %-8d %s\n", entry.Name, entry.VMID, address)
	}
	return nil
}
