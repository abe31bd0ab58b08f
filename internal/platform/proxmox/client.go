// Package proxmox provides a wrapper around the Proxmox VE API.
package proxmox

import (
	"context"

	"github.com/pvetools/pvefleet/internal/cloudinit"
)

// VMSummary is the subset of cluster resource data the orchestrator needs
// to detect collisions and report state.
type VMSummary struct {
	VMID     int
	Name     string
	Node     string
	Status   string
	Template bool
}

// CloneSpec holds all parameters for cloning a template into a new guest.
type CloneSpec struct {
	TemplateID  int
	NewID       int
	Name        string
	Node        string
	Storage     string
	FullClone   bool
	Description string
}

// GuestSpec holds the post-clone configuration applied to a guest: sizing
// plus the cloud-init parameter set.
type GuestSpec struct {
	MemoryMB  int
	Cores     int
	CloudInit []cloudinit.Option
}

// Authenticator verifies API credentials before any mutation is attempted.
type Authenticator interface {
	// CheckAuth performs a cheap authenticated call. A failure here is
	// fatal to the whole batch and is never retried.
	CheckAuth(ctx context.Context) error
}

// VMLister lists guests known to the cluster.
type VMLister interface {
	// ListVMs returns every QEMU guest (templates included) across the
	// cluster. Callers filter by node.
	ListVMs(ctx context.Context) ([]VMSummary, error)
}

// TemplateCloner clones a template into a new guest and waits for the
// hypervisor's asynchronous clone task to complete.
type TemplateCloner interface {
	CloneTemplate(ctx context.Context, spec CloneSpec) error
}

// GuestConfigurator applies sizing and cloud-init parameters to a guest.
type GuestConfigurator interface {
	ConfigureGuest(ctx context.Context, node string, vmid int, spec GuestSpec) error
}

// GuestStarter powers on a guest and waits for the start task.
type GuestStarter interface {
	StartGuest(ctx context.Context, node string, vmid int) error
}

// FleetManager combines every hypervisor capability the orchestrator uses.
type FleetManager interface {
	Authenticator
	VMLister
	TemplateCloner
	GuestConfigurator
	GuestStarter
}
