// Package clone executes the clone-and-configure lifecycle for one planned
// guest: existence pre-check, template clone, cloud-init configuration, and
// optional start, producing exactly one terminal outcome per entry.
package clone

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pvetools/pvefleet/internal/cloudinit"
	"github.com/pvetools/pvefleet/internal/config"
	"github.com/pvetools/pvefleet/internal/platform/proxmox"
	"github.com/pvetools/pvefleet/internal/provisioning/plan"
)

// Hypervisor is the slice of hypervisor capability the executor needs.
type Hypervisor interface {
	proxmox.TemplateCloner
	proxmox.GuestConfigurator
	proxmox.GuestStarter
}

// Executor drives the lifecycle of individual plan entries against the
// hypervisor. One executor serves a whole batch; Execute is safe for
// concurrent use.
type Executor struct {
	client      Hypervisor
	req         *config.BatchRequest
	snapshot    *Snapshot
	description string
}

// NewExecutor creates an executor for one batch run. The description is
// stamped onto every created guest.
func NewExecutor(client Hypervisor, req *config.BatchRequest, snapshot *Snapshot, description string) *Executor {
	return &Executor{
		client:      client,
		req:         req,
		snapshot:    snapshot,
		description: description,
	}
}

// Execute runs one entry to a terminal status. It never returns an error:
// every failure mode is folded into the outcome so the orchestrator can
// aggregate partial failure without special cases.
func (e *Executor) Execute(ctx context.Context, entry plan.Entry) Outcome {
	start := time.Now()

	// Idempotency pre-check against the batch's snapshot. A guest that
	// already carries the requested name or VMID is left untouched.
	if e.snapshot.HasName(entry.Name) || e.snapshot.HasVMID(entry.VMID) {
		log.Printf("[Clone] %s (vmid %d) already exists, skipping", entry.Name, entry.VMID)
		return Outcome{Entry: entry, Status: StatusAlreadyExists, Elapsed: time.Since(start)}
	}

	if err := e.cloneEntry(ctx, entry); err != nil {
		return e.failed(entry, PhaseCloning, err, start)
	}

	if err := e.configureEntry(ctx, entry); err != nil {
		return e.failed(entry, PhaseConfiguring, err, start)
	}

	if e.req.AutoStartEnabled() {
		log.Printf("[Clone] Starting %s (vmid %d)...", entry.Name, entry.VMID)
		if err := e.client.StartGuest(ctx, e.req.Node, entry.VMID); err != nil {
			return e.failed(entry, PhaseStarting, err, start)
		}
	}

	elapsed := time.Since(start)
	log.Printf("[Clone] Created %s (vmid %d) in %s", entry.Name, entry.VMID, elapsed.Round(time.Second))
	return Outcome{Entry: entry, Status: StatusCreated, Elapsed: elapsed}
}

func (e *Executor) cloneEntry(ctx context.Context, entry plan.Entry) error {
	log.Printf("[Clone] Cloning template %d into %s (vmid %d)...", e.req.TemplateID, entry.Name, entry.VMID)
	return e.client.CloneTemplate(ctx, proxmox.CloneSpec{
		TemplateID:  e.req.TemplateID,
		NewID:       entry.VMID,
		Name:        entry.Name,
		Node:        e.req.Node,
		Storage:     e.req.Storage,
		FullClone:   e.req.FullCloneEnabled(),
		Description: e.description,
	})
}

func (e *Executor) configureEntry(ctx context.Context, entry plan.Entry) error {
	log.Printf("[Clone] Configuring %s (vmid %d)...", entry.Name, entry.VMID)

	var network cloudinit.NetworkSpec
	if e.req.Network.IsStatic() {
		network = cloudinit.StaticNetwork(entry.IPAddress, e.req.Network.Netmask, e.req.Network.Gateway)
	} else {
		network = cloudinit.DHCPNetwork()
	}

	params := cloudinit.Params{
		Hostname:     entry.Hostname,
		User:         e.req.User.Name,
		SSHPublicKey: e.req.User.SSHPublicKey,
		Network:      network,
		DNSServers:   e.req.Network.DNSServers,
		SearchDomain: e.req.Network.SearchDomain,
	}
	opts, err := params.Options()
	if err != nil {
		return err
	}

	return e.client.ConfigureGuest(ctx, e.req.Node, entry.VMID, proxmox.GuestSpec{
		MemoryMB:  e.req.MemoryMB,
		Cores:     e.req.Cores,
		CloudInit: opts,
	})
}

// failed classifies an error into a terminal outcome. Task timeouts become
// TimedOut so the operator can decide whether to retry; everything else,
// post-hoc existence conflicts included, becomes Failed.
func (e *Executor) failed(entry plan.Entry, phase Phase, err error, start time.Time) Outcome {
	status := StatusFailed
	if errors.Is(err, proxmox.ErrTaskTimeout) {
		status = StatusTimedOut
	}

	detail := fmt.Sprintf("%s: %v", phase, err)
	log.Printf("[Clone] %s (vmid %d) %s: %s", entry.Name, entry.VMID, status, detail)
	return Outcome{
		Entry:       entry,
		Status:      status,
		ErrorDetail: detail,
		Elapsed:     time.Since(start),
	}
}
