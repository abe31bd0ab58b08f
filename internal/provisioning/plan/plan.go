// Package plan computes the deterministic resource allocation for a batch:
// guest names, VMIDs, and IP addresses.
//
// Planning is a pure function of the batch request and the hypervisor's
// existing VMID set. Identical inputs always yield the identical plan, which
// is what makes re-running a batch safe: a re-run resolves to the same
// names and addresses and the executor's idempotency check turns already
// provisioned entries into skips.
package plan

import (
	"fmt"

	"github.com/pvetools/pvefleet/internal/config"
	"github.com/pvetools/pvefleet/internal/util/naming"
)

// maxVMID is the highest VMID Proxmox accepts.
const maxVMID = 999999999

// maxOctet is the highest usable final octet for a host address.
const maxOctet = 254

// AllocationReason identifies why allocation failed.
type AllocationReason string

// Allocation failure reasons.
const (
	ReasonOctetOverflow AllocationReason = "octet-overflow"
	ReasonVMIDExhausted AllocationReason = "vmid-exhausted"
)

// AllocationError reports that the IP or VMID range cannot satisfy the
// requested count without collision. It is fatal to the whole batch and is
// surfaced before any clone begins.
type AllocationError struct {
	Reason AllocationReason
	Detail string
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation failed (%s): %s", e.Reason, e.Detail)
}

// Entry is the planned identity of one guest. Immutable once planned.
type Entry struct {
	Index     int // 0-based position in the batch
	Name      string
	Hostname  string
	VMID      int
	IPAddress string // empty in DHCP mode
}

// Plan derives the per-guest allocation for a batch request.
//
// Names follow the sequential scheme (bare base name for a batch of one).
// IP final octets increase by one per guest from the configured starting
// octet; exceeding 254 fails with ReasonOctetOverflow. VMIDs are assigned
// first-fit ascending from the configured floor, skipping any VMID in
// existingVMIDs.
func Plan(req *config.BatchRequest, existingVMIDs map[int]bool) ([]Entry, error) {
	if req.Network.IsStatic() {
		last := req.Network.StartingOctet + req.Count - 1
		if last > maxOctet {
			return nil, &AllocationError{
				Reason: ReasonOctetOverflow,
				Detail: fmt.Sprintf("starting octet %d with count %d ends at %d, beyond %d",
					req.Network.StartingOctet, req.Count, last, maxOctet),
			}
		}
	}

	entries := make([]Entry, 0, req.Count)
	nextVMID := req.VMIDFloor

	for i := 0; i < req.Count; i++ {
		for existingVMIDs[nextVMID] {
			nextVMID++
		}
		if nextVMID > maxVMID {
			return nil, &AllocationError{
				Reason: ReasonVMIDExhausted,
				Detail: fmt.Sprintf("no free VMID at or above floor %d", req.VMIDFloor),
			}
		}

		entry := Entry{
			Index:    i,
			Name:     naming.Guest(req.BaseName, i, req.Count),
			Hostname: naming.Hostname(req.BaseName, i, req.Count),
			VMID:     nextVMID,
		}
		if req.Network.IsStatic() {
			entry.IPAddress = fmt.Sprintf("%s.%d", req.Network.Subnet, req.Network.StartingOctet+i)
		}

		entries = append(entries, entry)
		nextVMID++
	}

	return entries, nil
}
