package clone

import (
	"github.com/pvetools/pvefleet/internal/platform/proxmox"
)

// Snapshot is the hypervisor state read once before dispatch. It is never
// refreshed mid-batch, so concurrent entries share a consistent view; the
// hypervisor itself stays authoritative for conflicts that appear later.
type Snapshot struct {
	vmids map[int]bool
	names map[string]bool
}

// NewSnapshot indexes a cluster listing for collision checks. VMIDs are
// cluster-unique and indexed across all nodes; names are only meaningful
// per node, so only guests on the target node are indexed by name.
func NewSnapshot(vms []proxmox.VMSummary, targetNode string) *Snapshot {
	s := &Snapshot{
		vmids: make(map[int]bool, len(vms)),
		names: make(map[string]bool),
	}
	for _, vm := range vms {
		s.vmids[vm.VMID] = true
		if vm.Node == targetNode {
			s.names[vm.Name] = true
		}
	}
	return s
}

// HasVMID reports whether the VMID was present at snapshot time.
func (s *Snapshot) HasVMID(vmid int) bool {
	return s.vmids[vmid]
}

// HasName reports whether a guest with this name existed on the target node
// at snapshot time.
func (s *Snapshot) HasName(name string) bool {
	return s.names[name]
}

// VMIDSet exposes the VMID index for the allocator.
func (s *Snapshot) VMIDSet() map[int]bool {
	return s.vmids
}
