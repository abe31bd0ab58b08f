package naming

import "fmt"

// Naming functions for fleet resources.
// Guest names follow the documented sequential pattern: a batch of one keeps
// the bare base name, larger batches get a 1-based numeric suffix.

// Guest returns the name for the guest at the given 0-based plan index.
func Guest(baseName string, index, count int) string {
	if count == 1 {
		return baseName
	}
	return fmt.Sprintf("%s-%d", baseName, index+1)
}

// Hostname returns the cloud-init hostname for a guest. Proxmox passes the
// VM name to cloud-init as local-hostname, so the two are kept identical.
func Hostname(baseName string, index, count int) string {
	return Guest(baseName, index, count)
}

// BatchDescription returns the description stamped onto every VM created by
// a batch run, so operators can trace a guest back to its provisioning run.
func BatchDescription(runID, createdAt string) string {
	return fmt.Sprintf("pvefleet run %s (%s)", runID, createdAt)
}
