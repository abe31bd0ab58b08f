// Package proxmox wraps the Proxmox VE REST API behind small capability
// interfaces (list, clone, configure, start) so the provisioning layers can
// be tested against mocks.
//
// All mutating operations retry transient API errors with exponential
// backoff and wait for the hypervisor's asynchronous task to finish, polling
// with a jittered interval. Task timeouts are surfaced as a distinct error
// so callers can treat them differently from ordinary failures.
package proxmox
