package proxmox

import (
	"errors"
	"strings"

	"github.com/luthermonson/go-proxmox"
)

// ErrTaskTimeout is returned when a hypervisor task does not finish within
// its allotted timeout. It is deliberately distinct from transient API
// errors: a timed-out clone may still be copying disks, so retrying risks
// duplicate resource consumption.
var ErrTaskTimeout = errors.New("hypervisor task did not complete in time")

// ErrTaskFailed is returned when a hypervisor task finishes with an error
// exit status.
var ErrTaskFailed = errors.New("hypervisor task failed")

// transientMarkers are substrings of Proxmox API error messages that
// indicate a retryable condition. The API reports these as plain text, so
// unlike hcloud-style coded errors there is nothing structured to match on.
var transientMarkers = []string{
	"got lock",
	"can't lock",
	"is locked",
	"lock file",
	"rate limit",
	"too many requests",
	"temporarily unavailable",
	"timeout",
	"connection refused",
	"connection reset",
	"502",
	"503",
}

// IsTransient checks if an error indicates a temporary API condition that
// is safe to retry (resource lock, rate limit, brief unavailability).
// Task timeouts are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTaskTimeout) || errors.Is(err, ErrTaskFailed) {
		return false
	}
	if IsAuthError(err) || IsNotFound(err) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsNotFound checks if an error indicates a missing resource.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if proxmox.IsNotFound(err) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "does not exist")
}

// IsAuthError checks if an error indicates rejected credentials. These are
// fatal and surfaced immediately, without retry.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if proxmox.IsNotAuthorized(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "authentication failure") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "permission check failed")
}

// IsAlreadyExists checks if an error indicates a VMID or name conflict
// reported by the hypervisor itself. The hypervisor is authoritative for
// collisions, so this can surface even after a clean pre-check.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "already in use")
}
