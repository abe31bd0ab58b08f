package config

import (
	"fmt"
	"net"
	"regexp"
)

// guestNamePattern matches names Proxmox accepts for QEMU guests (DNS-style).
var guestNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidConflictPolicies contains the accepted on_conflict values.
var ValidConflictPolicies = map[string]bool{
	ConflictSkip: true,
	ConflictFail: true,
}

// ValidNetworkModes contains the accepted network.mode values.
var ValidNetworkModes = map[string]bool{
	NetworkModeStatic: true,
	NetworkModeDHCP:   true,
}

// Validate checks the batch request for common errors and returns a detailed
// error if validation fails. Only request-level validation lives here;
// IP-range and VMID-range exhaustion are detected by the allocator, which
// also sees the hypervisor's existing VMIDs.
func (r *BatchRequest) Validate() error {
	if r.BaseName == "" {
		return fmt.Errorf("base_name is required")
	}
	if !guestNamePattern.MatchString(r.BaseName) {
		return fmt.Errorf("invalid base_name %q: must be lowercase alphanumeric with hyphens", r.BaseName)
	}
	if r.Count < 1 {
		return fmt.Errorf("count must be >= 1, got %d", r.Count)
	}
	if r.TemplateID <= 0 {
		return fmt.Errorf("template_id is required")
	}
	if r.Node == "" {
		return fmt.Errorf("node is required")
	}
	if r.VMIDFloor < 100 {
		return fmt.Errorf("vmid_floor must be >= 100 (Proxmox reserves lower IDs), got %d", r.VMIDFloor)
	}
	if !ValidConflictPolicies[r.OnConflict] {
		return fmt.Errorf("invalid on_conflict %q: must be one of [%s %s]", r.OnConflict, ConflictSkip, ConflictFail)
	}
	if r.MemoryMB < 16 {
		return fmt.Errorf("memory_mb must be >= 16, got %d", r.MemoryMB)
	}
	if r.Cores < 1 {
		return fmt.Errorf("cores must be >= 1, got %d", r.Cores)
	}
	if r.Parallel < 1 {
		return fmt.Errorf("parallel must be >= 1, got %d", r.Parallel)
	}

	if err := r.Network.validate(); err != nil {
		return fmt.Errorf("network validation failed: %w", err)
	}

	return nil
}

// validate checks the network configuration. Static and DHCP are mutually
// exclusive variants: a DHCP request carrying static address fields is
// rejected rather than silently ignored.
func (n NetworkConfig) validate() error {
	if !ValidNetworkModes[n.Mode] {
		return fmt.Errorf("invalid mode %q: must be one of [%s %s]", n.Mode, NetworkModeStatic, NetworkModeDHCP)
	}

	if n.Mode == NetworkModeDHCP {
		if n.Subnet != "" || n.StartingOctet != 0 || n.Gateway != "" || n.Netmask != 0 {
			return fmt.Errorf("dhcp mode must not specify subnet, starting_octet, netmask, or gateway")
		}
		return nil
	}

	// Static mode
	if n.Subnet == "" {
		return fmt.Errorf("subnet is required for static mode")
	}
	if ip := net.ParseIP(n.Subnet + ".1"); ip == nil {
		return fmt.Errorf("invalid subnet %q: expected first three octets, e.g. 192.168.1", n.Subnet)
	}
	if n.StartingOctet < 1 || n.StartingOctet > 254 {
		return fmt.Errorf("starting_octet must be in [1, 254], got %d", n.StartingOctet)
	}
	if n.Netmask < 1 || n.Netmask > 32 {
		return fmt.Errorf("netmask must be in [1, 32], got %d", n.Netmask)
	}
	if n.Gateway == "" {
		return fmt.Errorf("gateway is required for static mode")
	}
	if net.ParseIP(n.Gateway) == nil {
		return fmt.Errorf("invalid gateway %q", n.Gateway)
	}
	for _, dns := range n.DNSServers {
		if net.ParseIP(dns) == nil {
			return fmt.Errorf("invalid dns server %q", dns)
		}
	}

	return nil
}
