package config

// Network mode constants.
const (
	NetworkModeStatic = "static"
	NetworkModeDHCP   = "dhcp"
)

// Conflict policy constants. They control how the batch treats a requested
// name or VMID that already exists on the hypervisor.
const (
	ConflictSkip = "skip"
	ConflictFail = "fail"
)

// Defaults applied to unspecified fields before validation.
const (
	DefaultCount          = 1
	DefaultMemoryMB       = 4096
	DefaultCores          = 2
	DefaultStartingOctet  = 150
	DefaultNetmask        = 24
	DefaultVMIDFloor      = 100
	DefaultParallel       = 4
	DefaultNetworkMode    = NetworkModeStatic
	DefaultConflictPolicy = ConflictSkip
)

// BatchRequest is the declarative description of one provisioning batch.
// It is constructed once at the boundary (file + flag merge), validated,
// and treated as immutable by everything downstream.
type BatchRequest struct {
	BaseName   string `yaml:"base_name"`
	Count      int    `yaml:"count"`
	TemplateID int    `yaml:"template_id"`
	Node       string `yaml:"node"`

	// Storage is the target storage for full clones. Empty keeps the
	// template's storage.
	Storage   string `yaml:"storage"`
	FullClone *bool  `yaml:"full_clone"`

	VMIDFloor  int    `yaml:"vmid_floor"`
	OnConflict string `yaml:"on_conflict"`
	AutoStart  *bool  `yaml:"auto_start"`

	MemoryMB int `yaml:"memory_mb"`
	Cores    int `yaml:"cores"`

	// Parallel bounds how many clone operations run concurrently.
	Parallel int `yaml:"parallel"`

	Network NetworkConfig `yaml:"network"`
	User    UserConfig    `yaml:"user"`
}

// NetworkConfig describes the cloud-init network configuration applied to
// every guest in the batch. Static mode assigns sequential addresses in the
// subnet starting at StartingOctet; DHCP mode carries no address fields.
type NetworkConfig struct {
	Mode string `yaml:"mode"`

	// Subnet is the first three octets of the IPv4 network, e.g. "192.168.1".
	Subnet        string   `yaml:"subnet"`
	StartingOctet int      `yaml:"starting_octet"`
	Netmask       int      `yaml:"netmask"`
	Gateway       string   `yaml:"gateway"`
	DNSServers    []string `yaml:"dns_servers"`
	SearchDomain  string   `yaml:"search_domain"`
}

// UserConfig describes the initial cloud-init user deployed to every guest.
type UserConfig struct {
	Name         string `yaml:"name"`
	SSHPublicKey string `yaml:"ssh_public_key"`
}

// IsStatic reports whether the batch uses static network assignment.
func (n NetworkConfig) IsStatic() bool {
	return n.Mode == NetworkModeStatic
}

// FullCloneEnabled returns the effective full-clone setting (default true).
func (r *BatchRequest) FullCloneEnabled() bool {
	return r.FullClone == nil || *r.FullClone
}

// AutoStartEnabled returns the effective auto-start setting (default true).
func (r *BatchRequest) AutoStartEnabled() bool {
	return r.AutoStart == nil || *r.AutoStart
}

// ApplyDefaults merges documented defaults into unspecified fields.
// Explicit fields always win.
func (r *BatchRequest) ApplyDefaults() {
	if r.Count == 0 {
		r.Count = DefaultCount
	}
	if r.MemoryMB == 0 {
		r.MemoryMB = DefaultMemoryMB
	}
	if r.Cores == 0 {
		r.Cores = DefaultCores
	}
	if r.VMIDFloor == 0 {
		r.VMIDFloor = DefaultVMIDFloor
	}
	if r.Parallel == 0 {
		r.Parallel = DefaultParallel
	}
	if r.OnConflict == "" {
		r.OnConflict = DefaultConflictPolicy
	}
	if r.Network.Mode == "" {
		r.Network.Mode = DefaultNetworkMode
	}
	if r.Network.IsStatic() {
		if r.Network.StartingOctet == 0 {
			r.Network.StartingOctet = DefaultStartingOctet
		}
		if r.Network.Netmask == 0 {
			r.Network.Netmask = DefaultNetmask
		}
	}
}
