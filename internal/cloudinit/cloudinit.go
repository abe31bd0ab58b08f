// Package cloudinit builds the Proxmox VE cloud-init parameter set for a guest.
//
// Proxmox exposes cloud-init through VM config options (ciuser, sshkeys,
// ipconfigN, nameserver, searchdomain) rather than raw NoCloud files; the
// hypervisor assembles the datasource ISO itself on first boot. This package
// produces those option key/value pairs.
//
// See https://pve.proxmox.com/wiki/Cloud-Init_Support
package cloudinit

import (
	"fmt"
	"net/url"
	"strings"
)

// Network modes. Static and DHCP are mutually exclusive variants: a static
// spec carries address fields, a DHCP spec carries none.
const (
	modeStatic = "static"
	modeDHCP   = "dhcp"
)

// NetworkSpec describes the first network interface of a guest.
// Construct it with StaticNetwork or DHCPNetwork.
type NetworkSpec struct {
	mode    string
	address string
	prefix  int
	gateway string
}

// StaticNetwork returns a static address spec in CIDR-plus-gateway form.
func StaticNetwork(address string, prefix int, gateway string) NetworkSpec {
	return NetworkSpec{mode: modeStatic, address: address, prefix: prefix, gateway: gateway}
}

// DHCPNetwork returns a DHCP spec. It carries no address fields.
func DHCPNetwork() NetworkSpec {
	return NetworkSpec{mode: modeDHCP}
}

// Params is the full cloud-init parameter set applied to one guest after
// cloning. Hostname doubles as the VM name; Proxmox hands it to the guest
// as local-hostname.
type Params struct {
	Hostname     string
	User         string
	SSHPublicKey string
	Network      NetworkSpec
	DNSServers   []string
	SearchDomain string
}

// Option is one Proxmox VM config option.
type Option struct {
	Name  string
	Value string
}

// IPConfig renders the ipconfig0 option value: either
// "ip=<addr>/<prefix>,gw=<gateway>" or "ip=dhcp".
func (n NetworkSpec) IPConfig() (string, error) {
	switch n.mode {
	case modeDHCP:
		if n.address != "" || n.gateway != "" || n.prefix != 0 {
			return "", fmt.Errorf("dhcp network spec must not carry address fields")
		}
		return "ip=dhcp", nil
	case modeStatic:
		if n.address == "" || n.gateway == "" {
			return "", fmt.Errorf("static network spec requires address and gateway")
		}
		if n.prefix < 1 || n.prefix > 32 {
			return "", fmt.Errorf("static network spec has invalid prefix %d", n.prefix)
		}
		return fmt.Sprintf("ip=%s/%d,gw=%s", n.address, n.prefix, n.gateway), nil
	default:
		return "", fmt.Errorf("network spec has no mode; use StaticNetwork or DHCPNetwork")
	}
}

// Options renders the parameter set as Proxmox VM config options.
func (p Params) Options() ([]Option, error) {
	ipcfg, err := p.Network.IPConfig()
	if err != nil {
		return nil, err
	}

	opts := []Option{{Name: "ipconfig0", Value: ipcfg}}

	if p.User != "" {
		opts = append(opts, Option{Name: "ciuser", Value: p.User})
	}
	if p.SSHPublicKey != "" {
		// The sshkeys option must be percent-encoded; the API rejects
		// raw spaces and plus signs in key material.
		opts = append(opts, Option{Name: "sshkeys", Value: url.PathEscape(p.SSHPublicKey)})
	}
	if len(p.DNSServers) > 0 {
		opts = append(opts, Option{Name: "nameserver", Value: strings.Join(p.DNSServers, " ")})
	}
	if p.SearchDomain != "" {
		opts = append(opts, Option{Name: "searchdomain", Value: p.SearchDomain})
	}

	return opts, nil
}
