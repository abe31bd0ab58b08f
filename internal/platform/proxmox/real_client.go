package proxmox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/luthermonson/go-proxmox"

	"github.com/pvetools/pvefleet/internal/config"
)

// Credentials selects one of the two Proxmox authentication schemes: an API
// token (token ID + secret) or a username/password login. Token auth wins
// when both are set.
type Credentials struct {
	TokenID     string
	TokenSecret string
	Username    string
	Password    string
}

// HasToken reports whether API token auth is configured.
func (c Credentials) HasToken() bool {
	return c.TokenID != "" && c.TokenSecret != ""
}

// HasPassword reports whether username/password auth is configured.
func (c Credentials) HasPassword() bool {
	return c.Username != "" && c.Password != ""
}

// RealClient implements FleetManager using the Proxmox VE API.
type RealClient struct {
	client   *proxmox.Client
	timeouts *config.Timeouts
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) {
		c.timeouts = t
	}
}

// WithProxmoxClient sets a custom go-proxmox client (useful for testing).
func WithProxmoxClient(pc *proxmox.Client) ClientOption {
	return func(c *RealClient) {
		c.client = pc
	}
}

// NewRealClient creates a new RealClient for the given API endpoint, e.g.
// "https://pve.example:8006/api2/json". Self-signed cluster certificates are
// common in homelab deployments, so verification can be switched off.
func NewRealClient(endpoint string, creds Credentials, insecureSkipVerify bool, opts ...ClientOption) (*RealClient, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: insecureSkipVerify, // #nosec G402
			},
		},
	}

	pmOpts := []proxmox.Option{proxmox.WithHTTPClient(httpClient)}
	switch {
	case creds.HasToken():
		pmOpts = append(pmOpts, proxmox.WithAPIToken(creds.TokenID, creds.TokenSecret))
	case creds.HasPassword():
		pmOpts = append(pmOpts, proxmox.WithCredentials(&proxmox.Credentials{
			Username: creds.Username,
			Password: creds.Password,
		}))
	default:
		return nil, fmt.Errorf("no credentials: set an API token or a username/password")
	}

	c := &RealClient{
		client:   proxmox.NewClient(endpoint, pmOpts...),
		timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CheckAuth verifies the configured credentials with a version probe.
func (c *RealClient) CheckAuth(ctx context.Context) error {
	if _, err := c.client.Version(ctx); err != nil {
		return fmt.Errorf("proxmox authentication check failed: %w", err)
	}
	return nil
}
