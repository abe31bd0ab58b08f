// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"fmt"
	"os"

	"github.com/pvetools/pvefleet/internal/config"
	"github.com/pvetools/pvefleet/internal/platform/proxmox"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newFleetClient creates a new Proxmox fleet client.
	newFleetClient = func(endpoint string, creds proxmox.Credentials, insecure bool) (proxmox.FleetManager, error) {
		return proxmox.NewRealClient(endpoint, creds, insecure)
	}

	// loadRequestFile loads the batch request from file (for testing injection).
	loadRequestFile = config.LoadFile

	// writeFile writes data to a file (for testing injection).
	writeFile = os.WriteFile
)

// connect builds a client from the PVE_* environment. Endpoint validation is
// delegated to the client; only presence is checked here.
func connect(insecure bool) (proxmox.FleetManager, error) {
	endpoint := os.Getenv("PVE_URL")
	if endpoint == "" {
		return nil, fmt.Errorf("PVE_URL is not set (e.g. https://pve.example:8006/api2/json)")
	}

	creds := proxmox.Credentials{
		TokenID:     os.Getenv("PVE_TOKEN_ID"),
		TokenSecret: os.Getenv("PVE_TOKEN_SECRET"),
		Username:    os.Getenv("PVE_USER"),
		Password:    os.Getenv("PVE_PASSWORD"),
	}
	return newFleetClient(endpoint, creds, insecure)
}

// loadRequest reads and validates the batch request. An empty path falls back
// to fleet.yaml in the current directory.
func loadRequest(configPath string) (*config.BatchRequest, error) {
	if configPath == "" {
		configPath = config.DefaultConfigFile
	}
	req, err := loadRequestFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return req, nil
}
