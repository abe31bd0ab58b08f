package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the batch request file looked up when no --config
// flag is given.
const DefaultConfigFile = "fleet.yaml"

// LoadFile reads and parses a batch request from a YAML file, merges
// defaults, and validates the result.
func LoadFile(path string) (*BatchRequest, error) {
	if path == "" {
		path = DefaultConfigFile
	}

	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Load(data)
}

// Load parses a batch request from YAML bytes, merges defaults, and
// validates the result.
func Load(data []byte) (*BatchRequest, error) {
	var req BatchRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	req.ApplyDefaults()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &req, nil
}
