package report

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type inventoryHost struct {
	Name    string `yaml:"name"`
	VMID    int    `yaml:"vmid"`
	Address string `yaml:"address,omitempty"`
}

type inventoryDoc struct {
	Node  string          `yaml:"node"`
	Hosts []inventoryHost `yaml:"hosts"`
}

// Inventory renders the reachable guests (created or pre-existing) as a YAML
// fragment suitable for feeding into ansible-style tooling. Failed entries
// are omitted: they have no guest to address.
func Inventory(s *Summary) ([]byte, error) {
	doc := inventoryDoc{Node: s.Node}
	for _, line := range append(append([]Line{}, s.Created...), s.Existing...) {
		doc.Hosts = append(doc.Hosts, inventoryHost{
			Name:    line.Name,
			VMID:    line.VMID,
			Address: line.Address,
		})
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inventory: %w", err)
	}
	return out, nil
}
