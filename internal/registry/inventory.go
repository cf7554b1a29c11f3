// internal/registry/inventory.go
package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Inventory is the YAML document describing the known items, things, and
// channels. It is the human-editable source that populates the registry.
type Inventory struct {
	Items    []InventoryItem    `yaml:"items"`
	Things   []InventoryThing   `yaml:"things"`
	Channels []InventoryChannel `yaml:"channels"`
}

type InventoryItem struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Label   string   `yaml:"label"`
	Members []string `yaml:"members"`
}

type InventoryThing struct {
	UID   string `yaml:"uid"`
	Label string `yaml:"label"`
}

type InventoryChannel struct {
	UID   string `yaml:"uid"`
	Kind  string `yaml:"kind"`
	Label string `yaml:"label"`
}

// LoadInventory loads and validates an inventory file.
func LoadInventory(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory file: %w", err)
	}

	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("parsing inventory file: %w", err)
	}

	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Validate checks the inventory for structural problems.
func (inv *Inventory) Validate() error {
	names := make(map[string]bool)
	for _, it := range inv.Items {
		if it.Name == "" {
			return fmt.Errorf("inventory item with empty name")
		}
		if names[it.Name] {
			return fmt.Errorf("duplicate inventory item: %s", it.Name)
		}
		names[it.Name] = true
		if len(it.Members) > 0 && !strings.EqualFold(it.Kind, "Group") {
			return fmt.Errorf("item %s has members but kind %q, expected Group", it.Name, it.Kind)
		}
	}

	uids := make(map[string]bool)
	for _, th := range inv.Things {
		if th.UID == "" {
			return fmt.Errorf("inventory thing with empty uid")
		}
		if uids[th.UID] {
			return fmt.Errorf("duplicate inventory thing: %s", th.UID)
		}
		uids[th.UID] = true
	}

	chans := make(map[string]bool)
	for _, ch := range inv.Channels {
		if ch.UID == "" {
			return fmt.Errorf("inventory channel with empty uid")
		}
		if chans[ch.UID] {
			return fmt.Errorf("duplicate inventory channel: %s", ch.UID)
		}
		chans[ch.UID] = true
	}

	return nil
}
