// internal/registry/registry.go
package registry

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when an item, thing, or channel is not in the registry.
var ErrNotFound = errors.New("entity not found")

// ErrNotAGroup is returned when group members are requested for a non-group item.
var ErrNotAGroup = errors.New("item is not a group")

// Item is a registered item. Members is populated for group items only and
// preserves the enumeration order of the source inventory.
type Item struct {
	Name    string
	Kind    string
	Label   string
	Members []string
}

// IsGroup reports whether the item is a group.
func (i *Item) IsGroup() bool {
	return strings.EqualFold(i.Kind, "Group")
}

// Thing is a registered thing.
type Thing struct {
	UID   string
	Label string
}

// Channel is a registered thing channel.
type Channel struct {
	UID   string
	Kind  string
	Label string
}

// Registry resolves entity references while parsing phrases. Lookups return
// ErrNotFound for absent entities; any other error is an infrastructure
// failure and is passed through to the caller unchanged.
type Registry interface {
	LookupItem(name string) (*Item, error)
	LookupThing(uid string) (*Thing, error)
	LookupChannel(uid string) (*Channel, error)
	// Members returns the direct members of a group in registry order.
	Members(group string) ([]Item, error)
	// AllMembers returns the transitive members of a group in depth-first
	// registry order. Nested group items themselves are not included and
	// items reachable through multiple groups appear once.
	AllMembers(group string) ([]Item, error)
}

// expandAll walks a group's membership depth-first using r.Members. Shared
// by the registry implementations.
func expandAll(r Registry, group string) ([]Item, error) {
	seen := make(map[string]bool)
	walked := map[string]bool{group: true}

	var out []Item
	var walk func(name string) error
	walk = func(name string) error {
		members, err := r.Members(name)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.IsGroup() {
				if !walked[m.Name] {
					walked[m.Name] = true
					if err := walk(m.Name); err != nil {
						return err
					}
				}
				continue
			}
			if !seen[m.Name] {
				seen[m.Name] = true
				out = append(out, m)
			}
		}
		return nil
	}

	if err := walk(group); err != nil {
		return nil, err
	}
	return out, nil
}
