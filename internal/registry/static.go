// internal/registry/static.go
package registry

// Static is an in-memory registry built from an inventory document. It
// serves CLI runs that have no registry database and test fixtures.
type Static struct {
	items    map[string]*Item
	things   map[string]*Thing
	channels map[string]*Channel
}

// NewStatic builds a Static registry from an inventory.
func NewStatic(inv *Inventory) *Static {
	s := &Static{
		items:    make(map[string]*Item),
		things:   make(map[string]*Thing),
		channels: make(map[string]*Channel),
	}
	for _, it := range inv.Items {
		s.items[it.Name] = &Item{
			Name:    it.Name,
			Kind:    it.Kind,
			Label:   it.Label,
			Members: append([]string(nil), it.Members...),
		}
	}
	for _, th := range inv.Things {
		s.things[th.UID] = &Thing{UID: th.UID, Label: th.Label}
	}
	for _, ch := range inv.Channels {
		s.channels[ch.UID] = &Channel{UID: ch.UID, Kind: ch.Kind, Label: ch.Label}
	}
	return s
}

func (s *Static) LookupItem(name string) (*Item, error) {
	it, ok := s.items[name]
	if !ok {
		return nil, ErrNotFound
	}
	return it, nil
}

func (s *Static) LookupThing(uid string) (*Thing, error) {
	th, ok := s.things[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return th, nil
}

func (s *Static) LookupChannel(uid string) (*Channel, error) {
	ch, ok := s.channels[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return ch, nil
}

func (s *Static) Members(group string) ([]Item, error) {
	g, ok := s.items[group]
	if !ok {
		return nil, ErrNotFound
	}
	if !g.IsGroup() {
		return nil, ErrNotAGroup
	}

	var members []Item
	for _, name := range g.Members {
		if m, ok := s.items[name]; ok {
			members = append(members, *m)
		}
	}
	return members, nil
}

func (s *Static) AllMembers(group string) ([]Item, error) {
	return expandAll(s, group)
}
