// internal/phrase/item.go
package phrase

import (
	"regexp"
	"strings"

	"github.com/colebrumley/rulephrase/internal/descriptor"
	"github.com/colebrumley/rulephrase/internal/registry"
)

var itemScopeWords = []string{"item", "member", "descendent"}

var itemStateUpdateRe = regexp.MustCompile(`(?i)^(?:(?P<scope>Member|Descendent)\s+of|Item)\s+(?P<item>\w+)\s+received\s+update(?:\s+(?P<state>'[^']+'|\S+))?$`)

type itemStateUpdateGrammar struct {
	reg registry.Registry
}

func (g *itemStateUpdateGrammar) Discriminators() []string { return itemScopeWords }

func (g *itemStateUpdateGrammar) Recognize(phrase string) *Match {
	return matchNamed(itemStateUpdateRe, phrase)
}

func (g *itemStateUpdateGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	state := unquote(m.Group("state"))
	return expandItemTargets(g.reg, m, func(itemName string) descriptor.Descriptor {
		var cfg descriptor.Config
		cfg.Set("itemName", itemName)
		if state != "" {
			cfg.Set("state", state)
		}
		return descriptor.Descriptor{Type: "core.ItemStateUpdateTrigger", Config: cfg}
	})
}

func (g *itemStateUpdateGrammar) Examples() []string {
	return []string{
		"Item Test_Switch received update ON",
		"Member of gSensors received update",
	}
}

var itemStateChangeRe = regexp.MustCompile(`(?i)^(?:(?P<scope>Member|Descendent)\s+of|Item)\s+(?P<item>\w+)\s+changed(?:\s+from\s+(?P<previous>'[^']+'|\S+))?(?:\s+to\s+(?P<state>'[^']+'|\S+))?$`)

type itemStateChangeGrammar struct {
	reg registry.Registry
}

func (g *itemStateChangeGrammar) Discriminators() []string { return itemScopeWords }

func (g *itemStateChangeGrammar) Recognize(phrase string) *Match {
	return matchNamed(itemStateChangeRe, phrase)
}

func (g *itemStateChangeGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	previous := unquote(m.Group("previous"))
	state := unquote(m.Group("state"))
	return expandItemTargets(g.reg, m, func(itemName string) descriptor.Descriptor {
		var cfg descriptor.Config
		cfg.Set("itemName", itemName)
		if previous != "" {
			cfg.Set("previousState", previous)
		}
		if state != "" {
			cfg.Set("state", state)
		}
		return descriptor.Descriptor{Type: "core.ItemStateChangeTrigger", Config: cfg}
	})
}

func (g *itemStateChangeGrammar) Examples() []string {
	return []string{
		"Item Test_Switch changed from OFF to ON",
		"Member of gSensors changed to OPEN",
		"Descendent of gHouse changed",
	}
}

var itemCommandRe = regexp.MustCompile(`(?i)^(?:(?P<scope>Member|Descendent)\s+of|Item)\s+(?P<item>\w+)\s+received\s+command(?:\s+(?P<command>\w+))?$`)

type itemCommandGrammar struct {
	reg registry.Registry
}

func (g *itemCommandGrammar) Discriminators() []string { return itemScopeWords }

func (g *itemCommandGrammar) Recognize(phrase string) *Match {
	return matchNamed(itemCommandRe, phrase)
}

func (g *itemCommandGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	command := m.Group("command")
	return expandItemTargets(g.reg, m, func(itemName string) descriptor.Descriptor {
		var cfg descriptor.Config
		cfg.Set("itemName", itemName)
		if command != "" {
			cfg.Set("command", command)
		}
		return descriptor.Descriptor{Type: "core.ItemCommandTrigger", Config: cfg}
	})
}

func (g *itemCommandGrammar) Examples() []string {
	return []string{
		"Item Test_Switch received command OFF",
	}
}

var itemEventRe = regexp.MustCompile(`(?i)^Item\s+(?P<action>added|removed|updated)$`)

// itemEventGrammar handles registry lifecycle phrases. These do not name
// a concrete item, so no lookup happens and the descriptor subscribes to
// the whole item event topic.
type itemEventGrammar struct{}

func (g *itemEventGrammar) Discriminators() []string { return []string{"item"} }

func (g *itemEventGrammar) Recognize(phrase string) *Match {
	return matchNamed(itemEventRe, phrase)
}

func (g *itemEventGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	var eventType string
	switch strings.ToLower(m.Group("action")) {
	case "added":
		eventType = "ItemAddedEvent"
	case "removed":
		eventType = "ItemRemovedEvent"
	case "updated":
		eventType = "ItemUpdatedEvent"
	}
	var cfg descriptor.Config
	cfg.Set("eventTopic", "smarthome/items/*")
	cfg.Set("eventSource", "smarthome/items/")
	cfg.Set("eventTypes", eventType)
	return []descriptor.Descriptor{{Type: "core.GenericEventTrigger", Config: cfg}}, nil
}

func (g *itemEventGrammar) Examples() []string {
	return []string{
		"Item added",
		"Item removed",
		"Item updated",
	}
}
