// internal/phrase/thing.go
package phrase

import (
	"regexp"
	"strings"

	"github.com/colebrumley/rulephrase/internal/descriptor"
	"github.com/colebrumley/rulephrase/internal/registry"
)

var thingStatusUpdateRe = regexp.MustCompile(`(?i)^Thing\s+(?P<thing>\S+)\s+received\s+update(?:\s+(?P<status>\w+))?$`)

type thingStatusUpdateGrammar struct {
	reg registry.Registry
}

func (g *thingStatusUpdateGrammar) Discriminators() []string { return []string{"thing"} }

func (g *thingStatusUpdateGrammar) Recognize(phrase string) *Match {
	return matchNamed(thingStatusUpdateRe, phrase)
}

func (g *thingStatusUpdateGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	uid := m.Group("thing")
	if _, err := lookupThing(g.reg, uid); err != nil {
		return nil, err
	}
	var cfg descriptor.Config
	cfg.Set("thingUID", uid)
	if status := m.Group("status"); status != "" {
		cfg.Set("status", status)
	}
	return []descriptor.Descriptor{{Type: "core.ThingStatusUpdateTrigger", Config: cfg}}, nil
}

func (g *thingStatusUpdateGrammar) Examples() []string {
	return []string{
		"Thing kodi:kodi:familyroom received update ONLINE",
	}
}

var thingStatusChangeRe = regexp.MustCompile(`(?i)^Thing\s+(?P<thing>\S+)\s+changed(?:\s+from\s+(?P<previous>\w+))?(?:\s+to\s+(?P<status>\w+))?$`)

type thingStatusChangeGrammar struct {
	reg registry.Registry
}

func (g *thingStatusChangeGrammar) Discriminators() []string { return []string{"thing"} }

func (g *thingStatusChangeGrammar) Recognize(phrase string) *Match {
	return matchNamed(thingStatusChangeRe, phrase)
}

func (g *thingStatusChangeGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	uid := m.Group("thing")
	if _, err := lookupThing(g.reg, uid); err != nil {
		return nil, err
	}
	var cfg descriptor.Config
	cfg.Set("thingUID", uid)
	if previous := m.Group("previous"); previous != "" {
		cfg.Set("previousStatus", previous)
	}
	if status := m.Group("status"); status != "" {
		cfg.Set("status", status)
	}
	return []descriptor.Descriptor{{Type: "core.ThingStatusChangeTrigger", Config: cfg}}, nil
}

func (g *thingStatusChangeGrammar) Examples() []string {
	return []string{
		"Thing kodi:kodi:familyroom changed from ONLINE to OFFLINE",
	}
}

var thingEventRe = regexp.MustCompile(`(?i)^Thing\s+(?P<action>added|removed|updated)$`)

type thingEventGrammar struct{}

func (g *thingEventGrammar) Discriminators() []string { return []string{"thing"} }

func (g *thingEventGrammar) Recognize(phrase string) *Match {
	return matchNamed(thingEventRe, phrase)
}

func (g *thingEventGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	var eventType string
	switch strings.ToLower(m.Group("action")) {
	case "added":
		eventType = "ThingAddedEvent"
	case "removed":
		eventType = "ThingRemovedEvent"
	case "updated":
		eventType = "ThingUpdatedEvent"
	}
	var cfg descriptor.Config
	cfg.Set("eventTopic", "smarthome/things/*")
	cfg.Set("eventSource", "smarthome/things/")
	cfg.Set("eventTypes", eventType)
	return []descriptor.Descriptor{{Type: "core.GenericEventTrigger", Config: cfg}}, nil
}

func (g *thingEventGrammar) Examples() []string {
	return []string{
		"Thing added",
		"Thing removed",
		"Thing updated",
	}
}
