// internal/phrase/channel.go
package phrase

import (
	"regexp"

	"github.com/colebrumley/rulephrase/internal/descriptor"
	"github.com/colebrumley/rulephrase/internal/registry"
)

var channelEventRe = regexp.MustCompile(`(?i)^Channel\s+"?(?P<channel>[^"\s]+)"?\s+triggered(?:\s+(?P<event>\w+))?$`)

// channelEventGrammar handles "Channel <uid> triggered [EVENT]". The UID
// may be quoted; quotes stay out of the captured value.
type channelEventGrammar struct {
	reg registry.Registry
}

func (g *channelEventGrammar) Discriminators() []string { return []string{"channel"} }

func (g *channelEventGrammar) Recognize(phrase string) *Match {
	return matchNamed(channelEventRe, phrase)
}

func (g *channelEventGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	uid := m.Group("channel")
	if _, err := lookupChannel(g.reg, uid); err != nil {
		return nil, err
	}
	var cfg descriptor.Config
	cfg.Set("channelUID", uid)
	if event := m.Group("event"); event != "" {
		cfg.Set("event", event)
	}
	return []descriptor.Descriptor{{Type: "core.ChannelEventTrigger", Config: cfg}}, nil
}

func (g *channelEventGrammar) Examples() []string {
	return []string{
		`Channel "astro:sun:home:rise#event" triggered START`,
	}
}
