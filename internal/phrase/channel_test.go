// internal/phrase/channel_test.go
package phrase

import "testing"

func TestChannelEventPhrases(t *testing.T) {
	p := NewWhenParser(testRegistry())

	t.Run("quoted uid with event", func(t *testing.T) {
		d := parseOne(t, p, `Channel "astro:sun:home:rise#event" triggered START`)
		if d.Type != "core.ChannelEventTrigger" {
			t.Fatalf("type = %q", d.Type)
		}
		checkConfig(t, d, [][2]string{
			{"channelUID", "astro:sun:home:rise#event"},
			{"event", "START"},
		})
	})

	t.Run("unquoted uid without event", func(t *testing.T) {
		d := parseOne(t, p, "Channel astro:sun:home:rise#event triggered")
		checkConfig(t, d, [][2]string{{"channelUID", "astro:sun:home:rise#event"}})
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := p.Parse("Channel astro:moon:home:set#event triggered")
		if !IsKind(err, InvalidReference) {
			t.Errorf("error = %v, want InvalidReference", err)
		}
	})
}
