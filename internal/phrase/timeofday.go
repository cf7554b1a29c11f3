// internal/phrase/timeofday.go
package phrase

import (
	"regexp"

	"github.com/colebrumley/rulephrase/internal/descriptor"
)

var (
	timeOfDayRe      = regexp.MustCompile(`(?i)^Time\s+(?P<start>.+?)(?:\s*-\s*|\s+to\s+)(?P<end>.+)$`)
	timeOfDayBoundRe = regexp.MustCompile(`(?i)^(?:(?:[01]?\d|2[0-3]):[0-5]\d|(?:0?[1-9]|1[0-2]):[0-5]\d(?::[0-5]\d)?\s?(?:AM|PM))$`)
)

// timeOfDayGrammar handles "Time 9:00 to 14:00" ranges. Bounds are either
// 24-hour HH:MM or 12-hour H:MM[:SS] AM/PM, validated independently; the
// range is not required to be ordered.
type timeOfDayGrammar struct{}

func (g *timeOfDayGrammar) Discriminators() []string { return []string{"time"} }

func (g *timeOfDayGrammar) Recognize(phrase string) *Match {
	return matchNamed(timeOfDayRe, phrase)
}

func (g *timeOfDayGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	start := m.Group("start")
	end := m.Group("end")
	if !timeOfDayBoundRe.MatchString(start) {
		return nil, failf(MalformedValue, "invalid time bound %q", start)
	}
	if !timeOfDayBoundRe.MatchString(end) {
		return nil, failf(MalformedValue, "invalid time bound %q", end)
	}
	var cfg descriptor.Config
	cfg.Set("startTime", start)
	cfg.Set("endTime", end)
	return []descriptor.Descriptor{{Type: "core.TimeOfDayCondition", Config: cfg}}, nil
}

func (g *timeOfDayGrammar) Examples() []string {
	return []string{
		"Time 9:00 to 14:00",
		"Time 8:00 AM - 5:00 PM",
	}
}
