// internal/phrase/schedule.go
package phrase

import (
	"regexp"
	"strings"

	"github.com/colebrumley/rulephrase/internal/descriptor"
	"github.com/colebrumley/rulephrase/internal/registry"
)

// Cron literals for the named instants.
const (
	midnightCron = "0 0 0 * * ?"
	noonCron     = "0 0 12 * * ?"
)

var cronRe = regexp.MustCompile(`(?i)^Time\s+(?:cron\s+(?P<cron>.+)|is\s+(?P<instant>midnight|noon))$`)

// cronGrammar handles "Time cron <expr>" and the named instants. It is
// registered ahead of dateTimeGrammar so "Time is midnight" never reads
// as an item reference.
type cronGrammar struct{}

func (g *cronGrammar) Discriminators() []string { return []string{"time"} }

func (g *cronGrammar) Recognize(phrase string) *Match { return matchNamed(cronRe, phrase) }

func (g *cronGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	expr := m.Group("cron")
	switch strings.ToLower(m.Group("instant")) {
	case "midnight":
		expr = midnightCron
	case "noon":
		expr = noonCron
	default:
		if err := ValidateCron(expr); err != nil {
			perr := failf(MalformedValue, "invalid cron expression %q", expr)
			perr.Err = err
			return nil, perr
		}
	}
	var cfg descriptor.Config
	cfg.Set("cronExpression", expr)
	return []descriptor.Descriptor{{Type: "timer.GenericCronTrigger", Config: cfg}}, nil
}

func (g *cronGrammar) Examples() []string {
	return []string{
		"Time cron 0 0 6 * * ?",
		"Time is midnight",
		"Time is noon",
	}
}

var dateTimeRe = regexp.MustCompile(`(?i)^Time\s+is\s+(?P<item>\S+)(?:\s+\[(?P<timeonly>timeOnly)\])?$`)

// dateTimeGrammar handles "Time is <Item>" where the item holds the
// moment to fire at. The timeOnly flag restricts the match to the
// time-of-day portion of the item's state.
type dateTimeGrammar struct {
	reg registry.Registry
}

func (g *dateTimeGrammar) Discriminators() []string { return []string{"time"} }

func (g *dateTimeGrammar) Recognize(phrase string) *Match { return matchNamed(dateTimeRe, phrase) }

func (g *dateTimeGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	name := m.Group("item")
	if _, err := lookupItem(g.reg, name); err != nil {
		return nil, err
	}
	var cfg descriptor.Config
	cfg.Set("itemName", name)
	if m.Group("timeonly") != "" {
		cfg.Set("timeOnly", true)
	}
	return []descriptor.Descriptor{{Type: "timer.DateTimeTrigger", Config: cfg}}, nil
}

func (g *dateTimeGrammar) Examples() []string {
	return []string{
		"Time is Sunrise_Time",
		"Time is Alarm_Clock [timeOnly]",
	}
}
