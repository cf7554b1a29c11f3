// internal/phrase/ephemeris.go
package phrase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/colebrumley/rulephrase/internal/descriptor"
)

var ephemerisRe = regexp.MustCompile(`(?i)^(?:(?P<today>Today\s+is|it'*s)|(?P<plus1>Tomorrow\s+is|Today\s+plus\s+1)|(?P<minus1>Yesterday\s+was|Today\s+minus\s+1)|(?:Today\s+(?P<plusminus>plus|minus|offset)\s+(?P<offset>-?\d+)\s+is))\s+(?P<not>not\s+)?(?:in\s+)?(?:a\s+)?(?P<daytype>holiday|weekday|weekend|\S+)$`)

var ephemerisTypeUIDs = map[string]string{
	"holiday":    "ephemeris.HolidayCondition",
	"notholiday": "ephemeris.NotHolidayCondition",
	"weekend":    "ephemeris.WeekendCondition",
	"weekday":    "ephemeris.WeekdayCondition",
}

// ephemerisGrammar handles calendar-day conditions: "Today is a holiday",
// "Tomorrow is not a weekday", "Today plus 3 is a weekend", or a custom
// dayset name like "Yesterday was in school_days". Negation swaps the
// built-in daytypes (holiday to notholiday, weekday and weekend to each
// other); a custom dayset has no antonym and cannot be negated.
type ephemerisGrammar struct{}

func (g *ephemerisGrammar) Discriminators() []string {
	return []string{"today", "tomorrow", "yesterday", "it's"}
}

func (g *ephemerisGrammar) Recognize(phrase string) *Match {
	return matchNamed(ephemerisRe, phrase)
}

func (g *ephemerisGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	var offset int
	switch {
	case m.Group("today") != "":
		offset = 0
	case m.Group("plus1") != "":
		offset = 1
	case m.Group("minus1") != "":
		offset = -1
	default:
		n, err := strconv.Atoi(m.Group("offset"))
		if err != nil {
			return nil, failf(MalformedValue, "invalid day offset %q", m.Group("offset"))
		}
		if strings.EqualFold(m.Group("plusminus"), "minus") {
			n = -n
		}
		offset = n
	}

	dayset := strings.ToLower(m.Group("daytype"))
	if m.Group("not") != "" {
		switch dayset {
		case "holiday":
			dayset = "notholiday"
		case "weekday":
			dayset = "weekend"
		case "weekend":
			dayset = "weekday"
		default:
			return nil, failf(UnsupportedNegation, "cannot negate custom dayset %q", m.Group("daytype"))
		}
	}

	var cfg descriptor.Config
	cfg.Set("offset", offset)
	typeUID, ok := ephemerisTypeUIDs[dayset]
	if !ok {
		typeUID = "ephemeris.DaysetCondition"
		cfg.Set("dayset", m.Group("daytype"))
	}
	return []descriptor.Descriptor{{Type: typeUID, Config: cfg}}, nil
}

func (g *ephemerisGrammar) Examples() []string {
	return []string{
		"Today is a holiday",
		"Tomorrow is not a holiday",
		"Yesterday was a weekday",
		"Today plus 3 is a weekend",
	}
}
