// internal/phrase/system.go
package phrase

import (
	"regexp"
	"strconv"

	"github.com/colebrumley/rulephrase/internal/descriptor"
)

// defaultStartLevel is used when a "System started" phrase names no level.
const defaultStartLevel = 40

var systemStartRe = regexp.MustCompile(`(?i)^System\s+(?:started|reached\s+start\s+level\s+(?P<level>\d+))$`)

type systemStartGrammar struct{}

func (g *systemStartGrammar) Discriminators() []string { return []string{"system"} }

func (g *systemStartGrammar) Recognize(phrase string) *Match {
	return matchNamed(systemStartRe, phrase)
}

func (g *systemStartGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	level := defaultStartLevel
	if raw := m.Group("level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, failf(MalformedValue, "invalid start level %q", raw)
		}
		level = n
	}
	var cfg descriptor.Config
	cfg.Set("startlevel", level)
	return []descriptor.Descriptor{{Type: "core.SystemStartlevelTrigger", Config: cfg}}, nil
}

func (g *systemStartGrammar) Examples() []string {
	return []string{
		"System started",
		"System reached start level 50",
	}
}
