// internal/phrase/itemstate.go
package phrase

import (
	"regexp"

	"github.com/colebrumley/rulephrase/internal/descriptor"
	"github.com/colebrumley/rulephrase/internal/registry"
)

var itemStateCondRe = regexp.MustCompile(`(?i)^Item\s+(?P<item>\w+)\s+(?:(?P<eq>=|==|eq|equals|is)|(?P<neq>!=|not\s+equals|is\s+not)|(?P<lt><|lt|is\s+less\s+than)|(?P<lte><=|lte|is\s+less\s+than\s+or\s+equal)|(?P<gt>>|gt|is\s+greater\s+than)|(?P<gte>>=|gte|is\s+greater\s+than\s+or\s+equal))(?:\s+(?P<state>'[^']+'|\S+))?$`)

// comparisonOps maps the regexp group that matched to the canonical
// operator spelling.
var comparisonOps = []struct {
	group string
	op    string
}{
	{"eq", "="},
	{"neq", "!="},
	{"lt", "<"},
	{"lte", "<="},
	{"gt", ">"},
	{"gte", ">="},
}

// itemStateConditionGrammar handles "Item X equals ON" and the other
// comparison spellings. All three configuration values are required.
type itemStateConditionGrammar struct {
	reg registry.Registry
}

func (g *itemStateConditionGrammar) Discriminators() []string { return []string{"item"} }

func (g *itemStateConditionGrammar) Recognize(phrase string) *Match {
	return matchNamed(itemStateCondRe, phrase)
}

func (g *itemStateConditionGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	name := m.Group("item")
	if _, err := lookupItem(g.reg, name); err != nil {
		return nil, err
	}
	var op string
	for _, c := range comparisonOps {
		if m.Group(c.group) != "" {
			op = c.op
			break
		}
	}
	state := unquote(m.Group("state"))
	if state == "" {
		return nil, failf(MalformedValue, "comparison state is missing")
	}
	var cfg descriptor.Config
	cfg.Set("itemName", name)
	cfg.Set("operator", op)
	cfg.Set("state", state)
	return []descriptor.Descriptor{{Type: "core.ItemStateCondition", Config: cfg}}, nil
}

func (g *itemStateConditionGrammar) Examples() []string {
	return []string{
		"Item Test_Switch equals ON",
		"Item Outside_Temp is greater than 20",
	}
}
