// internal/phrase/parser.go
package phrase

import (
	"strings"

	"github.com/colebrumley/rulephrase/internal/descriptor"
	"github.com/colebrumley/rulephrase/internal/registry"
)

// Parser turns natural-language phrases into trigger or condition
// descriptors. Dispatch is by the lowercased first word of the phrase;
// candidate grammars are tried in registration order and the first one
// whose shape matches owns the phrase.
type Parser struct {
	grammars []Grammar
	index    map[string][]Grammar
}

func newParser(grammars ...Grammar) *Parser {
	p := &Parser{grammars: grammars, index: make(map[string][]Grammar)}
	for _, g := range grammars {
		for _, word := range g.Discriminators() {
			key := strings.ToLower(word)
			p.index[key] = append(p.index[key], g)
		}
	}
	return p
}

// NewWhenParser builds the parser for trigger ("when") phrases. Grammar
// order matters: "Time is midnight" must reach the cron grammar before
// the date-time grammar, and "Item added" must fall past the item state
// grammars to the registry event grammar.
func NewWhenParser(reg registry.Registry) *Parser {
	return newParser(
		&systemStartGrammar{},
		&cronGrammar{},
		&dateTimeGrammar{reg: reg},
		&itemStateUpdateGrammar{reg: reg},
		&itemStateChangeGrammar{reg: reg},
		&channelEventGrammar{reg: reg},
		&itemEventGrammar{},
		&itemCommandGrammar{reg: reg},
		&thingStatusUpdateGrammar{reg: reg},
		&thingStatusChangeGrammar{reg: reg},
		&thingEventGrammar{},
		&directoryEventGrammar{},
	)
}

// NewOnlyIfParser builds the parser for condition ("only if") phrases.
func NewOnlyIfParser(reg registry.Registry) *Parser {
	return newParser(
		&itemStateConditionGrammar{reg: reg},
		&ephemerisGrammar{},
		&timeOfDayGrammar{},
	)
}

// Parse converts one phrase into its descriptors. Group phrases expand to
// one descriptor per member, so the slice may hold zero or more entries.
// Failures are *ParseError values carrying the failure kind; registry
// infrastructure errors pass through unclassified.
func (p *Parser) Parse(phrase string) ([]descriptor.Descriptor, error) {
	trimmed := strings.TrimSpace(phrase)
	if trimmed == "" {
		perr := failf(EmptyPhrase, "phrase is empty")
		perr.Phrase = phrase
		return nil, perr
	}

	disc := strings.ToLower(firstWord(trimmed))
	candidates := p.index[disc]
	if len(candidates) == 0 {
		perr := failf(NoMatchingGrammar, "no grammar answers to %q", disc)
		perr.Phrase = trimmed
		perr.Discriminator = disc
		return nil, perr
	}

	for _, g := range candidates {
		m := g.Recognize(trimmed)
		if m == nil {
			continue
		}
		descs, err := g.Build(m)
		if err != nil {
			if perr, ok := AsParseError(err); ok {
				perr.Phrase = trimmed
				perr.Discriminator = disc
			}
			return nil, err
		}
		return descs, nil
	}

	perr := failf(NoMatchingGrammar, "phrase shape not recognized")
	perr.Phrase = trimmed
	perr.Discriminator = disc
	return nil, perr
}

// Examples returns the canonical example phrases of every registered
// grammar, in registration order.
func (p *Parser) Examples() []string {
	var out []string
	for _, g := range p.grammars {
		out = append(out, g.Examples()...)
	}
	return out
}
