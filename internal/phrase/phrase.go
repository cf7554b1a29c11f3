// internal/phrase/phrase.go
package phrase

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/colebrumley/rulephrase/internal/descriptor"
	"github.com/colebrumley/rulephrase/internal/registry"
)

// Grammar recognizes one phrase shape and builds its descriptors. A grammar
// is stateless apart from an optional registry handle; Recognize must be
// pure so the same phrase always produces the same result.
type Grammar interface {
	// Discriminators lists the lowercased first words this grammar answers to.
	Discriminators() []string
	// Recognize returns a match when the phrase has this grammar's shape,
	// or nil when it does not. It never consults the registry.
	Recognize(phrase string) *Match
	// Build converts a match into descriptors. Failures are *ParseError
	// values except registry infrastructure errors, which pass through.
	Build(m *Match) ([]descriptor.Descriptor, error)
	// Examples returns canonical phrases this grammar accepts.
	Examples() []string
}

// Match holds the named captures of a recognized phrase.
type Match struct {
	Phrase string
	groups map[string]string
}

// Group returns the text captured by a named group, or "" when the group
// did not participate in the match.
func (m *Match) Group(name string) string {
	return m.groups[name]
}

// matchNamed runs an anchored regexp against a phrase and collects its
// named captures.
func matchNamed(re *regexp.Regexp, phrase string) *Match {
	sub := re.FindStringSubmatch(phrase)
	if sub == nil {
		return nil
	}
	m := &Match{Phrase: phrase, groups: make(map[string]string)}
	for i, name := range re.SubexpNames() {
		if name != "" && sub[i] != "" {
			m.groups[name] = sub[i]
		}
	}
	return m
}

// unquote sheds one layer of surrounding single or double quotes. Phrases
// quote values to allow embedded whitespace; the stored value is the text
// inside the quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// lookupItem resolves an item reference, classifying absence as a parse
// failure.
func lookupItem(reg registry.Registry, name string) (*registry.Item, error) {
	it, err := reg.LookupItem(name)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, failf(InvalidReference, "invalid item name: %s", name)
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// lookupThing resolves a thing reference, classifying absence as a parse
// failure.
func lookupThing(reg registry.Registry, uid string) (*registry.Thing, error) {
	th, err := reg.LookupThing(uid)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, failf(InvalidReference, "invalid thing UID: %s", uid)
	}
	if err != nil {
		return nil, err
	}
	return th, nil
}

// lookupChannel resolves a channel reference, classifying absence as a
// parse failure.
func lookupChannel(reg registry.Registry, uid string) (*registry.Channel, error) {
	ch, err := reg.LookupChannel(uid)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, failf(InvalidReference, "invalid channel UID: %s", uid)
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// expandItemTargets builds one descriptor per target item. A plain Item
// phrase targets the named item itself, "Member of" targets each direct
// member of the group, and "Descendent of" targets every transitive
// non-group member. An empty group yields an empty slice and no error.
func expandItemTargets(reg registry.Registry, m *Match, build func(itemName string) descriptor.Descriptor) ([]descriptor.Descriptor, error) {
	name := m.Group("item")
	if _, err := lookupItem(reg, name); err != nil {
		return nil, err
	}
	var (
		members []registry.Item
		err     error
	)
	switch strings.ToLower(m.Group("scope")) {
	case "":
		return []descriptor.Descriptor{build(name)}, nil
	case "member":
		members, err = reg.Members(name)
	case "descendent":
		members, err = reg.AllMembers(name)
	}
	if errors.Is(err, registry.ErrNotAGroup) {
		return nil, failf(InvalidReference, "item is not a group: %s", name)
	}
	if err != nil {
		return nil, err
	}
	out := make([]descriptor.Descriptor, 0, len(members))
	for _, it := range members {
		out = append(out, build(it.Name))
	}
	return out, nil
}

func firstWord(phrase string) string {
	if i := strings.IndexFunc(phrase, unicode.IsSpace); i >= 0 {
		return phrase[:i]
	}
	return phrase
}
