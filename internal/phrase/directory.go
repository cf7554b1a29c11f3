// internal/phrase/directory.go
package phrase

import (
	"regexp"
	"strings"

	"github.com/colebrumley/rulephrase/internal/descriptor"
)

var directoryEventRe = regexp.MustCompile(`(?i)^(?P<kind>Directory|Subdirectory)\s+(?P<path>'.+'|\S+)\s+\[(?P<options>(?:(?:,\s*)*(?:created|deleted|modified))+)\]$`)

// directoryEventGrammar handles filesystem watch phrases. The bracketed
// option list picks the event kinds; "Subdirectory" extends the watch to
// nested directories.
type directoryEventGrammar struct{}

func (g *directoryEventGrammar) Discriminators() []string {
	return []string{"directory", "subdirectory"}
}

func (g *directoryEventGrammar) Recognize(phrase string) *Match {
	return matchNamed(directoryEventRe, phrase)
}

func (g *directoryEventGrammar) Build(m *Match) ([]descriptor.Descriptor, error) {
	seen := make(map[string]bool)
	for _, opt := range strings.Split(m.Group("options"), ",") {
		seen[strings.ToLower(strings.TrimSpace(opt))] = true
	}
	var kinds []string
	for _, kind := range []string{"created", "deleted", "modified"} {
		if seen[kind] {
			kinds = append(kinds, kind)
		}
	}
	var cfg descriptor.Config
	cfg.Set("path", unquote(m.Group("path")))
	cfg.Set("event_kinds", strings.Join(kinds, ","))
	cfg.Set("watch_subdirectories", strings.EqualFold(m.Group("kind"), "Subdirectory"))
	return []descriptor.Descriptor{{Type: "jsr223.DirectoryEventTrigger", Config: cfg}}, nil
}

func (g *directoryEventGrammar) Examples() []string {
	return []string{
		"Directory /opt/test [created, deleted, modified]",
		"Subdirectory '/var/spool/incoming' [created]",
	}
}
