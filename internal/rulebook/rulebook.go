// internal/rulebook/rulebook.go

// Package rulebook compiles rule definitions into descriptor-backed
// rules. A phrase that fails to parse never aborts its rule: the failure
// is logged once, recorded as an invalid entry in the rule's side list,
// and the rule as a whole is refused at registration time.
package rulebook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/colebrumley/rulephrase/internal/config"
	"github.com/colebrumley/rulephrase/internal/descriptor"
	"github.com/colebrumley/rulephrase/internal/phrase"
	"github.com/colebrumley/rulephrase/internal/template"
)

// Entry is one slot in a rule's trigger or condition list. A good phrase
// contributes one entry per descriptor it expanded to; a failed phrase
// contributes exactly one entry with Descriptor nil and Err set.
type Entry struct {
	Phrase     string
	Descriptor *descriptor.Descriptor
	Err        error
}

// Invalid reports whether this entry is the sentinel for a failed phrase.
func (e Entry) Invalid() bool { return e.Descriptor == nil }

// Rule is a compiled rule: its identity plus the descriptor lists built
// from its phrases.
type Rule struct {
	Name        string
	Description string
	Enabled     bool
	Triggers    []Entry
	Conditions  []Entry
}

// Valid reports whether every phrase of the rule parsed.
func (r *Rule) Valid() bool {
	for _, e := range r.Triggers {
		if e.Invalid() {
			return false
		}
	}
	for _, e := range r.Conditions {
		if e.Invalid() {
			return false
		}
	}
	return true
}

// Problems returns the entries that failed to parse, triggers first.
func (r *Rule) Problems() []Entry {
	var out []Entry
	for _, e := range r.Triggers {
		if e.Invalid() {
			out = append(out, e)
		}
	}
	for _, e := range r.Conditions {
		if e.Invalid() {
			out = append(out, e)
		}
	}
	return out
}

// RefusalError is returned when a rule holding invalid entries is
// offered for registration.
type RefusalError struct {
	Rule    string
	Phrases []string
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("rule %q has %d invalid phrase(s): %s", e.Rule, len(e.Phrases), strings.Join(e.Phrases, "; "))
}

// Activatable returns nil when the rule may be registered, or a
// *RefusalError naming the failed phrases.
func Activatable(r *Rule) error {
	problems := r.Problems()
	if len(problems) == 0 {
		return nil
	}
	phrases := make([]string, len(problems))
	for i, e := range problems {
		phrases[i] = e.Phrase
	}
	return &RefusalError{Rule: r.Name, Phrases: phrases}
}

// Registrar activates compiled rules in some engine. Implementations
// must refuse rules containing invalid entries; wrap them with Guarded
// to get that check for free.
type Registrar interface {
	Register(ctx context.Context, r *Rule) error
}

type guardedRegistrar struct {
	inner Registrar
}

// Guarded wraps a registrar with the refusal contract: rules that are
// not activatable never reach the inner registrar.
func Guarded(inner Registrar) Registrar {
	return &guardedRegistrar{inner: inner}
}

func (g *guardedRegistrar) Register(ctx context.Context, r *Rule) error {
	if err := Activatable(r); err != nil {
		return err
	}
	return g.inner.Register(ctx, r)
}

// Builder attaches parsed phrases to rules. Both parsers and the logger
// are fixed at construction.
type Builder struct {
	when   *phrase.Parser
	onlyIf *phrase.Parser
	logger *slog.Logger
}

func NewBuilder(when, onlyIf *phrase.Parser, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{when: when, onlyIf: onlyIf, logger: logger}
}

// When parses trigger phrases and appends their entries to the rule.
func (b *Builder) When(rule *Rule, phrases ...string) {
	rule.Triggers = b.attach(rule, b.when, "trigger", rule.Triggers, phrases)
}

// OnlyIf parses condition phrases and appends their entries to the rule.
func (b *Builder) OnlyIf(rule *Rule, phrases ...string) {
	rule.Conditions = b.attach(rule, b.onlyIf, "condition", rule.Conditions, phrases)
}

func (b *Builder) attach(rule *Rule, p *phrase.Parser, kind string, entries []Entry, phrases []string) []Entry {
	for _, ph := range phrases {
		descs, err := p.Parse(ph)
		if err != nil {
			b.logger.Warn("failed to parse "+kind+" phrase",
				"rule", rule.Name,
				"phrase", ph,
				"error", err)
			entries = append(entries, Entry{Phrase: ph, Err: err})
			continue
		}
		for i := range descs {
			entries = append(entries, Entry{Phrase: ph, Descriptor: &descs[i]})
		}
	}
	return entries
}

// Compile expands a rule definition's variables, parses all of its
// phrases, and names the resulting descriptors deterministically.
func (b *Builder) Compile(def *config.RuleDef) *Rule {
	rule := &Rule{
		Name:        def.Name,
		Description: def.Description,
		Enabled:     def.Enabled,
	}
	b.When(rule, template.ExpandAll(def.When, def.Vars)...)
	b.OnlyIf(rule, template.ExpandAll(def.OnlyIf, def.Vars)...)
	nameDescriptors(rule)
	return rule
}

// CompileAll compiles every definition and reports the outcome.
func (b *Builder) CompileAll(defs []*config.RuleDef) *Report {
	report := &Report{}
	for _, def := range defs {
		report.Rules = append(report.Rules, b.Compile(def))
	}
	return report
}

func nameDescriptors(rule *Rule) {
	for i, e := range rule.Triggers {
		if e.Descriptor != nil {
			e.Descriptor.Name = fmt.Sprintf("%s-when-%d", rule.Name, i)
		}
	}
	for i, e := range rule.Conditions {
		if e.Descriptor != nil {
			e.Descriptor.Name = fmt.Sprintf("%s-onlyif-%d", rule.Name, i)
		}
	}
}

// Report summarizes one compile pass over a set of rule definitions.
type Report struct {
	Rules []*Rule
}

func (r *Report) Total() int { return len(r.Rules) }

func (r *Report) Valid() int {
	n := 0
	for _, rule := range r.Rules {
		if rule.Valid() {
			n++
		}
	}
	return n
}

func (r *Report) Invalid() int { return r.Total() - r.Valid() }

// Rule returns the compiled rule with the given name, or nil.
func (r *Report) Rule(name string) *Rule {
	for _, rule := range r.Rules {
		if rule.Name == name {
			return rule
		}
	}
	return nil
}
