// internal/rulebook/rulebook_test.go
package rulebook

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/colebrumley/rulephrase/internal/config"
	"github.com/colebrumley/rulephrase/internal/phrase"
	"github.com/colebrumley/rulephrase/internal/registry"
)

func testRegistry() registry.Registry {
	inv := &registry.Inventory{
		Items: []registry.InventoryItem{
			{Name: "Test_Switch", Kind: "Switch"},
			{Name: "Kitchen_Light", Kind: "Switch"},
			{Name: "Porch_Light", Kind: "Switch"},
			{Name: "Bedroom_Light", Kind: "Switch"},
			{Name: "gLights", Kind: "Group", Members: []string{"Kitchen_Light", "Porch_Light", "Bedroom_Light"}},
		},
	}
	return registry.NewStatic(inv)
}

// countingHandler counts warning records so tests can assert the
// one-warning-per-failed-phrase contract.
type countingHandler struct {
	mu    sync.Mutex
	warns int
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *countingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.Level == slog.LevelWarn {
		h.warns++
	}
	return nil
}

func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func newTestBuilder(h *countingHandler) *Builder {
	reg := testRegistry()
	return NewBuilder(phrase.NewWhenParser(reg), phrase.NewOnlyIfParser(reg), slog.New(h))
}

func TestWhenDegradesPerPhrase(t *testing.T) {
	h := &countingHandler{}
	b := newTestBuilder(h)

	rule := &Rule{Name: "degrade"}
	b.When(rule,
		"Item Test_Switch changed from OFF to ON",
		"Time cron not-a-cron",
		"Time is midnight",
	)

	if len(rule.Triggers) != 3 {
		t.Fatalf("trigger list length = %d, want 3", len(rule.Triggers))
	}
	if rule.Triggers[0].Invalid() {
		t.Error("first entry should be valid")
	}
	if !rule.Triggers[1].Invalid() {
		t.Error("second entry should be the sentinel")
	}
	if rule.Triggers[2].Invalid() {
		t.Error("third entry should be valid")
	}
	if !phrase.IsKind(rule.Triggers[1].Err, phrase.MalformedValue) {
		t.Errorf("sentinel error = %v, want MalformedValue", rule.Triggers[1].Err)
	}
	if h.warns != 1 {
		t.Errorf("warning count = %d, want 1", h.warns)
	}
	if rule.Valid() {
		t.Error("rule with a sentinel reports Valid() = true")
	}
}

func TestWhenExpandsGroups(t *testing.T) {
	b := newTestBuilder(&countingHandler{})

	rule := &Rule{Name: "expand"}
	b.When(rule, "Member of gLights changed to ON")

	if len(rule.Triggers) != 3 {
		t.Fatalf("trigger list length = %d, want 3", len(rule.Triggers))
	}
	for i, e := range rule.Triggers {
		if e.Invalid() {
			t.Fatalf("entry %d unexpectedly invalid: %v", i, e.Err)
		}
		if e.Phrase != "Member of gLights changed to ON" {
			t.Errorf("entry %d phrase = %q", i, e.Phrase)
		}
	}
	wantItems := []string{"Kitchen_Light", "Porch_Light", "Bedroom_Light"}
	for i, e := range rule.Triggers {
		if got := e.Descriptor.Config.GetString("itemName"); got != wantItems[i] {
			t.Errorf("entry %d itemName = %q, want %q", i, got, wantItems[i])
		}
	}
}

func TestOnlyIfAttachesConditions(t *testing.T) {
	b := newTestBuilder(&countingHandler{})

	rule := &Rule{Name: "conditions"}
	b.OnlyIf(rule, "Today is not a holiday", "Time 9:00 to 14:00")

	if len(rule.Conditions) != 2 {
		t.Fatalf("condition list length = %d, want 2", len(rule.Conditions))
	}
	if rule.Conditions[0].Descriptor.Type != "ephemeris.NotHolidayCondition" {
		t.Errorf("first condition type = %q", rule.Conditions[0].Descriptor.Type)
	}
	if rule.Conditions[1].Descriptor.Type != "core.TimeOfDayCondition" {
		t.Errorf("second condition type = %q", rule.Conditions[1].Descriptor.Type)
	}
}

func TestCompileExpandsVarsAndNames(t *testing.T) {
	b := newTestBuilder(&countingHandler{})

	def := &config.RuleDef{
		Name:    "lights-on",
		Enabled: true,
		When:    []string{"Member of {{group}} changed to ON", "Time is midnight"},
		OnlyIf:  []string{"Today is not a holiday"},
		Vars:    map[string]string{"group": "gLights"},
	}
	rule := b.Compile(def)

	if !rule.Valid() {
		t.Fatalf("rule invalid: %v", Activatable(rule))
	}
	if len(rule.Triggers) != 4 {
		t.Fatalf("trigger list length = %d, want 4", len(rule.Triggers))
	}
	wantNames := []string{"lights-on-when-0", "lights-on-when-1", "lights-on-when-2", "lights-on-when-3"}
	for i, e := range rule.Triggers {
		if e.Descriptor.Name != wantNames[i] {
			t.Errorf("trigger %d name = %q, want %q", i, e.Descriptor.Name, wantNames[i])
		}
	}
	if rule.Conditions[0].Descriptor.Name != "lights-on-onlyif-0" {
		t.Errorf("condition name = %q", rule.Conditions[0].Descriptor.Name)
	}
}

func TestCompileAllReportsTotals(t *testing.T) {
	b := newTestBuilder(&countingHandler{})

	defs := []*config.RuleDef{
		{Name: "good", Enabled: true, When: []string{"System started"}},
		{Name: "bad", Enabled: true, When: []string{"Gibberish all the way"}},
	}
	report := b.CompileAll(defs)

	if report.Total() != 2 {
		t.Errorf("total = %d, want 2", report.Total())
	}
	if report.Valid() != 1 {
		t.Errorf("valid = %d, want 1", report.Valid())
	}
	if report.Invalid() != 1 {
		t.Errorf("invalid = %d, want 1", report.Invalid())
	}
	if report.Rule("bad") == nil || report.Rule("bad").Valid() {
		t.Error("rule \"bad\" should be present and invalid")
	}
	if report.Rule("missing") != nil {
		t.Error("lookup of unknown rule should return nil")
	}
}

type recordingRegistrar struct {
	registered []string
}

func (r *recordingRegistrar) Register(_ context.Context, rule *Rule) error {
	r.registered = append(r.registered, rule.Name)
	return nil
}

func TestGuardedRegistrarRefusesInvalidRules(t *testing.T) {
	b := newTestBuilder(&countingHandler{})

	good := &Rule{Name: "good"}
	b.When(good, "System started")
	bad := &Rule{Name: "bad"}
	b.When(bad, "System started", "Item Bogus_Item changed")

	inner := &recordingRegistrar{}
	reg := Guarded(inner)

	if err := reg.Register(context.Background(), good); err != nil {
		t.Fatalf("valid rule refused: %v", err)
	}
	err := reg.Register(context.Background(), bad)
	if err == nil {
		t.Fatal("invalid rule was registered")
	}
	var refusal *RefusalError
	if !errors.As(err, &refusal) {
		t.Fatalf("error = %v, want *RefusalError", err)
	}
	if len(refusal.Phrases) != 1 || refusal.Phrases[0] != "Item Bogus_Item changed" {
		t.Errorf("refusal phrases = %v", refusal.Phrases)
	}
	if len(inner.registered) != 1 || inner.registered[0] != "good" {
		t.Errorf("inner registrar saw %v, want only the good rule", inner.registered)
	}
}
