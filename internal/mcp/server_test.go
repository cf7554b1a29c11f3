// internal/mcp/server_test.go
package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testInventory = `
items:
  - name: Kitchen_Light
    kind: Switch
    label: Kitchen ceiling light
  - name: Porch_Light
    kind: Switch
    label: Porch lantern
  - name: gLights
    kind: Group
    members: [Kitchen_Light, Porch_Light]
things:
  - uid: kodi:kodi:familyroom
    label: Family room Kodi
channels:
  - uid: astro:sun:home:rise#event
    kind: trigger
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	invPath := filepath.Join(dir, "inventory.yaml")
	if err := os.WriteFile(invPath, []byte(testInventory), 0644); err != nil {
		t.Fatal(err)
	}

	rulesDir := filepath.Join(dir, "rules")
	if err := os.MkdirAll(rulesDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeRule(t, rulesDir, "good.yaml", `
name: porch-light
when:
  - Item Porch_Light changed to ON
only_if:
  - Time 22:00-23:59
`)
	writeRule(t, rulesDir, "bad.yaml", `
name: broken
when:
  - Time cron not-a-cron
`)

	server, err := NewServer(Options{
		RegistryPath:  filepath.Join(dir, "registry.db"),
		InventoryPath: invPath,
		RulesDir:      rulesDir,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

func writeRule(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewServer_RequiresRegistry(t *testing.T) {
	_, err := NewServer(Options{RulesDir: t.TempDir()})
	if err == nil {
		t.Error("NewServer() without registry or inventory should fail")
	}
}

func TestParsePhraseTool(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	t.Run("trigger", func(t *testing.T) {
		_, out, err := server.handleParsePhrase(ctx, nil, ParsePhraseInput{
			Phrase: "Item Porch_Light changed to ON",
		})
		if err != nil {
			t.Fatalf("handleParsePhrase() error = %v", err)
		}
		if out.Count != 1 {
			t.Fatalf("count = %d, want 1", out.Count)
		}
		d := out.Descriptors[0]
		if d.Type != "core.ItemStateChangeTrigger" {
			t.Errorf("type = %q, want core.ItemStateChangeTrigger", d.Type)
		}
		if len(d.Config) != 2 || d.Config[0].Key != "itemName" || d.Config[1].Value != "ON" {
			t.Errorf("unexpected config: %+v", d.Config)
		}
	})

	t.Run("group expansion", func(t *testing.T) {
		_, out, err := server.handleParsePhrase(ctx, nil, ParsePhraseInput{
			Phrase: "Member of gLights received update",
		})
		if err != nil {
			t.Fatalf("handleParsePhrase() error = %v", err)
		}
		if out.Count != 2 {
			t.Errorf("count = %d, want 2 (one per member)", out.Count)
		}
	})

	t.Run("condition kind", func(t *testing.T) {
		_, out, err := server.handleParsePhrase(ctx, nil, ParsePhraseInput{
			Phrase: "Today is a holiday",
			Kind:   "condition",
		})
		if err != nil {
			t.Fatalf("handleParsePhrase() error = %v", err)
		}
		if out.Count != 1 || out.Descriptors[0].Type != "ephemeris.HolidayCondition" {
			t.Errorf("unexpected result: %+v", out)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, _, err := server.handleParsePhrase(ctx, nil, ParsePhraseInput{
			Phrase: "System started",
			Kind:   "action",
		})
		if err == nil {
			t.Error("expected error for unknown phrase kind")
		}
	})

	t.Run("unparseable phrase", func(t *testing.T) {
		_, out, err := server.handleParsePhrase(ctx, nil, ParsePhraseInput{
			Phrase: "Quantum flux detected",
		})
		if err != nil {
			t.Fatalf("handleParsePhrase() error = %v", err)
		}
		if out.FailureKind != "no_matching_grammar" {
			t.Errorf("failure kind = %q, want no_matching_grammar", out.FailureKind)
		}
		if out.Count != 0 || len(out.Descriptors) != 0 {
			t.Errorf("failed parse should carry no descriptors: %+v", out)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		_, out, err := server.handleParsePhrase(ctx, nil, ParsePhraseInput{
			Phrase: "Item No_Such_Item changed to ON",
		})
		if err != nil {
			t.Fatalf("handleParsePhrase() error = %v", err)
		}
		if out.FailureKind != "invalid_reference" {
			t.Errorf("failure kind = %q, want invalid_reference", out.FailureKind)
		}
	})
}

func TestCheckRulesTool(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	t.Run("all rules", func(t *testing.T) {
		_, out, err := server.handleCheckRules(ctx, nil, CheckRulesInput{})
		if err != nil {
			t.Fatalf("handleCheckRules() error = %v", err)
		}
		if out.Total != 2 || out.Valid != 1 || out.Invalid != 1 {
			t.Errorf("totals = %d/%d/%d, want 2/1/1", out.Total, out.Valid, out.Invalid)
		}
		for _, r := range out.Rules {
			if r.Name == "broken" {
				if r.Valid {
					t.Error("broken rule reported valid")
				}
				if len(r.Problems) != 1 || !strings.Contains(r.Problems[0], "Time cron not-a-cron") {
					t.Errorf("unexpected problems: %v", r.Problems)
				}
			}
			if r.Name == "porch-light" && (r.Triggers != 1 || r.Conditions != 1) {
				t.Errorf("porch-light counts = %d/%d, want 1/1", r.Triggers, r.Conditions)
			}
		}
	})

	t.Run("single rule", func(t *testing.T) {
		_, out, err := server.handleCheckRules(ctx, nil, CheckRulesInput{Rule: "porch-light"})
		if err != nil {
			t.Fatalf("handleCheckRules() error = %v", err)
		}
		if out.Total != 1 || out.Valid != 1 {
			t.Errorf("totals = %d/%d, want 1/1", out.Total, out.Valid)
		}
	})

	t.Run("missing rule", func(t *testing.T) {
		_, _, err := server.handleCheckRules(ctx, nil, CheckRulesInput{Rule: "no-such-rule"})
		if err == nil {
			t.Error("expected error for unknown rule name")
		}
	})
}

func TestSearchItemsTool(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleSearchItems(ctx, nil, SearchItemsInput{Query: "kitchen"})
	if err != nil {
		t.Fatalf("handleSearchItems() error = %v", err)
	}
	if out.Count == 0 {
		t.Fatal("expected at least one match for 'kitchen'")
	}
	found := false
	for _, it := range out.Items {
		if it.Name == "Kitchen_Light" {
			found = true
		}
	}
	if !found {
		t.Errorf("Kitchen_Light not in results: %+v", out.Items)
	}
}

func TestSearchItemsTool_InventoryOnly(t *testing.T) {
	dir := t.TempDir()
	invPath := filepath.Join(dir, "inventory.yaml")
	if err := os.WriteFile(invPath, []byte(testInventory), 0644); err != nil {
		t.Fatal(err)
	}

	server, err := NewServer(Options{InventoryPath: invPath, RulesDir: dir})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	defer server.Close()

	_, _, err = server.handleSearchItems(context.Background(), nil, SearchItemsInput{Query: "kitchen"})
	if err == nil {
		t.Error("expected error when no registry database is configured")
	}
}
