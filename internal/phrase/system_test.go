// internal/phrase/system_test.go
package phrase

import "testing"

func TestSystemStartPhrases(t *testing.T) {
	p := NewWhenParser(testRegistry())

	t.Run("started", func(t *testing.T) {
		d := parseOne(t, p, "System started")
		if d.Type != "core.SystemStartlevelTrigger" {
			t.Fatalf("type = %q", d.Type)
		}
		v, ok := d.Config.Get("startlevel")
		if !ok {
			t.Fatal("startlevel missing from config")
		}
		if level, ok := v.(int); !ok || level != 40 {
			t.Errorf("startlevel = %v (%T), want 40", v, v)
		}
	})

	t.Run("explicit level", func(t *testing.T) {
		d := parseOne(t, p, "System reached start level 50")
		v, _ := d.Config.Get("startlevel")
		if level, ok := v.(int); !ok || level != 50 {
			t.Errorf("startlevel = %v (%T), want 50", v, v)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		d := parseOne(t, p, "system STARTED")
		if d.Type != "core.SystemStartlevelTrigger" {
			t.Errorf("type = %q", d.Type)
		}
	})

	t.Run("unknown shape", func(t *testing.T) {
		_, err := p.Parse("System shuts down")
		if !IsKind(err, NoMatchingGrammar) {
			t.Errorf("error = %v, want NoMatchingGrammar", err)
		}
	})
}
