// internal/phrase/schedule_test.go
package phrase

import "testing"

func TestCronPhrases(t *testing.T) {
	p := NewWhenParser(testRegistry())

	tests := []struct {
		name   string
		phrase string
		expr   string
	}{
		{"raw expression", "Time cron 0 0 6 * * ?", "0 0 6 * * ?"},
		{"midnight", "Time is midnight", "0 0 0 * * ?"},
		{"noon", "Time is noon", "0 0 12 * * ?"},
		{"macro", "Time cron @daily", "@daily"},
		{"uppercase instant", "Time is MIDNIGHT", "0 0 0 * * ?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseOne(t, p, tt.phrase)
			if d.Type != "timer.GenericCronTrigger" {
				t.Fatalf("type = %q", d.Type)
			}
			checkConfig(t, d, [][2]string{{"cronExpression", tt.expr}})
		})
	}

	t.Run("invalid expression", func(t *testing.T) {
		_, err := p.Parse("Time cron not-a-cron")
		if !IsKind(err, MalformedValue) {
			t.Errorf("error = %v, want MalformedValue", err)
		}
	})
}

func TestDateTimePhrases(t *testing.T) {
	p := NewWhenParser(testRegistry())

	t.Run("item reference", func(t *testing.T) {
		d := parseOne(t, p, "Time is Sunrise_Time")
		if d.Type != "timer.DateTimeTrigger" {
			t.Fatalf("type = %q", d.Type)
		}
		checkConfig(t, d, [][2]string{{"itemName", "Sunrise_Time"}})
	})

	t.Run("time only", func(t *testing.T) {
		d := parseOne(t, p, "Time is Alarm_Clock [timeOnly]")
		checkConfig(t, d, [][2]string{
			{"itemName", "Alarm_Clock"},
			{"timeOnly", "true"},
		})
		v, _ := d.Config.Get("timeOnly")
		if b, ok := v.(bool); !ok || !b {
			t.Errorf("timeOnly = %v (%T), want true", v, v)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := p.Parse("Time is Missing_Item")
		if !IsKind(err, InvalidReference) {
			t.Errorf("error = %v, want InvalidReference", err)
		}
	})
}
