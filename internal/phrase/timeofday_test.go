// internal/phrase/timeofday_test.go
package phrase

import "testing"

func TestTimeOfDayPhrases(t *testing.T) {
	p := NewOnlyIfParser(testRegistry())

	tests := []struct {
		name   string
		phrase string
		start  string
		end    string
	}{
		{"24 hour with to", "Time 9:00 to 14:00", "9:00", "14:00"},
		{"24 hour with dash", "Time 9:00-14:00", "9:00", "14:00"},
		{"12 hour", "Time 8:00 AM - 5:00 PM", "8:00 AM", "5:00 PM"},
		{"12 hour with seconds", "Time 8:30:15 PM to 11:00 PM", "8:30:15 PM", "11:00 PM"},
		{"late evening", "Time 22:00 to 23:59", "22:00", "23:59"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseOne(t, p, tt.phrase)
			if d.Type != "core.TimeOfDayCondition" {
				t.Fatalf("type = %q", d.Type)
			}
			checkConfig(t, d, [][2]string{
				{"startTime", tt.start},
				{"endTime", tt.end},
			})
		})
	}

	bad := []struct {
		name   string
		phrase string
	}{
		{"bad minutes", "Time 9:61 to 14:00"},
		{"bad hour", "Time 25:00 to 14:00"},
		{"12 hour out of range", "Time 13:00 PM to 14:00"},
		{"no time at all", "Time breakfast to lunch"},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.phrase)
			if !IsKind(err, MalformedValue) {
				t.Errorf("error = %v, want MalformedValue", err)
			}
		})
	}
}
