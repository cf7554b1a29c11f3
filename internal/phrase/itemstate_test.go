// internal/phrase/itemstate_test.go
package phrase

import "testing"

func TestItemStateConditionOperators(t *testing.T) {
	p := NewOnlyIfParser(testRegistry())

	tests := []struct {
		spelling string
		op       string
	}{
		{"=", "="},
		{"==", "="},
		{"eq", "="},
		{"equals", "="},
		{"is", "="},
		{"!=", "!="},
		{"not equals", "!="},
		{"is not", "!="},
		{"<", "<"},
		{"lt", "<"},
		{"is less than", "<"},
		{"<=", "<="},
		{"lte", "<="},
		{"is less than or equal", "<="},
		{">", ">"},
		{"gt", ">"},
		{"is greater than", ">"},
		{">=", ">="},
		{"gte", ">="},
		{"is greater than or equal", ">="},
	}
	for _, tt := range tests {
		t.Run(tt.spelling, func(t *testing.T) {
			d := parseOne(t, p, "Item Test_Switch "+tt.spelling+" ON")
			if d.Type != "core.ItemStateCondition" {
				t.Fatalf("type = %q", d.Type)
			}
			checkConfig(t, d, [][2]string{
				{"itemName", "Test_Switch"},
				{"operator", tt.op},
				{"state", "ON"},
			})
		})
	}
}

func TestItemStateConditionValues(t *testing.T) {
	p := NewOnlyIfParser(testRegistry())

	t.Run("quoted state", func(t *testing.T) {
		d := parseOne(t, p, "Item Test_Switch equals 'spaced out'")
		if got := d.Config.GetString("state"); got != "spaced out" {
			t.Errorf("state = %q, want %q", got, "spaced out")
		}
	})

	t.Run("numeric comparison", func(t *testing.T) {
		d := parseOne(t, p, "Item Outside_Temp is greater than 20")
		checkConfig(t, d, [][2]string{
			{"itemName", "Outside_Temp"},
			{"operator", ">"},
			{"state", "20"},
		})
	})

	t.Run("missing state", func(t *testing.T) {
		_, err := p.Parse("Item Test_Switch equals")
		if !IsKind(err, MalformedValue) {
			t.Errorf("error = %v, want MalformedValue", err)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := p.Parse("Item Missing_Item equals ON")
		if !IsKind(err, InvalidReference) {
			t.Errorf("error = %v, want InvalidReference", err)
		}
	})
}
