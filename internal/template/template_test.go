// internal/template/template_test.go
package template

import (
	"reflect"
	"testing"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		vars   map[string]string
		want   string
	}{
		{
			name:   "simple replacement",
			phrase: "Item {{light}} changed to ON",
			vars:   map[string]string{"light": "Kitchen_Light"},
			want:   "Item Kitchen_Light changed to ON",
		},
		{
			name:   "multiple replacements",
			phrase: "Item {{light}} changed from {{off}} to {{on}}",
			vars:   map[string]string{"light": "Porch_Light", "off": "OFF", "on": "ON"},
			want:   "Item Porch_Light changed from OFF to ON",
		},
		{
			name:   "missing variable stays in place",
			phrase: "Item {{light}} changed",
			vars:   map[string]string{},
			want:   "Item {{light}} changed",
		},
		{
			name:   "no placeholders",
			phrase: "Time is midnight",
			vars:   map[string]string{"unused": "value"},
			want:   "Time is midnight",
		},
		{
			name:   "repeated placeholder",
			phrase: "{{g}} and {{g}}",
			vars:   map[string]string{"g": "gLights"},
			want:   "gLights and gLights",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expand(tt.phrase, tt.vars)
			if got != tt.want {
				t.Errorf("Expand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandAll(t *testing.T) {
	vars := map[string]string{"group": "gLights"}
	phrases := []string{
		"Member of {{group}} changed",
		"Time is midnight",
	}
	want := []string{
		"Member of gLights changed",
		"Time is midnight",
	}
	if got := ExpandAll(phrases, vars); !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandAll() = %v, want %v", got, want)
	}

	if got := ExpandAll(nil, vars); got != nil {
		t.Errorf("ExpandAll(nil) = %v, want nil", got)
	}
}
