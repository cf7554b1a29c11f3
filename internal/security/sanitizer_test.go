// internal/security/sanitizer_test.go
package security

import (
	"strings"
	"testing"
)

func TestSanitizePhrase_StripControlChars(t *testing.T) {
	input := "Item\x00 Kitchen_Light\x01 changed\x02 to ON"
	result := SanitizePhrase(input)

	for _, r := range result {
		if r < 0x20 && r != '\t' && r != '\n' {
			t.Errorf("result contains control character 0x%02x", r)
		}
	}
	if !strings.Contains(result, "Kitchen_Light") || !strings.Contains(result, "changed") {
		t.Errorf("readable content should be preserved: %q", result)
	}
}

func TestSanitizePhrase_PreservesTabNewline(t *testing.T) {
	input := "line1\nline2\tcol2"
	result := SanitizePhrase(input)

	if !strings.Contains(result, "\n") {
		t.Error("newlines should be preserved")
	}
	if !strings.Contains(result, "\t") {
		t.Error("tabs should be preserved")
	}
}

func TestSanitizePhrase_StripBackticks(t *testing.T) {
	input := "Item ```injection``` changed"
	result := SanitizePhrase(input)

	if strings.Contains(result, "```") {
		t.Errorf("triple backticks should be stripped: %q", result)
	}
}

func TestSanitizePhrase_TruncateTo1024(t *testing.T) {
	longInput := strings.Repeat("x", 2000)
	result := SanitizePhrase(longInput)

	if len(result) > 1024 {
		t.Errorf("result should be truncated to 1024 bytes, got %d", len(result))
	}
}

func TestSanitizePhrase_Exactly1024(t *testing.T) {
	input := strings.Repeat("a", 1024)
	result := SanitizePhrase(input)

	if len(result) != 1024 {
		t.Errorf("exact 1024-byte input should not be truncated, got %d", len(result))
	}
}

func TestSanitizePhrase_ShortPhraseUnchanged(t *testing.T) {
	input := "System started"
	result := SanitizePhrase(input)

	if result != input {
		t.Errorf("clean phrase should not be modified: %q -> %q", input, result)
	}
}

func TestSanitizePhrase_EmptyString(t *testing.T) {
	if result := SanitizePhrase(""); result != "" {
		t.Errorf("empty string should remain empty: %q", result)
	}
}

func TestSanitizePhrase_CombinedThreats(t *testing.T) {
	input := "\x00```\x01" + strings.Repeat("A", 2000) + "```\x02"
	result := SanitizePhrase(input)

	if len(result) > 1024 {
		t.Errorf("should be truncated, got %d bytes", len(result))
	}
	for _, r := range result {
		if r < 0x20 && r != '\t' && r != '\n' {
			t.Errorf("contains control char 0x%02x", r)
			break
		}
	}
	if strings.Contains(result, "```") {
		t.Error("contains triple backticks")
	}
}

func TestSanitizeVars(t *testing.T) {
	vars := map[string]string{
		"light": "Kitchen\x00_Light",
		"state": "ON",
	}
	out := SanitizeVars(vars)

	if out["light"] != "Kitchen_Light" {
		t.Errorf("light = %q, want %q", out["light"], "Kitchen_Light")
	}
	if out["state"] != "ON" {
		t.Errorf("state = %q, want %q", out["state"], "ON")
	}
	if vars["light"] != "Kitchen\x00_Light" {
		t.Error("input map should not be mutated")
	}
}

func TestSanitizeVars_Nil(t *testing.T) {
	if out := SanitizeVars(nil); out != nil {
		t.Errorf("SanitizeVars(nil) = %v, want nil", out)
	}
}
