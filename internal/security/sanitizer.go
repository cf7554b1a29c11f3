// internal/security/sanitizer.go
package security

import "strings"

// maxPhraseLen bounds phrases accepted over HTTP and MCP.
const maxPhraseLen = 1024

// SanitizePhrase cleans an externally supplied phrase before it
// reaches the parser or the logs:
//   - strips control characters (0x00-0x1F except tab and newline)
//   - strips triple-backtick fences
//   - truncates to 1024 bytes
func SanitizePhrase(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' {
			continue
		}
		b.WriteRune(r)
	}
	result := strings.ReplaceAll(b.String(), "```", "")

	if len(result) > maxPhraseLen {
		result = result[:maxPhraseLen]
	}

	return result
}

// SanitizeVars sanitizes every value of a template variable map,
// returning a new map. Keys are passed through untouched since they
// must already match placeholder syntax to have any effect.
func SanitizeVars(vars map[string]string) map[string]string {
	if vars == nil {
		return nil
	}
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = SanitizePhrase(v)
	}
	return out
}
