// internal/phrase/cron.go
package phrase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

var (
	cronMacroRe = regexp.MustCompile(`^@(annually|yearly|monthly|weekly|daily|hourly|reboot)$`)
	cronYearRe  = regexp.MustCompile(`^(?:\?|\*|\*/\d+|\d{4}(?:-\d{4})?(?:/\d+)?)$`)

	cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
)

// ValidateCron checks a Quartz-style schedule expression: one of the @
// macros, or 6 whitespace-separated fields at seconds resolution with an
// optional 7th year field. The 6 time fields are checked by the cron
// parser; the year field only has to look like a year term.
func ValidateCron(expr string) error {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "@") {
		if !cronMacroRe.MatchString(expr) {
			return fmt.Errorf("unknown schedule macro %q", expr)
		}
		return nil
	}

	fields := strings.Fields(expr)
	switch len(fields) {
	case 6:
		_, err := cronParser.Parse(expr)
		return err
	case 7:
		if !cronYearRe.MatchString(fields[6]) {
			return fmt.Errorf("invalid year field %q", fields[6])
		}
		_, err := cronParser.Parse(strings.Join(fields[:6], " "))
		return err
	default:
		return fmt.Errorf("expected 6 or 7 fields, got %d", len(fields))
	}
}
