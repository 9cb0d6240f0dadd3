package scales

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize builds the lookup key for a grade label: trim, NFC, lowercase.
// It is applied both when a scale is built and on every lookup, and is idempotent.
func Normalize(v string) string {
	v = strings.TrimSpace(v)
	v = norm.NFC.String(v)
	return strings.ToLower(strings.TrimSpace(v))
}
