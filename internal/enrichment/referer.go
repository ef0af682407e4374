// Package enrichment normalizes raw visit attributes before they are
// attached to click records.
package enrichment

import "strings"

// DirectSource is the referrer value recorded when a visit arrives without
// a referrer header.
const DirectSource = "direct"

// NormalizeReferer returns the referrer string to record for a visit:
// the caller-supplied value as-is, or "direct" when it is absent.
func NormalizeReferer(referer string) string {
	trimmed := strings.TrimSpace(referer)
	if trimmed == "" {
		return DirectSource
	}
	return trimmed
}
