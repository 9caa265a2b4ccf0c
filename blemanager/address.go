package blemanager

import (
	"regexp"
	"strings"
)

var macLike = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)

// NormalizeAddress puts a platform address into one comparable form: MACs
// (Linux, Windows) become upper case with colons, anything else (macOS
// UUIDs) is just upper-cased. Config entries and scan results are compared
// this way.
func NormalizeAddress(raw string) string {
	raw = strings.TrimSpace(raw)
	if macLike.MatchString(raw) {
		raw = strings.ReplaceAll(raw, "-", ":")
	}
	return strings.ToUpper(raw)
}
