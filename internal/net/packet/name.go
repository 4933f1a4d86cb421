package packet

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// MaxNameRunes caps display names after normalization.
const MaxNameRunes = 24

// NormalizeName canonicalizes a player-supplied display name: NFC, fullwidth
// ASCII folded to narrow, control characters dropped, surrounding space
// trimmed, truncated to MaxNameRunes. An empty result falls back to
// "Captain <id>".
func NormalizeName(raw string, id ClientID) string {
	s := width.Fold.String(norm.NFC.String(raw))
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsControl(r) {
			continue
		}
		if n == MaxNameRunes {
			break
		}
		b.WriteRune(r)
		n++
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return fmt.Sprintf("Captain %d", id)
	}
	return out
}
