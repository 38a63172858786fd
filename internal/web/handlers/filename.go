package handlers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/event-gallery/internal/visibility"
)

// removeDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// archiveFilename builds an ASCII download name from the session name,
// e.g. "Svatba Jiří & Eva" -> "svatba-jiri-eva-mine.zip".
func archiveFilename(sessionName string, action visibility.Action) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(removeDiacritics(sessionName)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = "photos"
	}
	if action == visibility.DownloadMine {
		name += "-mine"
	}
	return name + ".zip"
}
