package lead

import "strings"

// SanitizeRFC strips hyphens and interior spaces and upper-cases the
// tax id. Idempotent: sanitizing an already-sanitized value is a
// no-op. Returns "" for values that sanitize to fewer than
// MinRFCLength characters, so callers treat them as missing.
func SanitizeRFC(raw string) string {
	cleaned := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(raw)))
	if len(cleaned) < MinRFCLength {
		return ""
	}
	return cleaned
}

// asciiFold maps typographic punctuation onto the plain-ASCII forms
// the legacy PDF text layer can encode.
var asciiFold = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // ellipsis
	"•", "-", // bullet
	" ", " ", // no-break space
)

// FoldLatin1 prepares text for a Latin-1 (WinAnsi) output layer:
// typographic punctuation becomes its ASCII equivalent and anything
// still outside the repertoire is replaced with '?'. The output never
// fails merely because the input carried an unsupported symbol.
func FoldLatin1(s string) string {
	s = asciiFold.Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= 0xFF {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
