// Package label normalizes free-text labels for the ISO-8859-1 record encoding and
// splits them across continuation records.
package label

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Substitute replaces characters that have no ISO-8859-1 representation.
const Substitute = '?'

// Sanitize collapses whitespace, trims, uppercases and makes text encodable in
// ISO-8859-1. Characters outside the charset are transliterated to their base letters
// when a compatibility decomposition exists (Ÿ -> Y, ﬁ -> FI) and replaced by
// Substitute otherwise.
func Sanitize(text string) string {
	s := strings.ToUpper(strings.Join(strings.Fields(text), " "))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune(Substitute)
			continue
		}
		if Encodable(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteString(transliterate(r))
	}
	return b.String()
}

// Encodable reports whether r has an ISO-8859-1 code point.
func Encodable(r rune) bool {
	_, ok := charmap.ISO8859_1.EncodeRune(r)
	return ok
}

func transliterate(r rune) string {
	var out []rune
	for _, d := range norm.NFKD.String(string(r)) {
		if unicode.Is(unicode.Mn, d) {
			continue
		}
		d = unicode.ToUpper(d)
		if !Encodable(d) || unicode.IsControl(d) || unicode.IsSpace(d) {
			return string(Substitute)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return string(Substitute)
	}
	return string(out)
}

// Chunk splits text into consecutive windows of at most width characters.
// Joining the chunks gives back text unchanged; empty text yields no chunks.
func Chunk(text string, width int) []string {
	if width <= 0 {
		panic(fmt.Sprintf("label: invalid chunk width %d", width))
	}

	r := []rune(text)
	chunks := make([]string, 0, (len(r)+width-1)/width)
	for start := 0; start < len(r); start += width {
		end := min(start+width, len(r))
		chunks = append(chunks, string(r[start:end]))
	}
	return chunks
}

// Split returns the first inline characters of text and the remainder cut into
// chunks of width characters.
func Split(text string, inline, width int) (head string, rest []string) {
	r := []rune(text)
	if len(r) <= inline {
		return text, nil
	}
	return string(r[:inline]), Chunk(string(r[inline:]), width)
}
