// Package fixedwidth justifies values into fixed-width positional fields.
package fixedwidth

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Alignment is the edge a value is justified against.
type Alignment int

const (
	// Left justifies against the start of the field; fill goes on the right.
	Left Alignment = iota
	// Right justifies against the end of the field; fill goes on the left.
	Right
)

func (a Alignment) String() string {
	if a == Right {
		return "right"
	}
	return "left"
}

// Format returns value justified into exactly width characters.
//
// Values longer than width are truncated without error, keeping the characters
// nearest the aligned edge: a left-aligned field loses its rightmost characters and a
// right-aligned field loses its leftmost ones. This is lossy for text and must never
// be used to fit a monetary amount; amounts are sized by the amount encoder, which
// fails instead.
func Format(value string, width int, align Alignment, fill rune) string {
	if width <= 0 {
		panic(fmt.Sprintf("fixedwidth: invalid width %d", width))
	}

	r := []rune(value)
	if len(r) > width {
		if align == Right {
			r = r[len(r)-width:]
		} else {
			r = r[:width]
		}
	}

	pad := strings.Repeat(string(fill), width-len(r))
	if align == Right {
		return pad + string(r)
	}
	return string(r) + pad
}

// Width returns the number of characters in s.
func Width(s string) int {
	return utf8.RuneCountInString(s)
}
