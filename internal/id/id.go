// Package id allocates the run-local sequence numbers written into transaction
// records and their continuations.
package id

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	referenceDigits = 7
	referenceMod    = 10_000_000
	internalMod     = 10_000
)

// Sequence hands out 1-based numbers. The zero value is ready to use and each
// conversion owns its own Sequence.
type Sequence struct {
	n int
}

// Next returns the next number, starting at 1.
func (s *Sequence) Next() int {
	s.n++
	return s.n
}

// FormatReference returns a 7-digit reference like "0000001". Numbers wrap modulo 10^7.
func FormatReference(seq int) string {
	return fmt.Sprintf("%0*d", referenceDigits, seq%referenceMod)
}

// FormatInternalCode returns the 4-digit internal code like "0001". Numbers wrap
// modulo 10^4.
func FormatInternalCode(seq int) string {
	return fmt.Sprintf("%04d", seq%internalMod)
}

// ParseReference parses a reference written by FormatReference. Surrounding spaces
// are ignored.
func ParseReference(ref string) (int, error) {
	s := strings.TrimSpace(ref)
	if s == "" {
		return 0, fmt.Errorf("empty reference")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid reference %q: %w", ref, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid reference %q: negative", ref)
	}
	return n, nil
}
