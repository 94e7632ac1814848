// Package output writes CFONB120 lines as ISO-8859-1 text.
package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// LineEnding is the record terminator.
type LineEnding string

const (
	LF   LineEnding = "lf"
	CRLF LineEnding = "crlf"
)

// ParseLineEnding parses "lf" or "crlf" (case-insensitive). Empty means LF.
func ParseLineEnding(s string) (LineEnding, error) {
	switch LineEnding(strings.ToLower(strings.TrimSpace(s))) {
	case LF, "":
		return LF, nil
	case CRLF:
		return CRLF, nil
	default:
		return "", fmt.Errorf("unknown line ending %q (want lf or crlf)", s)
	}
}

// Terminator returns the bytes written after each record.
func (e LineEnding) Terminator() string {
	if e == CRLF {
		return "\r\n"
	}
	return "\n"
}

// Encode joins lines with the terminator and converts them to ISO-8859-1. Every line
// must be exactly width characters; width <= 0 disables the check.
func Encode(lines []string, width int, ending LineEnding) ([]byte, error) {
	enc := charmap.ISO8859_1.NewEncoder()
	term := ending.Terminator()

	var buf bytes.Buffer
	for i, line := range lines {
		if width > 0 {
			if n := utf8.RuneCountInString(line); n != width {
				return nil, fmt.Errorf("line %d is %d characters, want %d", i+1, n, width)
			}
		}
		b, err := enc.String(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: encoding ISO-8859-1: %w", i+1, err)
		}
		buf.WriteString(b)
		buf.WriteString(term)
	}
	return buf.Bytes(), nil
}

// WriteFile writes data to path atomically: a temporary file in the same directory is
// synced and renamed over path. On failure no partial file is left behind.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// PathFor returns the output path for an input file: its base name with a .cfo
// extension, inside dir.
func PathFor(dir, input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+".cfo")
}
