package verify

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/charmap"

	"github.com/cleared-dev/cfonb120/internal/record"
)

// ReadLines reads fixed-width records, each optionally followed by LF or CRLF, and
// decodes them from ISO-8859-1.
func ReadLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Split(splitRecords(record.Width))

	dec := charmap.ISO8859_1.NewDecoder()
	var lines []string
	for sc.Scan() {
		s, err := dec.Bytes(sc.Bytes())
		if err != nil {
			return nil, fmt.Errorf("record %d: decoding ISO-8859-1: %w", len(lines)+1, err)
		}
		lines = append(lines, string(s))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("record %d: %w", len(lines)+1, err)
	}
	return lines, nil
}

// ReadFile reads the records of the file at path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadLines(f)
}

// splitRecords returns records of exactly n bytes. A record may be terminated by LF or
// CRLF; a trailing SUB (0x1a) at EOF is ignored.
func splitRecords(n int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(dropSub(data)) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			d := dropCR(data[:i])
			if len(d) == n {
				return i + 1, d, nil
			}
			if len(d) == 0 && len(data) == i+1 {
				// trailing blank line
				return len(data), nil, nil
			}
			return 0, nil, fmt.Errorf("%w: line of %d bytes, want %d", record.ErrWidthViolation, len(d), n)
		}
		if len(data) >= n {
			return n, data[:n], nil
		}
		if atEOF {
			return 0, nil, fmt.Errorf("%w: %d trailing bytes at end of file", record.ErrWidthViolation, len(data))
		}
		return 0, nil, nil
	}
}

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[:len(data)-1]
	}
	return data
}

func dropSub(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\x1a' {
		return data[:len(data)-1]
	}
	return data
}
