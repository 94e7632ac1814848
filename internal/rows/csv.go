package rows

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultDelimiter is the field separator of French bank exports.
const DefaultDelimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads delimited text. Input that is not valid UTF-8 is decoded as
// Windows-1252.
type CSVSource struct {
	Delimiter rune
}

// Format returns the source name.
func (s *CSVSource) Format() string { return "csv" }

// Extensions returns the handled file extensions.
func (s *CSVSource) Extensions() []string { return []string{".csv", ".txt"} }

// Match never claims data by content; CSV is chosen by extension.
func (s *CSVSource) Match(data []byte) bool { return false }

// Read parses every record. Rows may have different lengths.
func (s *CSVSource) Read(data []byte) ([][]string, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.Comma = s.delimiter()
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return records, nil
}

func (s *CSVSource) delimiter() rune {
	if s.Delimiter == 0 {
		return DefaultDelimiter
	}
	return s.Delimiter
}

func toUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding Windows-1252: %w", err)
	}
	return out, nil
}
