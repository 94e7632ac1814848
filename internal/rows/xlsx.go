package rows

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads the first sheet of an Excel workbook.
type XLSXSource struct{}

// Format returns the source name.
func (s *XLSXSource) Format() string { return "xlsx" }

// Extensions returns the handled file extensions.
func (s *XLSXSource) Extensions() []string { return []string{".xlsx"} }

// Match reports whether data starts with the zip signature.
func (s *XLSXSource) Match(data []byte) bool { return isZip(data) }

// Read returns the displayed cell values of the first sheet.
func (s *XLSXSource) Read(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return rows, nil
}
