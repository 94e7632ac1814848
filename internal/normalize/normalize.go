// Package normalize turns raw export rows into dated, signed transactions and an
// optional opening balance.
package normalize

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cfonb120/internal/model"
)

var (
	// ErrInvalidAmount is returned when a transaction row's amount cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidDate is returned for a date-shaped value that is not a calendar date.
	ErrInvalidDate = errors.New("invalid date")
)

const dateLayout = "02/01/2006"

var datePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// RowKind is the classification of one input row.
type RowKind int

const (
	RowSkip RowKind = iota
	RowSummary
	RowTransaction
)

func (k RowKind) String() string {
	switch k {
	case RowSummary:
		return "summary"
	case RowTransaction:
		return "transaction"
	default:
		return "skip"
	}
}

// Columns maps row positions to the fields the normalizer reads. A negative Amount
// selects the last column of the row; a negative Reference disables references.
type Columns struct {
	Date           int   `yaml:"date"`
	SummaryDate    int   `yaml:"summary_date"`
	OpeningBalance int   `yaml:"opening_balance"`
	Amount         int   `yaml:"amount"`
	Label          []int `yaml:"label"`
	Reference      int   `yaml:"reference"`
}

// DefaultColumns returns the column mapping of the usual French bank export.
func DefaultColumns() Columns {
	return Columns{
		Date:           0,
		SummaryDate:    3,
		OpeningBalance: 5,
		Amount:         4,
		Label:          []int{1, 2, 3},
		Reference:      -1,
	}
}

// Validate rejects mappings that cannot address a row.
func (c Columns) Validate() error {
	if c.Date < 0 {
		return fmt.Errorf("date column %d must not be negative", c.Date)
	}
	if c.SummaryDate < 0 || c.OpeningBalance < 0 {
		return fmt.Errorf("summary columns must not be negative")
	}
	if len(c.Label) == 0 {
		return fmt.Errorf("at least one label column is required")
	}
	for _, l := range c.Label {
		if l < 0 {
			return fmt.Errorf("label column %d must not be negative", l)
		}
	}
	return nil
}

// Result is the output of Normalize.
type Result struct {
	// Opening is the balance from the last summary row, if any parsed.
	Opening decimal.NullDecimal
	// OpeningErr records why a summary balance could not be parsed.
	OpeningErr   error
	Transactions []model.Transaction
	Skipped      int
	Summaries    int
}

// OpeningOrZero returns the opening balance, zero when absent.
func (r Result) OpeningOrZero() decimal.Decimal {
	if r.Opening.Valid {
		return r.Opening.Decimal
	}
	return decimal.Zero
}

// IsDate reports whether s has the strict DD/MM/YYYY shape.
func IsDate(s string) bool {
	return datePattern.MatchString(strings.TrimSpace(s))
}

// Classify decides what a row is from its date columns alone.
func Classify(row []string, cols Columns) RowKind {
	switch {
	case IsDate(cell(row, cols.Date)):
		return RowTransaction
	case IsDate(cell(row, cols.SummaryDate)):
		return RowSummary
	default:
		return RowSkip
	}
}

// Normalize classifies every row and parses transactions in input order.
//
// Every row before the first transaction row is a header and is skipped, summary rows
// included. After that, summary rows set the opening balance and the last parseable one
// wins. An unparsable summary balance is kept in OpeningErr and does not fail the run;
// an unparsable transaction amount or date does.
func Normalize(rows [][]string, cols Columns) (Result, error) {
	var res Result
	started := false
	for i, row := range rows {
		lineNo := i + 1

		kind := Classify(row, cols)
		if !started && kind != RowTransaction {
			res.Skipped++
			continue
		}

		switch kind {
		case RowSummary:
			res.Summaries++
			bal, err := ParseAmount(cell(row, cols.OpeningBalance))
			if err != nil {
				res.OpeningErr = fmt.Errorf("row %d: %w", lineNo, err)
				continue
			}
			res.Opening = decimal.NullDecimal{Decimal: bal, Valid: true}
			res.OpeningErr = nil

		case RowTransaction:
			started = true
			txn, err := parseTransaction(row, cols)
			if err != nil {
				return Result{}, fmt.Errorf("row %d: %w", lineNo, err)
			}
			txn.Row = lineNo
			res.Transactions = append(res.Transactions, txn)

		default:
			res.Skipped++
		}
	}
	return res, nil
}

func parseTransaction(row []string, cols Columns) (model.Transaction, error) {
	raw := strings.TrimSpace(cell(row, cols.Date))
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	amountCol := cols.Amount
	if amountCol < 0 {
		amountCol = len(row) - 1
	}
	amt, err := ParseAmount(cell(row, amountCol))
	if err != nil {
		return model.Transaction{}, err
	}

	var ref string
	if cols.Reference >= 0 {
		ref = strings.TrimSpace(html.UnescapeString(cell(row, cols.Reference)))
	}

	return model.Transaction{
		Date:      date,
		Amount:    amt,
		Label:     joinLabel(row, cols.Label),
		Reference: ref,
	}, nil
}

func joinLabel(row []string, label []int) string {
	parts := make([]string, 0, len(label))
	for _, c := range label {
		v := strings.TrimSpace(html.UnescapeString(cell(row, c)))
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// ParseAmount parses a locale-formatted decimal: comma decimal separator, space,
// non-breaking space or narrow non-breaking space digit grouping.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, raw)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
