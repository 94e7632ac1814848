// Package record holds the CFONB120 layout table and builds and parses 120-character
// records from it. Byte positions live only in the layout table.
package record

import (
	"fmt"

	"github.com/cleared-dev/cfonb120/internal/fixedwidth"
)

// Width is the length of every CFONB120 record, terminator excluded.
const Width = 120

// Kind identifies one of the four record layouts.
type Kind int

const (
	Opening Kind = iota + 1
	Transaction
	LabelContinuation
	Closing
)

var kindCodes = map[Kind]string{
	Opening:           "01",
	Transaction:       "04",
	LabelContinuation: "05",
	Closing:           "07",
}

// Code returns the two-digit record code written at the start of the line.
func (k Kind) Code() string {
	return kindCodes[k]
}

func (k Kind) String() string {
	switch k {
	case Opening:
		return "opening"
	case Transaction:
		return "transaction"
	case LabelContinuation:
		return "label-continuation"
	case Closing:
		return "closing"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindFromCode maps a record code ("01", "04", "05", "07") to its Kind.
func KindFromCode(code string) (Kind, bool) {
	for k, c := range kindCodes {
		if c == code {
			return k, true
		}
	}
	return 0, false
}

// Field names used in the layouts.
const (
	FieldRecordCode     = "record_code"
	FieldBankCode       = "bank_code"
	FieldInternalCode   = "internal_code"
	FieldBranchCode     = "branch_code"
	FieldCurrency       = "currency"
	FieldDecimalPlaces  = "decimal_places"
	FieldAccountNumber  = "account_number"
	FieldOperationCode  = "operation_code"
	FieldDate           = "date"
	FieldOperationDate  = "operation_date"
	FieldRejectCode     = "reject_code"
	FieldValueDate      = "value_date"
	FieldLabel          = "label"
	FieldReference      = "reference"
	FieldExemptCode     = "exempt_code"
	FieldAmount         = "amount"
	FieldQualifier      = "qualifier"
	FieldAdditionalInfo = "additional_info"
)

// Field describes one positional field: characters [Start, End) of the record.
type Field struct {
	Name  string
	Start int
	End   int
	Align fixedwidth.Alignment
	Fill  rune
}

// Width returns End - Start.
func (f Field) Width() int { return f.End - f.Start }

// Layout is the ordered field list of one record kind.
type Layout struct {
	Kind   Kind
	Fields []Field
}

func text(name string, start, end int) Field {
	return Field{Name: name, Start: start, End: end, Align: fixedwidth.Left, Fill: ' '}
}

func numeric(name string, start, end int) Field {
	return Field{Name: name, Start: start, End: end, Align: fixedwidth.Right, Fill: '0'}
}

func filler(start, end int) Field {
	return text(fmt.Sprintf("filler_%d", start), start, end)
}

// balanceFields is shared by the opening (01) and closing (07) records.
func balanceFields() []Field {
	return []Field{
		text(FieldRecordCode, 0, 2),
		numeric(FieldBankCode, 2, 7),
		filler(7, 11),
		numeric(FieldBranchCode, 11, 16),
		text(FieldCurrency, 16, 19),
		numeric(FieldDecimalPlaces, 19, 20),
		filler(20, 21),
		text(FieldAccountNumber, 21, 32),
		filler(32, 34),
		text(FieldDate, 34, 40),
		filler(40, 90),
		numeric(FieldAmount, 90, 104),
		filler(104, 120),
	}
}

var layouts = map[Kind]Layout{
	Opening: {Kind: Opening, Fields: balanceFields()},
	Transaction: {Kind: Transaction, Fields: []Field{
		text(FieldRecordCode, 0, 2),
		numeric(FieldBankCode, 2, 7),
		numeric(FieldInternalCode, 7, 11),
		numeric(FieldBranchCode, 11, 16),
		text(FieldCurrency, 16, 19),
		numeric(FieldDecimalPlaces, 19, 20),
		filler(20, 21),
		text(FieldAccountNumber, 21, 32),
		text(FieldOperationCode, 32, 34),
		text(FieldOperationDate, 34, 40),
		text(FieldRejectCode, 40, 42),
		text(FieldValueDate, 42, 48),
		text(FieldLabel, 48, 79),
		filler(79, 81),
		numeric(FieldReference, 81, 88),
		text(FieldExemptCode, 88, 89),
		filler(89, 90),
		numeric(FieldAmount, 90, 104),
		filler(104, 120),
	}},
	LabelContinuation: {Kind: LabelContinuation, Fields: []Field{
		text(FieldRecordCode, 0, 2),
		numeric(FieldBankCode, 2, 7),
		numeric(FieldInternalCode, 7, 11),
		numeric(FieldBranchCode, 11, 16),
		text(FieldCurrency, 16, 19),
		numeric(FieldDecimalPlaces, 19, 20),
		filler(20, 21),
		text(FieldAccountNumber, 21, 32),
		text(FieldOperationCode, 32, 34),
		text(FieldOperationDate, 34, 40),
		filler(40, 45),
		text(FieldQualifier, 45, 48),
		text(FieldAdditionalInfo, 48, 118),
		filler(118, 120),
	}},
	Closing: {Kind: Closing, Fields: balanceFields()},
}

func init() {
	for _, l := range orderedLayouts() {
		if err := l.Validate(); err != nil {
			panic(err)
		}
	}
}

func orderedLayouts() []Layout {
	return []Layout{layouts[Opening], layouts[Transaction], layouts[LabelContinuation], layouts[Closing]}
}

// Validate checks that fields are contiguous, non-empty, uniquely named and span
// exactly Width characters.
func (l Layout) Validate() error {
	if len(l.Fields) == 0 {
		return fmt.Errorf("layout %s: no fields", l.Kind)
	}
	seen := make(map[string]bool, len(l.Fields))
	pos := 0
	for _, f := range l.Fields {
		if f.Start != pos {
			return fmt.Errorf("layout %s: field %s starts at %d, want %d", l.Kind, f.Name, f.Start, pos)
		}
		if f.End <= f.Start {
			return fmt.Errorf("layout %s: field %s has empty range [%d,%d)", l.Kind, f.Name, f.Start, f.End)
		}
		if seen[f.Name] {
			return fmt.Errorf("layout %s: duplicate field %s", l.Kind, f.Name)
		}
		seen[f.Name] = true
		pos = f.End
	}
	if pos != Width {
		return fmt.Errorf("layout %s: fields span %d characters, want %d", l.Kind, pos, Width)
	}
	return nil
}

// Field returns the descriptor named name.
func (l Layout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldWidth returns the width of field name in layout k, or 0 when absent.
func FieldWidth(k Kind, name string) int {
	l, ok := layouts[k]
	if !ok {
		return 0
	}
	f, ok := l.Field(name)
	if !ok {
		return 0
	}
	return f.Width()
}

// Format justifies raw values into their descriptor widths. Names the layout does
// not know are returned unchanged so that Build can reject them.
func (l Layout) Format(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for name, v := range values {
		f, ok := l.Field(name)
		if !ok {
			out[name] = v
			continue
		}
		out[name] = fixedwidth.Format(v, f.Width(), f.Align, f.Fill)
	}
	return out
}
