// Package verify checks that a CFONB120 file is structurally sound and that its
// balances close.
package verify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cfonb120/internal/amount"
	"github.com/cleared-dev/cfonb120/internal/id"
	"github.com/cleared-dev/cfonb120/internal/model"
	"github.com/cleared-dev/cfonb120/internal/record"
)

// Rules checked by Check.
const (
	RuleRecordCode   = 1 // every line parses as a known record kind
	RuleFraming      = 2 // one leading 01, one trailing 07
	RuleContinuation = 3 // 05 follows the 04 it continues
	RuleAccount      = 4 // account header identical on every line
	RuleAmount       = 5 // amount fields decode
	RuleBalance      = 6 // opening + sum(04) == closing
	RuleDateOrder    = 7 // 04 operation dates never go backwards
	RuleReference    = 8 // 04 references parse and strictly increase
)

// ValidationError describes a single rule violation. Line is 1-based, 0 for findings
// about the file as a whole.
type ValidationError struct {
	Rule        int
	Line        int
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("rule %d [line %d]: %s", e.Rule, e.Line, e.Description)
}

// Summary is what Check learned about the file.
type Summary struct {
	Identity      model.Identity
	Records       int
	Transactions  int
	Continuations int
	Opening       decimal.Decimal
	Closing       decimal.Decimal
	Total         decimal.Decimal
	From, To      time.Time
}

type parsedLine struct {
	line   int
	kind   record.Kind
	fields map[string]string
}

// Check parses every line by layout and runs the rules in order. In Plain mode amounts
// carry no sign, so the balance rule is skipped.
func Check(lines []string, mode amount.Mode) (Summary, []ValidationError) {
	var (
		errs   []ValidationError
		parsed []parsedLine
	)
	report := func(rule, line int, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, Line: line, Description: fmt.Sprintf(format, args...)})
	}

	sum := Summary{Records: len(lines)}
	if len(lines) == 0 {
		report(RuleFraming, 0, "file has no records")
		return sum, errs
	}

	// Rule 1: known record codes, exact width.
	for i, l := range lines {
		kind, fields, err := record.Parse(l)
		if err != nil {
			report(RuleRecordCode, i+1, "%v", err)
			continue
		}
		parsed = append(parsed, parsedLine{line: i + 1, kind: kind, fields: fields})
	}
	if len(parsed) == 0 {
		return sum, errs
	}

	// Rule 2: framing.
	first, last := parsed[0], parsed[len(parsed)-1]
	if len(parsed) < 2 {
		report(RuleFraming, first.line, "file needs an opening and a closing record")
	} else {
		if first.kind != record.Opening {
			report(RuleFraming, first.line, "first record is %s, want opening", first.kind)
		}
		if last.kind != record.Closing {
			report(RuleFraming, last.line, "last record is %s, want closing", last.kind)
		}
	}
	for _, p := range parsed {
		if p.kind == record.Opening && p.line != first.line {
			report(RuleFraming, p.line, "opening record not at start of file")
		}
		if p.kind == record.Closing && p.line != last.line {
			report(RuleFraming, p.line, "closing record not at end of file")
		}
	}

	// Rule 3: continuations.
	var current *parsedLine
	for i := range parsed {
		p := &parsed[i]
		switch p.kind {
		case record.Transaction:
			current = p
			sum.Transactions++
		case record.LabelContinuation:
			sum.Continuations++
			if current == nil {
				report(RuleContinuation, p.line, "continuation without a preceding transaction")
				continue
			}
			if got, want := p.fields[record.FieldInternalCode], current.fields[record.FieldInternalCode]; got != want {
				report(RuleContinuation, p.line, "continuation internal code %s does not match transaction %s on line %d", got, want, current.line)
			}
		default:
			current = nil
		}
	}

	// Rule 4: account header.
	sum.Identity = identityOf(first.fields)
	places, placesErr := strconv.Atoi(first.fields[record.FieldDecimalPlaces])
	if placesErr != nil {
		report(RuleAccount, first.line, "decimal places %q is not a digit", first.fields[record.FieldDecimalPlaces])
	}
	for _, p := range parsed[1:] {
		if ident := identityOf(p.fields); ident != sum.Identity {
			report(RuleAccount, p.line, "account %s differs from %s on line %d", describe(ident), describe(sum.Identity), first.line)
		}
	}

	// Rule 5: amounts.
	amounts := make(map[int]decimal.Decimal)
	if placesErr == nil {
		for _, p := range parsed {
			if p.kind == record.LabelContinuation {
				continue
			}
			v, err := amount.Decode(p.fields[record.FieldAmount], places, mode)
			if err != nil {
				report(RuleAmount, p.line, "%v", err)
				continue
			}
			amounts[p.line] = v
		}
	}

	sum.Total = decimal.Zero
	totalOK := true
	for _, p := range parsed {
		if p.kind != record.Transaction {
			continue
		}
		v, ok := amounts[p.line]
		if !ok {
			totalOK = false
			continue
		}
		sum.Total = sum.Total.Add(v)
	}
	opening, openingOK := amounts[first.line]
	closing, closingOK := amounts[last.line]
	if first.kind == record.Opening {
		sum.Opening = opening
	}
	if last.kind == record.Closing {
		sum.Closing = closing
	}

	// Rule 6: balance closure.
	if mode == amount.Overpunch && totalOK && openingOK && closingOK &&
		first.kind == record.Opening && last.kind == record.Closing {
		if want := opening.Add(sum.Total); !want.Equal(closing) {
			report(RuleBalance, last.line, "opening %s + transactions %s = %s, closing record has %s",
				opening.StringFixed(int32(places)), sum.Total.StringFixed(int32(places)),
				want.StringFixed(int32(places)), closing.StringFixed(int32(places)))
		}
	}

	// Rule 7: transaction dates.
	var prev time.Time
	prevLine := 0
	for _, p := range parsed {
		if p.kind != record.Transaction {
			continue
		}
		raw := p.fields[record.FieldOperationDate]
		d, err := time.Parse("020106", raw)
		if err != nil {
			report(RuleDateOrder, p.line, "operation date %q is not DDMMYY", raw)
			continue
		}
		if prevLine > 0 && d.Before(prev) {
			report(RuleDateOrder, p.line, "operation date %s is before %s on line %d", raw, prev.Format("020106"), prevLine)
		}
		if sum.From.IsZero() || d.Before(sum.From) {
			sum.From = d
		}
		if d.After(sum.To) {
			sum.To = d
		}
		prev, prevLine = d, p.line
	}

	// Rule 8: transaction references.
	prevRef, prevRefLine := 0, 0
	for _, p := range parsed {
		if p.kind != record.Transaction {
			continue
		}
		ref, err := id.ParseReference(p.fields[record.FieldReference])
		if err != nil {
			report(RuleReference, p.line, "%v", err)
			continue
		}
		if prevRefLine > 0 && ref <= prevRef {
			report(RuleReference, p.line, "reference %s does not follow %s on line %d",
				id.FormatReference(ref), id.FormatReference(prevRef), prevRefLine)
		}
		prevRef, prevRefLine = ref, p.line
	}

	return sum, errs
}

// CheckFile reads path and checks it.
func CheckFile(path string, mode amount.Mode) (Summary, []ValidationError, error) {
	lines, err := ReadFile(path)
	if err != nil {
		return Summary{}, nil, err
	}
	sum, errs := Check(lines, mode)
	return sum, errs, nil
}

func identityOf(fields map[string]string) model.Identity {
	places, _ := strconv.Atoi(fields[record.FieldDecimalPlaces])
	return model.Identity{
		BankCode:      fields[record.FieldBankCode],
		BranchCode:    fields[record.FieldBranchCode],
		AccountNumber: strings.TrimRight(fields[record.FieldAccountNumber], " "),
		Currency:      fields[record.FieldCurrency],
		DecimalPlaces: places,
	}
}

func describe(ident model.Identity) string {
	return fmt.Sprintf("%s/%s/%s %s", ident.BankCode, ident.BranchCode, ident.AccountNumber, ident.Currency)
}
