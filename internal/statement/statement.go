// Package statement assembles normalized transactions into the ordered CFONB120
// record list: one opening record, each transaction with its continuations, and one
// closing record.
package statement

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cfonb120/internal/amount"
	"github.com/cleared-dev/cfonb120/internal/id"
	"github.com/cleared-dev/cfonb120/internal/label"
	"github.com/cleared-dev/cfonb120/internal/model"
	"github.com/cleared-dev/cfonb120/internal/record"
)

// ErrNoTransactions is returned when there is nothing to put in a statement.
var ErrNoTransactions = errors.New("no transactions")

// Qualifiers written in continuation records.
const (
	QualifierLabel     = "LIB"
	QualifierReference = "REF"
)

const dateLayout = "020106"

// Options controls how a statement is laid out.
type Options struct {
	Identity    model.Identity
	BalanceMode model.BalanceMode
	Encoding    amount.Mode
}

// Result is an assembled statement.
type Result struct {
	Records   []record.Record
	Statement model.Statement
	Closing   decimal.Decimal
	// Continuations counts the 05 records emitted.
	Continuations int
}

// Assemble sorts txns by date (stable), derives both balances and emits records.
//
// In BalanceOpening mode (the default) balance is the start-of-period balance; in BalanceClosing
// mode it is the end-of-period balance and the opening is derived from it. Amounts are
// encoded here so that an overflow aborts the whole statement. An empty Encoding means
// amount.Overpunch. The balance and every amount are rounded half-up to the identity's
// decimal places first, so the encoded records always close. The input slice is not
// modified.
func Assemble(balance decimal.Decimal, txns []model.Transaction, opts Options) (Result, error) {
	if len(txns) == 0 {
		return Result{}, ErrNoTransactions
	}

	if opts.Encoding == "" {
		opts.Encoding = amount.Overpunch
	}

	places := int32(opts.Identity.DecimalPlaces)
	balance = balance.Round(places)
	sorted := slices.Clone(txns)
	for i := range sorted {
		sorted[i].Amount = sorted[i].Amount.Round(places)
	}
	slices.SortStableFunc(sorted, func(a, b model.Transaction) int {
		return a.Date.Compare(b.Date)
	})

	st := model.Statement{Opening: balance, Transactions: sorted}
	switch opts.BalanceMode {
	case model.BalanceOpening, "":
	case model.BalanceClosing:
		st.Opening = balance.Sub(st.Total())
	default:
		return Result{}, fmt.Errorf("unknown balance mode %q", opts.BalanceMode)
	}
	closing := st.Closing()

	a := assembler{opts: opts}
	first, last := sorted[0].Date, sorted[len(sorted)-1].Date

	if err := a.balance(record.Opening, first, st.Opening); err != nil {
		return Result{}, fmt.Errorf("opening balance: %w", err)
	}
	for _, txn := range sorted {
		if err := a.transaction(txn); err != nil {
			return Result{}, fmt.Errorf("transaction from row %d: %w", txn.Row, err)
		}
	}
	if err := a.balance(record.Closing, last, closing); err != nil {
		return Result{}, fmt.Errorf("closing balance: %w", err)
	}

	return Result{
		Records:       a.records,
		Statement:     st,
		Closing:       closing,
		Continuations: a.continuations,
	}, nil
}

// assembler holds the state of one Assemble call. The sequence is never shared
// between calls.
type assembler struct {
	opts          Options
	seq           id.Sequence
	records       []record.Record
	continuations int
}

func (a *assembler) header(kind record.Kind) map[string]string {
	ident := a.opts.Identity
	return map[string]string{
		record.FieldRecordCode:    kind.Code(),
		record.FieldBankCode:      ident.BankCode,
		record.FieldBranchCode:    ident.BranchCode,
		record.FieldCurrency:      ident.Currency,
		record.FieldDecimalPlaces: strconv.Itoa(ident.DecimalPlaces),
		record.FieldAccountNumber: ident.AccountNumber,
	}
}

func (a *assembler) encode(kind record.Kind, v decimal.Decimal) (string, error) {
	width := record.FieldWidth(kind, record.FieldAmount)
	return amount.Encode(v, a.opts.Identity.DecimalPlaces, width, a.opts.Encoding)
}

func (a *assembler) balance(kind record.Kind, date time.Time, v decimal.Decimal) error {
	amt, err := a.encode(kind, v)
	if err != nil {
		return err
	}
	fields := a.header(kind)
	fields[record.FieldDate] = date.Format(dateLayout)
	fields[record.FieldAmount] = amt
	a.records = append(a.records, record.Record{Kind: kind, Fields: fields})
	return nil
}

func (a *assembler) transaction(txn model.Transaction) error {
	amt, err := a.encode(record.Transaction, txn.Amount)
	if err != nil {
		return err
	}

	seq := a.seq.Next()
	date := txn.Date.Format(dateLayout)
	text := label.Sanitize(txn.Label)
	inline := record.FieldWidth(record.Transaction, record.FieldLabel)
	chunkWidth := record.FieldWidth(record.LabelContinuation, record.FieldAdditionalInfo)
	head, rest := label.Split(text, inline, chunkWidth)

	fields := a.header(record.Transaction)
	fields[record.FieldInternalCode] = id.FormatInternalCode(seq)
	fields[record.FieldOperationDate] = date
	fields[record.FieldValueDate] = date
	fields[record.FieldLabel] = head
	fields[record.FieldReference] = id.FormatReference(seq)
	fields[record.FieldAmount] = amt
	a.records = append(a.records, record.Record{Kind: record.Transaction, Fields: fields})

	for _, chunk := range rest {
		a.continuation(seq, date, QualifierLabel, chunk)
	}
	if ref := label.Sanitize(txn.Reference); ref != "" {
		for _, chunk := range label.Chunk(ref, chunkWidth) {
			a.continuation(seq, date, QualifierReference, chunk)
		}
	}
	return nil
}

func (a *assembler) continuation(seq int, date, qualifier, text string) {
	fields := a.header(record.LabelContinuation)
	fields[record.FieldInternalCode] = id.FormatInternalCode(seq)
	fields[record.FieldOperationDate] = date
	fields[record.FieldQualifier] = qualifier
	fields[record.FieldAdditionalInfo] = text
	a.records = append(a.records, record.Record{Kind: record.LabelContinuation, Fields: fields})
	a.continuations++
}

// Render assembles and renders the statement to 120-character lines.
func Render(balance decimal.Decimal, txns []model.Transaction, opts Options) ([]string, Result, error) {
	res, err := Assemble(balance, txns, opts)
	if err != nil {
		return nil, Result{}, err
	}
	lines, err := record.RenderAll(res.Records)
	if err != nil {
		return nil, Result{}, err
	}
	return lines, res, nil
}
