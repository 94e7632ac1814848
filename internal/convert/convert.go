// Package convert runs the whole pipeline: read rows, normalize, assemble, render and
// write a CFONB120 statement.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cfonb120/internal/account"
	"github.com/cleared-dev/cfonb120/internal/amount"
	"github.com/cleared-dev/cfonb120/internal/config"
	"github.com/cleared-dev/cfonb120/internal/logger"
	"github.com/cleared-dev/cfonb120/internal/model"
	"github.com/cleared-dev/cfonb120/internal/normalize"
	"github.com/cleared-dev/cfonb120/internal/output"
	"github.com/cleared-dev/cfonb120/internal/record"
	"github.com/cleared-dev/cfonb120/internal/rows"
	"github.com/cleared-dev/cfonb120/internal/statement"
)

// Options is everything a conversion needs besides its input.
type Options struct {
	Identity    model.Identity
	BalanceMode model.BalanceMode
	Encoding    amount.Mode
	LineEnding  output.LineEnding
	Columns     normalize.Columns
	Delimiter   rune
}

// OptionsFromConfig resolves and validates the account identity and statement
// settings of cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	acct := cfg.Account
	ident, err := account.Resolve(acct.IBAN, model.Identity{
		BankCode:      acct.BankCode,
		BranchCode:    acct.BranchCode,
		AccountNumber: acct.AccountNumber,
		Currency:      acct.Currency,
		DecimalPlaces: acct.DecimalPlaces,
	})
	if err != nil {
		return Options{}, err
	}

	mode, err := model.ParseBalanceMode(cfg.Statement.BalanceMode)
	if err != nil {
		return Options{}, err
	}
	enc, err := amount.ParseMode(cfg.Statement.AmountEncoding)
	if err != nil {
		return Options{}, err
	}
	ending, err := output.ParseLineEnding(cfg.Statement.LineEnding)
	if err != nil {
		return Options{}, err
	}
	if err := cfg.Columns.Validate(); err != nil {
		return Options{}, fmt.Errorf("columns: %w", err)
	}
	delim, err := cfg.DelimiterRune()
	if err != nil {
		return Options{}, err
	}

	return Options{
		Identity:    ident,
		BalanceMode: mode,
		Encoding:    enc,
		LineEnding:  ending,
		Columns:     cfg.Columns,
		Delimiter:   delim,
	}, nil
}

// Result describes one conversion.
type Result struct {
	RunID         string
	Format        string
	Lines         []string
	Data          []byte
	Transactions  int
	Records       int
	Continuations int
	Skipped       int
	Opening       decimal.Decimal
	Closing       decimal.Decimal
	// OpeningErr is set when a summary row was found but its balance did not parse.
	OpeningErr error
}

// Service converts exports with fixed options.
type Service struct {
	opts     Options
	registry *rows.Registry
}

// NewService creates a Service reading the formats of rows.DefaultRegistry.
func NewService(opts Options) *Service {
	return &Service{opts: opts, registry: rows.DefaultRegistry(opts.Delimiter)}
}

// Options returns the service settings.
func (s *Service) Options() Options { return s.opts }

// Registry returns the row sources the service reads.
func (s *Service) Registry() *rows.Registry { return s.registry }

// WithOptions returns a Service sharing the registry but using opts.
func (s *Service) WithOptions(opts Options) *Service {
	return &Service{opts: opts, registry: s.registry}
}

// Convert turns an export into CFONB120 bytes. filename is only used to pick the
// row source when the content does not identify it.
func (s *Service) Convert(ctx context.Context, filename string, data []byte) (*Result, error) {
	runID := uuid.New().String()
	log := logger.FromContext(ctx).With("run_id", runID, "input", filepath.Base(filename))

	raw, src, err := s.registry.ReadFile(filename, data)
	if err != nil {
		return nil, err
	}

	norm, err := normalize.Normalize(raw, s.opts.Columns)
	if err != nil {
		return nil, err
	}
	if norm.OpeningErr != nil {
		log.Warn("opening balance unreadable, using zero", "error", norm.OpeningErr)
	}
	if norm.Skipped > 0 {
		log.Debug("rows skipped", "count", norm.Skipped)
	}

	lines, asm, err := statement.Render(norm.OpeningOrZero(), norm.Transactions, statement.Options{
		Identity:    s.opts.Identity,
		BalanceMode: s.opts.BalanceMode,
		Encoding:    s.opts.Encoding,
	})
	if err != nil {
		return nil, err
	}

	out, err := output.Encode(lines, record.Width, s.opts.LineEnding)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:         runID,
		Format:        src.Format(),
		Lines:         lines,
		Data:          out,
		Transactions:  len(norm.Transactions),
		Records:       len(lines),
		Continuations: asm.Continuations,
		Skipped:       norm.Skipped,
		Opening:       asm.Statement.Opening,
		Closing:       asm.Closing,
		OpeningErr:    norm.OpeningErr,
	}
	log.Info("statement converted",
		"format", res.Format,
		"transactions", res.Transactions,
		"records", res.Records,
		"skipped", res.Skipped,
		"closing", res.Closing.StringFixed(int32(s.opts.Identity.DecimalPlaces)))
	return res, nil
}

// ConvertFile converts the file at input and writes the statement atomically to
// outputPath. Nothing is written when the conversion fails.
func (s *Service) ConvertFile(ctx context.Context, input, outputPath string) (*Result, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	res, err := s.Convert(ctx, input, data)
	if err != nil {
		return nil, err
	}
	if err := output.WriteFile(outputPath, res.Data); err != nil {
		return nil, err
	}
	return res, nil
}
