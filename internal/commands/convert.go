package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cfonb120/internal/config"
	"github.com/cleared-dev/cfonb120/internal/convert"
	"github.com/cleared-dev/cfonb120/internal/output"
)

// statementFlags override the statement settings of cfonb.yaml. Empty values keep the
// configured ones.
type statementFlags struct {
	iban           string
	balanceMode    string
	amountEncoding string
	lineEnding     string
	delimiter      string
}

func (f *statementFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.iban, "iban", "", "French IBAN of the account (overrides config)")
	cmd.Flags().StringVar(&f.balanceMode, "balance-mode", "", "meaning of the summary balance: opening or closing")
	cmd.Flags().StringVar(&f.amountEncoding, "amount-encoding", "", "amount encoding: overpunch or plain")
	cmd.Flags().StringVar(&f.lineEnding, "line-ending", "", "record terminator: lf or crlf")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter")
}

func (f *statementFlags) apply(cfg *config.Config) {
	if f.iban != "" {
		cfg.Account.IBAN = f.iban
	}
	if f.balanceMode != "" {
		cfg.Statement.BalanceMode = f.balanceMode
	}
	if f.amountEncoding != "" {
		cfg.Statement.AmountEncoding = f.amountEncoding
	}
	if f.lineEnding != "" {
		cfg.Statement.LineEnding = f.lineEnding
	}
	if f.delimiter != "" {
		cfg.Input.Delimiter = f.delimiter
	}
}

// service builds a conversion service from the loaded config and the flags.
func (f *statementFlags) service(g *globals) (*convert.Service, error) {
	f.apply(g.cfg)
	opts, err := convert.OptionsFromConfig(g.cfg)
	if err != nil {
		return nil, err
	}
	return convert.NewService(opts), nil
}

func newConvertCommand(g *globals) *cobra.Command {
	var flags statementFlags
	var outPath string

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a CSV or XLSX statement export to CFONB120",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.service(g)
			if err != nil {
				return err
			}

			input := args[0]
			if outPath == "" {
				outPath = output.PathFor(filepath.Dir(input), input)
			}

			res, err := svc.ConvertFile(cmd.Context(), input, outPath)
			if err != nil {
				return fmt.Errorf("converting %s: %w", input, err)
			}

			if res.OpeningErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: opening balance unreadable, used 0: %v\n", res.OpeningErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default <input>.cfo next to the input)")

	return cmd
}
