package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cfonb120/internal/amount"
	"github.com/cleared-dev/cfonb120/internal/verify"
)

func newVerifyCommand(g *globals) *cobra.Command {
	var encoding string

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Check a CFONB120 file for structural and balance errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if encoding == "" {
				encoding = g.cfg.Statement.AmountEncoding
			}
			mode, err := amount.ParseMode(encoding)
			if err != nil {
				return err
			}

			sum, findings, err := verify.CheckFile(args[0], mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			places := int32(g.cfg.Account.DecimalPlaces)
			if sum.Identity.DecimalPlaces > 0 {
				places = int32(sum.Identity.DecimalPlaces)
			}
			fmt.Fprintf(out, "%d records, %d transactions, %d continuations\n",
				sum.Records, sum.Transactions, sum.Continuations)
			if !sum.From.IsZero() {
				fmt.Fprintf(out, "period %s to %s\n", sum.From.Format("2006-01-02"), sum.To.Format("2006-01-02"))
			}
			fmt.Fprintf(out, "opening %s, movements %s, closing %s\n",
				sum.Opening.StringFixed(places), sum.Total.StringFixed(places), sum.Closing.StringFixed(places))

			if len(findings) == 0 {
				fmt.Fprintln(out, "OK")
				return nil
			}
			for _, f := range findings {
				fmt.Fprintln(out, f.Error())
			}
			return fmt.Errorf("%s: %d problems found", args[0], len(findings))
		},
	}

	cmd.Flags().StringVar(&encoding, "amount-encoding", "", "amount encoding of the file: overpunch or plain (default from config)")

	return cmd
}
