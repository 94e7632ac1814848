package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cfonb120/internal/convert"
)

func newBatchCommand(g *globals) *cobra.Command {
	var flags statementFlags
	var inbox, outbox string
	var workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Convert every export in the inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.service(g)
			if err != nil {
				return err
			}

			opts := convert.BatchOptions{
				Root:    g.root(),
				Inbox:   g.cfg.Batch.Inbox,
				Outbox:  g.cfg.Batch.Outbox,
				Workers: g.cfg.Batch.Workers,
			}
			if inbox != "" {
				opts.Inbox = inbox
			}
			if outbox != "" {
				opts.Outbox = outbox
			}
			if workers > 0 {
				opts.Workers = workers
			}

			res, err := svc.ConvertDir(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(res.Outcomes) == 0 {
				fmt.Fprintln(out, "No files to convert")
				return nil
			}
			for _, o := range res.Outcomes {
				if o.Err != nil {
					fmt.Fprintf(out, "FAIL %s: %v\n", o.Input, o.Err)
					continue
				}
				fmt.Fprintf(out, "ok   %s -> %s (%d transactions)\n", o.Input, o.Output, o.Result.Transactions)
			}

			failed := len(res.Failed())
			fmt.Fprintf(out, "%d converted, %d failed\n", len(res.Outcomes)-failed, failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(res.Outcomes))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&inbox, "inbox", "", "inbox directory (overrides config)")
	cmd.Flags().StringVar(&outbox, "outbox", "", "outbox directory (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent conversions (overrides config)")

	return cmd
}
