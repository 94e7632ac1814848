package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cfonb120/internal/account"
	"github.com/cleared-dev/cfonb120/internal/config"
	"github.com/cleared-dev/cfonb120/internal/rows"
	"github.com/cleared-dev/cfonb120/internal/runlog"
)

func newInitCommand() *cobra.Command {
	var iban string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a conversion workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, iban, force)
		},
	}

	cmd.Flags().StringVar(&iban, "iban", "", "French IBAN of the account")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing "+config.FileName)

	return cmd
}

func runInit(out io.Writer, dir, iban string, force bool) error {
	cfg := config.Default()
	if iban != "" {
		if _, err := account.ParseIBAN(iban); err != nil {
			return err
		}
		cfg.Account.IBAN = iban
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	dirs := []string{
		cfg.Batch.Inbox,
		filepath.Join(cfg.Batch.Inbox, rows.ProcessedDir),
		cfg.Batch.Outbox,
		filepath.Dir(runlog.Path("")),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := cfg.Batch.Outbox + "/\n" + cfg.Batch.Inbox + "/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Fprintf(out, "Initialized cfonb120 workspace at %s\n", dir)
	return nil
}
