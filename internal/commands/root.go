package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cfonb120/internal/buildinfo"
	"github.com/cleared-dev/cfonb120/internal/config"
	"github.com/cleared-dev/cfonb120/internal/logger"
)

// globals holds the persistent flags and what PersistentPreRunE derived from them.
type globals struct {
	configPath string
	envFile    string
	logLevel   string

	cfg *config.Config
	log *slog.Logger
}

// root is the directory that relative inbox and outbox paths are resolved against.
func (g *globals) root() string {
	dir, err := filepath.Abs(filepath.Dir(g.configPath))
	if err != nil {
		return filepath.Dir(g.configPath)
	}
	return dir
}

// load reads cfonb.yaml (defaults when absent), overlays the environment and sets up
// logging on stderr.
func (g *globals) load(cmd *cobra.Command) error {
	if err := config.LoadEnvFile(g.envFile); err != nil {
		return err
	}
	cfg, err := config.LoadOrDefault(g.configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}

	log, err := logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	g.cfg, g.log = cfg, log
	cmd.SetContext(logger.ToContext(cmd.Context(), log))
	return nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "cfonb120",
		Short:   "Convert bank statement exports to CFONB120",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", config.FileName, "path to cfonb.yaml")
	flags.StringVar(&g.envFile, "env-file", "", "load environment variables from this file (default .env when present)")
	flags.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		newInitCommand(),
		newConvertCommand(g),
		newBatchCommand(g),
		newVerifyCommand(g),
		newServeCommand(g),
		newHistoryCommand(g),
		newVersionCommand(),
	)

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			return nil
		},
	}
}
