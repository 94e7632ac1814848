package commands

import (
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cfonb120/internal/server"
)

func newServeCommand(g *globals) *cobra.Command {
	var flags statementFlags
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.service(g)
			if err != nil {
				return err
			}
			if port == "" {
				port = g.cfg.Server.Port
			}

			srv := server.New(svc, server.Options{
				RequestsPerSecond: g.cfg.Server.RequestsPerSecond,
				Burst:             g.cfg.Server.Burst,
				CacheTTL:          g.cfg.Server.CacheTTL,
				MaxUploadBytes:    g.cfg.Server.MaxUploadBytes,
			}, g.log)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Listen(ctx, net.JoinHostPort("", port))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides config)")

	return cmd
}
