package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datacatalog/internal/server"
)

func (a *app) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog HTTP API",
		Long: "Serve the catalog over HTTP until interrupted. Mutating requests\n" +
			"must carry the " + server.HeaderUser + " header.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if addr == "" {
				addr = rt.settings.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(rt.store, rt.catalog, rt.transfer, rt.logger)
			srv.MountHandlers()
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return sysErrorf("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config server.addr, :8080)")
	return cmd
}
