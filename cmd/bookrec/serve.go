package main

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/bookrec/internal/di/providers"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := do.Invoke[*providers.APIServerHandle](a.injector)
			if err != nil {
				return err
			}

			cfg := server.Config
			if addr != "" {
				cfg.Addr = addr
			}
			return server.ListenAndServe(cmd.Context(), cfg, server.ShutdownTimeout())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}
