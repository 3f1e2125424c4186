package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/pivot/server"
)

func newServeCmd(a *app) *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dataset over the HTTP API",
		Long: `Serve the dataset over the HTTP API.

Routes:
  GET    /api/fields
  POST   /api/pivot                    render a posted configuration
  POST   /api/pivot/export/{format}
  GET    /api/configs
  GET    /api/configs/{name}
  PUT    /api/configs/{name}
  DELETE /api/configs/{name}
  POST   /api/configs/{name}/pivot     render a saved configuration (?format=)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			ds, sch, err := src.load(ctx, a)
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(ctx, a)
			if err != nil {
				return err
			}
			defer closeStore()

			srv := server.New(ds, sch, store, server.Options{
				Addr:            a.cfg.Addr(),
				ReadTimeout:     a.cfg.Server.ReadTimeout,
				WriteTimeout:    a.cfg.Server.WriteTimeout,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				MaxBodyBytes:    a.cfg.Server.MaxBodyBytes,
				EngineOptions:   a.engineOptions(),
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(gctx)
			})
			g.Go(func() error {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				defer signal.Stop(sigCh)

				select {
				case sig := <-sigCh:
					a.logger.Info("signal received", "signal", sig.String())
					cancel()
				case <-gctx.Done():
				}
				return nil
			})
			return g.Wait()
		},
	}

	src.register(cmd, true)
	return cmd
}
