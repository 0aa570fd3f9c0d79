package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brettbedarf/projfs/config"
	"github.com/brettbedarf/projfs/filesystem"
	"github.com/brettbedarf/projfs/internal/util"
	"github.com/brettbedarf/projfs/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the project root over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd, os.Stdout); err != nil {
				return err
			}
			return runServe(cmd.Context(), opts.cfg)
		},
	}
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", config.DefaultAddr, "Listen address (env "+config.EnvAddr+" or "+config.EnvPort+")")
	return cmd
}

// runServe blocks until the server fails or a termination signal arrives,
// then shuts down gracefully.
func runServe(ctx context.Context, cfg *config.Config) error {
	logger := util.GetLogger("main")

	fs, err := filesystem.NewFS(cfg)
	if err != nil {
		return err
	}
	srv := server.New(cfg, fs)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("Received signal, shutting down")
	}

	timeout := time.Duration(cfg.ShutdownTimeout * float64(time.Second))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		return err
	}
	logger.Info().Msg("Server stopped")
	return <-errCh
}
