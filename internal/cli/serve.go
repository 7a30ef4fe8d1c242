package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tOgg1/visitwatch/internal/visitd"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var opts visitd.Options
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the subject service",
		Long:  "Run the HTTP subject service backed by the local SQLite database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rt, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&opts.DatabasePath, "db", "", "database file (default <data_dir>/visitwatch.db)")
	return cmd
}

func runServe(ctx context.Context, rt *runtime, opts visitd.Options) error {
	logger := rt.logger("visitd")
	if err := rt.cfg.EnsureDirectories(); err != nil {
		logger.Warn().Err(err).Msg("failed to create directories")
	}

	daemon, err := visitd.New(ctx, rt.cfg, logger, opts)
	if err != nil {
		return Exitf(ExitCodeFailure, "start subject service: %w", err)
	}
	defer daemon.Close()

	if err := daemon.Run(ctx); err != nil {
		return Exitf(ExitCodeFailure, "subject service: %w", err)
	}
	return nil
}
