package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agenthands/platformid/internal/logging"
	"github.com/agenthands/platformid/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}
}

func runServe(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.Build(runCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	defer func() {
		if err := srv.Close(context.Background()); err != nil {
			logger.Warn("close store", slog.Any("error", err))
		}
	}()

	return srv.Run(runCtx)
}
