package main

import (
	"context"
	"os/signal"
	"syscall"

	"codetree/internal/server"
	"codetree/internal/store"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge tree to MCP clients over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	watch := cfg.Watch
	if cmd.Flags().Changed("watch") {
		watch, _ = cmd.Flags().GetBool("watch")
	}
	if watch {
		if err := st.Watch(ctx); err != nil {
			logger.WithError(err).Warn("Failed to start file watcher")
		}
	}

	return server.New(st, cfg, logger, Version).Run(ctx)
}

// openStore opens the knowledge tree the configuration points at.
func openStore(ctx context.Context) (*store.Store, error) {
	dir, err := cfg.TreeDir()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, dir, logger)
}
