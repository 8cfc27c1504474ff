package main

import (
	"context"
	"errors"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpTransport "github.com/kailas-cloud/collabmatch/internal/transport/mcp"
	"github.com/kailas-cloud/collabmatch/internal/version"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve recommendation tools over MCP (stdio transport)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol; zap writes to stderr.
			cfg, logger, err := setup("")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApplication(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			mcpSrv := mcpTransport.NewServer(mcpTransport.Deps{
				Recommender: a.recommend,
				Directory:   a.profiles,
				Version:     version.Version,
				Logger:      logger,
			})

			logger.Info("MCP server started (stdio transport)")
			err = server.NewStdioServer(mcpSrv).Listen(cmd.Context(), os.Stdin, os.Stdout)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("MCP stdio server error", zap.Error(err))
				return err
			}
			return nil
		},
	}
}
