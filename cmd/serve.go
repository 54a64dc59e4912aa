// File: cmd/serve.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/internal/config"
	"github.com/graphchat/text2cypher/internal/observability"
	"github.com/graphchat/text2cypher/internal/server"
	"github.com/graphchat/text2cypher/internal/service"
)

// newServeCmd creates and configures the `serve` command.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API: chat, text2cypher, accounts and graph stats",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("failed to unmarshal config with flag overrides: %w", err)
			}

			app, err := service.Build(ctx, &cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Shutdown(ctx)

			srv := server.New(app)
			if err := srv.Start(ctx); err != nil {
				logger.Error("HTTP server failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	serveCmd.Flags().String("addr", "", "Listen address, e.g. :8000. (Overrides config/env)")
	return serveCmd
}
