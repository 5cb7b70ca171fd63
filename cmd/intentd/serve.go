package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/daqi-oss/intentd/internal/httpapi"
	"github.com/daqi-oss/intentd/internal/obslog"
	"github.com/daqi-oss/intentd/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the intent pipeline as an HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		f, err := buildFacade(cfg)
		if err != nil {
			return err
		}

		logger := obslog.New("intentd", cfg.Logging.Format, cfg.Logging.Debug)

		if cfg.Telemetry.Enabled {
			ctx := context.Background()
			provider, err := telemetry.NewProvider(ctx, telemetry.Config{
				ServiceName: "intentd",
				Endpoint:    cfg.Telemetry.Endpoint,
				Insecure:    true,
			}, logger)
			if err != nil {
				return fmt.Errorf("start telemetry: %w", err)
			}
			defer provider.Shutdown(ctx)
		}

		handler := httpapi.NewHandler(f, logger)

		logger.Info("starting intentd", map[string]interface{}{
			"listen":          cfgListen,
			"history_backend": cfg.History.Backend,
		})
		fmt.Fprintf(cmd.OutOrStdout(), "intentd listening on %s\n", cfgListen)
		return http.ListenAndServe(cfgListen, handler.Mux())
	},
}
