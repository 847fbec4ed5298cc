package main

import (
	"fmt"

	"github.com/leonardotrapani/thirdeye/internal/backend"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/provider"
	"github.com/spf13/cobra"
)

func backendCmd() *cobra.Command {
	var listen string
	var providerName string
	var model string
	var speech bool

	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Run the description service and camera proxy",
		Long: `Runs the HTTP service the capture loop talks to:
  POST /analyze               describe a base64 image, optionally with speech audio
  GET  /fetch-arduino-image   proxy a snapshot from the network camera
  GET  /health                service status
  GET  /metrics               Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			flags := cmd.Flags()
			if flags.Changed("listen") {
				cfg.Backend.Listen = listen
			}
			if flags.Changed("provider") {
				cfg.Backend.Provider = providerName
				if p := provider.GetProvider(providerName); p != nil && !flags.Changed("model") {
					cfg.Backend.Model = p.DefaultVisionModel()
				}
			}
			if flags.Changed("model") {
				cfg.Backend.Model = model
			}
			if flags.Changed("speech") {
				cfg.Backend.Speech = speech
			}

			if err := cfg.ValidateBackend(); err != nil {
				return fmt.Errorf("invalid backend config: %w", err)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			srv, err := backend.New(ctx, cfg.ToBackendConfig())
			if err != nil {
				return fmt.Errorf("failed to create backend: %w", err)
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides backend.listen)")
	cmd.Flags().StringVar(&providerName, "provider", "", "vision provider: gemini, openai, groq")
	cmd.Flags().StringVar(&model, "model", "", "vision model (defaults to the provider's default)")
	cmd.Flags().BoolVar(&speech, "speech", false, "attach synthesized audio to descriptions")

	return cmd
}
