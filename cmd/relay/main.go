package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"parley/internal/relay"
)

func main() {
	var (
		configPath string
		listen     string
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "relay",
		Short: "Run the parley relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := relay.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = relay.New(cfg, log).ListenAndServe(ctx)
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("relay shut down")
				return nil
			}
			return err
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	root.Flags().StringVar(&listen, "listen", "", "TCP listen address (overrides config)")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
