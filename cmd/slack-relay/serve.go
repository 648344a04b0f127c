// Copyright 2024-2026 Aiku AI

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/directory"
	"github.com/dev-launchers/Slack-Message-Exchange/pkg/relay"
	"github.com/dev-launchers/Slack-Message-Exchange/pkg/telemetry"
	"github.com/dev-launchers/Slack-Message-Exchange/pkg/workspace"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the event endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := relay.Load(opts.configPath)
			if err != nil {
				return err
			}
			log, err := cfg.Logging.Compile()
			if err != nil {
				return fmt.Errorf("failed to configure logging: %w", err)
			}
			zerolog.DefaultContextLogger = log

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, *log)
		},
	}
}

// backend is the opened channel registry and user table.
type backend struct {
	registry relay.ChannelRegistry
	users    directory.UserTable
	close    func() error
}

func openBackend(cfg *relay.Config) (*backend, error) {
	switch cfg.Registry.Backend {
	case relay.BackendRedis:
		store, err := directory.NewRedisStore(cfg.Registry.RedisURL, cfg.Registry.KeyPrefix)
		if err != nil {
			return nil, err
		}
		return &backend{registry: store, users: store, close: store.Close}, nil
	default:
		static := directory.NewStatic(cfg.Channels, cfg.Users)
		return &backend{registry: static, users: static, close: func() error { return nil }}, nil
	}
}

func newRelay(cfg *relay.Config, b *backend) *relay.Relay {
	return relay.New(relay.Deps{
		Registry:   b.registry,
		Identities: directory.NewIdentities(b.users, cfg.FormatPlaceholder),
		Source: workspace.NewSource(cfg.Source.BotToken, workspace.Options{
			APIURL: cfg.Source.APIURL,
		}),
		Destination: workspace.NewDestination(cfg.Destination.BotToken, cfg.Destination.UserToken, workspace.Options{
			APIURL: cfg.Destination.APIURL,
		}),
		Webhook:  workspace.NewWebhook(nil),
		Reporter: telemetry.New(cfg.Telemetry, nil),
	}, relay.Options{
		BotDisplayName: cfg.BotDisplayName,
		FileBaseURL:    cfg.FileBaseURL,
	})
}

func serve(ctx context.Context, cfg *relay.Config, log zerolog.Logger) error {
	if cfg.Source.BotToken == "" {
		log.Warn().Msg("No source bot token configured, file relays will fail")
	}
	if cfg.Destination.BotToken == "" {
		log.Warn().Msg("No destination bot token configured, file relays will fail")
	}

	b, err := openBackend(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s registry: %w", cfg.Registry.Backend, err)
	}
	defer func() {
		if err := b.close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close registry")
		}
	}()

	srv := relay.NewServer(cfg, newRelay(cfg, b), log)
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.ListenAddr).
			Str("registry", cfg.Registry.Backend).
			Int("endpoints", len(cfg.Endpoints)).
			Msg("Starting slack-relay")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
