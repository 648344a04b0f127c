// Copyright 2024-2026 Aiku AI

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/directory"
	"github.com/dev-launchers/Slack-Message-Exchange/pkg/relay"
)

func newLookupCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Query the configured registry",
	}

	withBackend := func(run func(cmd *cobra.Command, cfg *relay.Config, b *backend, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := relay.Load(opts.configPath)
			if err != nil {
				return err
			}
			b, err := openBackend(cfg)
			if err != nil {
				return fmt.Errorf("failed to open %s registry: %w", cfg.Registry.Backend, err)
			}
			defer b.close()
			return run(cmd, cfg, b, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "channel <channel id>",
		Short: "Show the destination a source channel relays to",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(func(cmd *cobra.Command, _ *relay.Config, b *backend, args []string) error {
			mapping, found, err := b.registry.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), relay.ReasonNoDestination)
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(mapping)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "user <directory> <user id>",
		Short: "Show the display name a user is relayed under",
		Args:  cobra.ExactArgs(2),
		RunE: withBackend(func(cmd *cobra.Command, cfg *relay.Config, b *backend, args []string) error {
			ids := directory.NewIdentities(b.users, cfg.FormatPlaceholder)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), ids.Resolve(cmd.Context(), args[0], args[1]))
			return err
		}),
	})
	return cmd
}
