// Copyright 2024-2026 Aiku AI

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/relay"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "slack-relay",
		Short: "Relay Slack messages and files between two workspaces",
		Long: `slack-relay receives Slack event payloads, skips the relay's own posts and
forwards user messages and file shares into the destination workspace
configured for each source channel.`,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", Tag, Commit, BuildTime),
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the config file")

	cmd.AddCommand(
		newServeCmd(opts),
		newLookupCmd(opts),
		newExampleConfigCmd(),
	)
	return cmd
}

func newExampleConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "example-config",
		Short: "Print the example config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), relay.ExampleConfig)
			return err
		},
	}
}
