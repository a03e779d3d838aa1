package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "line-auth-web",
		Short: "LINE Login gated web front end",
		// Running without a subcommand serves.
		RunE:         runServe,
		SilenceUsage: true,
		Version:      version,
	}

	root.AddCommand(newServeCmd(), newSecretCmd())
	return root
}
