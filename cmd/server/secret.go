package main

import (
	"fmt"

	"line-auth-web/internal/utils"

	"github.com/spf13/cobra"
)

func newSecretCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Print a random value suitable for AUTH_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size < 32 {
				return fmt.Errorf("--bytes must be at least 32, got %d", size)
			}
			s, err := utils.RandomString(size)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "AUTH_SECRET=%s\n", s)
			return err
		},
	}

	cmd.Flags().IntVar(&size, "bytes", 32, "number of random bytes")
	return cmd
}
