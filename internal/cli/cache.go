package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the featured articles cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached featured list",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string) error {
			n := opts.app.Cache().Clear(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries.\n", n)
			return nil
		}),
	})
	return cmd
}
