package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newWarmCommand(opts *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Pre-fill the featured cache for every scheduled language",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string) error {
			day, err := parseDateFlag(date, opts)
			if err != nil {
				return err
			}
			if day.IsZero() {
				day = time.Now()
			}

			w := cmd.OutOrStdout()
			for _, r := range opts.app.Warmer().Warm(cmd.Context(), day) {
				fmt.Fprintf(w, "%s\t%s\t%d articles\n", r.Language, r.Status, len(r.Data))
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar day as YYYY-MM-DD (default today)")
	return cmd
}
