package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var (
		lang       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search TERM...",
		Short: "Search Wikipedia articles",
		Args:  cobra.MinimumNArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string) error {
			result, err := opts.app.Search().Search(cmd.Context(), strings.Join(args, " "), lang)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			w := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintf(w, "No results for %q.\n", result.Term)
				return nil
			}
			for _, item := range result.Items {
				fmt.Fprintf(w, "%d. %s\n", item.Index, item.Title)
				if item.Text != "" {
					fmt.Fprintf(w, "   %s\n", item.Text)
				}
				fmt.Fprintf(w, "   %s\n", item.Link)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "wikipedia language code")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
