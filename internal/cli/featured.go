package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/featured"
)

func newFeaturedCommand(opts *rootOptions) *cobra.Command {
	var (
		date       string
		lang       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "featured",
		Short: "Show the most viewed articles of a day",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string) error {
			day, err := parseDateFlag(date, opts)
			if err != nil {
				return err
			}

			result := opts.app.Featured().Fetch(cmd.Context(), day, lang)
			if jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				printFeatured(cmd.OutOrStdout(), result)
			}

			if result.Status == domain.StatusError {
				return fmt.Errorf("featured: %s", result.Message)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar day as YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "wikipedia language code")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func parseDateFlag(value string, opts *rootOptions) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := featured.ParseDay(value, opts.app.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", value)
	}
	return day, nil
}

func printFeatured(w io.Writer, result domain.FetchResult) {
	switch result.Status {
	case domain.StatusNoData:
		fmt.Fprintf(w, "No trending data for %s (%s).\n", result.RequestedDate, result.Language)
		return
	case domain.StatusError:
		fmt.Fprintf(w, "Error: %s\n", result.Message)
		return
	}

	source := "resolved " + result.ResolvedDate
	if result.FromCache {
		source = "cached"
	}
	fmt.Fprintf(w, "Trending on %s.wikipedia.org for %s (%s)\n\n", result.Language, result.RequestedDate, source)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tVIEWS\tTITLE\tLINK")
	for _, a := range result.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", a.Rank, a.ViewsFormatted, a.Title, a.Link)
	}
	_ = tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
