package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourls/yourls-cli/internal/api"
	"github.com/yourls/yourls-cli/internal/outfmt"
	"github.com/yourls/yourls-cli/internal/validation"
)

const defaultStatsLimit = 10

func newStatsCmd() *cobra.Command {
	var (
		filter string
		limit  int
		start  int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "List links and totals for the whole installation",
		Example: strings.TrimSpace(`
  # Ten most clicked links
  yourls stats --filter top

  # The last 50 links created, as JSON lines
  yourls stats --filter last --limit 50 -o jsonl --jq '.links[]'`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			f, err := validation.ValidateChoice("filter", filter, api.StatsFilters)
			if err != nil {
				return invalidInput(err)
			}
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0")
			}
			if start < 0 {
				return fmt.Errorf("--start must be >= 0")
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			result, _, err := client.Stats(ctx, &api.SearchCriteria{Filter: f, Limit: api.Int(limit), Start: api.Int(start)})
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			if len(result.Links) > 0 {
				if err := writeLinksTable(cmd, result.Links); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out)
			}
			writeTotals(out, result.Stats)
			return nil
		}),
	}

	cmd.Flags().StringVar(&filter, "filter", "top", "Which links to list: top|bottom|rand|last")
	cmd.Flags().IntVarP(&limit, "limit", "l", defaultStatsLimit, "Number of links to list (0 for totals only)")
	cmd.Flags().IntVar(&start, "start", 0, "Offset of the first link")
	flagAlias(cmd.Flags(), "limit", "lim")
	return cmd
}

func newDBStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "db-stats",
		Aliases: []string{"totals"},
		Short:   "Show the total number of links and clicks",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			stats, _, err := client.DB().Stats(ctx)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, stats)
			}
			writeTotals(cmd.OutOrStdout(), stats)
			return nil
		}),
	}
}

func writeLinksTable(cmd *cobra.Command, links []api.Link) error {
	f := newFormatter(cmd)
	f.StartTable([]string{"SHORT URL", "CLICKS", "CREATED", "TITLE", "URL"})
	for _, link := range links {
		f.Row(
			link.ShortURL,
			fmt.Sprintf("%d", link.Clicks),
			link.Timestamp,
			outfmt.Truncate(40, link.Title),
			outfmt.Truncate(60, link.URL),
		)
	}
	return f.EndTable()
}

func writeTotals(w io.Writer, stats *api.Stats) {
	if stats == nil {
		_, _ = fmt.Fprintln(w, "No totals returned")
		return
	}
	_, _ = fmt.Fprintf(w, "Total links:  %d\n", stats.TotalLinks)
	_, _ = fmt.Fprintf(w, "Total clicks: %d\n", stats.TotalClicks)
}
