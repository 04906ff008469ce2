package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourls/yourls-cli/internal/api"
)

func newExpandCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:     "expand <short-url-or-keyword>",
		Aliases: []string{"x"},
		Short:   "Show the long URL behind a short URL",
		Example: strings.TrimSpace(`
  yourls expand https://sho.rt/abc
  yourls expand abc --jq .longurl`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			short := strings.TrimSpace(args[0])
			if short == "" {
				return invalidInput(fmt.Errorf("short URL or keyword is required"))
			}

			client, res, err := newClientFactory().connect()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			backend, closeCache := openCache(ctx, res.URL, expandCacheTTL)
			defer closeCache()
			key := "expand:" + short

			var result api.ExpandResult
			if refresh || !backend.Get(ctx, key, &result) {
				fetched, _, err := client.URL(short).Expand(ctx)
				if err != nil {
					return err
				}
				if fetched.LongURL == "" {
					return fmt.Errorf("server returned no long URL for %s", short)
				}
				result = *fetched
				backend.Put(ctx, key, result)
			}

			if isJSON(cmd) {
				return printJSON(cmd, result)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.LongURL)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cache and ask the server")
	return cmd
}

func newURLStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "url-stats <short-url-or-keyword>",
		Aliases: []string{"us"},
		Short:   "Show click statistics for one short URL",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			short := strings.TrimSpace(args[0])
			if short == "" {
				return invalidInput(fmt.Errorf("short URL or keyword is required"))
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			link, _, err := client.URL(short).Stats(ctx)
			if err != nil {
				return err
			}
			if link == nil {
				return fmt.Errorf("server returned no statistics for %s", short)
			}

			if isJSON(cmd) {
				return printJSON(cmd, link)
			}
			w := newTabWriter(cmd.OutOrStdout())
			_, _ = fmt.Fprintf(w, "Short URL:\t%s\n", link.ShortURL)
			_, _ = fmt.Fprintf(w, "Long URL:\t%s\n", link.URL)
			if link.Title != "" {
				_, _ = fmt.Fprintf(w, "Title:\t%s\n", link.Title)
			}
			_, _ = fmt.Fprintf(w, "Clicks:\t%d\n", link.Clicks)
			_, _ = fmt.Fprintf(w, "Created:\t%s\n", link.Timestamp)
			if link.IP != "" {
				_, _ = fmt.Fprintf(w, "Created from:\t%s\n", link.IP)
			}
			return w.Flush()
		}),
	}
}
