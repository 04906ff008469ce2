package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourls/yourls-cli/internal/api"
	"github.com/yourls/yourls-cli/internal/resolve"
	"github.com/yourls/yourls-cli/internal/since"
)

const defaultLinksScan = 1000

type linkMatch struct {
	api.Link
	Score int `json:"score"`
}

func newLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "links",
		Aliases: []string{"link", "l"},
		Short:   "Search stored links by title, long URL or keyword",
		Long: `Search the most recent links of the server. Links are fetched with the
stats action (filter "last") and cached for a few minutes.`,
	}

	cmd.AddCommand(newLinksFindCmd())
	cmd.AddCommand(newLinksGetCmd())
	return cmd
}

type linksOptions struct {
	scan    int
	refresh bool
}

func (o *linksOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.scan, "scan", defaultLinksScan, "How many recent links to search")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "Ignore the cache and ask the server")
}

func newLinksFindCmd() *cobra.Command {
	var (
		opts  linksOptions
		limit int
		after string
	)

	cmd := &cobra.Command{
		Use:     "find <text>",
		Aliases: []string{"search"},
		Short:   "List links matching text, best match first",
		Args:    cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be a positive integer")
			}
			query := strings.Join(args, " ")

			var cutoff time.Time
			if after != "" {
				t, err := since.Parse(after, time.Now())
				if err != nil {
					return invalidInput(err)
				}
				cutoff = t
			}

			links, err := loadLinks(cmd, opts)
			if err != nil {
				return err
			}
			if !cutoff.IsZero() {
				links = linksSince(links, cutoff)
			}

			byShortURL := make(map[string]api.Link, len(links))
			for _, l := range links {
				byShortURL[l.ShortURL] = l
			}
			matches := resolve.FuzzyMatchAll(query, namedLinks(links), limit)
			found := make([]linkMatch, 0, len(matches))
			for _, m := range matches {
				found = append(found, linkMatch{Link: byShortURL[m.Key], Score: m.Score})
			}

			if isJSON(cmd) {
				return printJSON(cmd, found)
			}
			if len(found) == 0 {
				newFormatter(cmd).Empty(fmt.Sprintf("No links match %q", query))
				return nil
			}
			plain := make([]api.Link, len(found))
			for i, m := range found {
				plain[i] = m.Link
			}
			return writeLinksTable(cmd, plain)
		}),
	}

	opts.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of matches")
	cmd.Flags().StringVar(&after, "since", "", "Only links created since (e.g., 7d, yesterday, 2024-01-31)")
	return cmd
}

func newLinksGetCmd() *cobra.Command {
	var opts linksOptions

	cmd := &cobra.Command{
		Use:   "get <text>",
		Short: "Print the single link that best matches text",
		Long: `Print the link whose title, long URL or keyword best matches text. An
exact match on the short URL, keyword or searchable text always wins; when
several links match equally well the candidates are listed instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			links, err := loadLinks(cmd, opts)
			if err != nil {
				return err
			}

			key := exactLink(query, links)
			if key == "" {
				key, err = resolve.FuzzyMatch(query, namedLinks(links))
			}
			if err != nil {
				var ambiguous *resolve.AmbiguousError
				if errors.As(err, &ambiguous) {
					return err
				}
				if errors.Is(err, resolve.ErrEmptyItems) {
					return fmt.Errorf("no links found on the server")
				}
				return api.NewStructuredError(api.ErrNotFound, err.Error())
			}

			var link api.Link
			for _, l := range links {
				if l.ShortURL == key {
					link = l
					break
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, link)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), link.ShortURL)
			return nil
		}),
	}

	opts.register(cmd)
	return cmd
}

// loadLinks returns the most recent links, from the cache when possible.
func loadLinks(cmd *cobra.Command, opts linksOptions) ([]api.Link, error) {
	if opts.scan <= 0 {
		return nil, fmt.Errorf("--scan must be a positive integer")
	}

	client, res, err := newClientFactory().connect()
	if err != nil {
		return nil, err
	}
	ctx, cancel := requestContext(cmd)
	defer cancel()

	backend, closeCache := openCache(ctx, res.URL, linksCacheTTL)
	defer closeCache()
	key := fmt.Sprintf("links:%d", opts.scan)

	var links []api.Link
	if !opts.refresh && backend.Get(ctx, key, &links) {
		return links, nil
	}

	links, err = fetchRecentLinks(ctx, client, opts.scan)
	if err != nil {
		return nil, err
	}
	backend.Put(ctx, key, links)
	return links, nil
}

func fetchRecentLinks(ctx context.Context, client *api.Client, scan int) ([]api.Link, error) {
	result, _, err := client.Stats(ctx, &api.SearchCriteria{Filter: "last", Limit: api.Int(scan)})
	if err != nil {
		return nil, err
	}
	return result.Links, nil
}

// namedLinks makes links searchable by title, long URL and keyword.
func namedLinks(links []api.Link) []resolve.Named {
	items := make([]resolve.Named, 0, len(links))
	for _, l := range links {
		parts := make([]string, 0, 3)
		for _, s := range []string{l.Title, l.URL, linkKeyword(l)} {
			if s != "" {
				parts = append(parts, s)
			}
		}
		items = append(items, resolve.Named{Key: l.ShortURL, Name: strings.Join(parts, " ")})
	}
	return items
}

// linkKeyword returns the keyword of l, taken from its short URL when the
// server did not send one.
func linkKeyword(l api.Link) string {
	if kw := l.Keyword.String(); kw != "" {
		return kw
	}
	short := strings.TrimSuffix(l.ShortURL, "/")
	if i := strings.LastIndexByte(short, '/'); i >= 0 {
		return short[i+1:]
	}
	return short
}

// exactLink returns the short URL of the link whose short URL or keyword is
// query, ignoring case.
func exactLink(query string, links []api.Link) string {
	query = strings.TrimSpace(query)
	for _, l := range links {
		if strings.EqualFold(l.ShortURL, query) || strings.EqualFold(linkKeyword(l), query) {
			return l.ShortURL
		}
	}
	return ""
}

// linksSince keeps the links created at or after cutoff. Links with an
// unreadable timestamp are kept.
func linksSince(links []api.Link, cutoff time.Time) []api.Link {
	kept := make([]api.Link, 0, len(links))
	for _, l := range links {
		if t, ok := since.Timestamp(l.Timestamp, cutoff.Location()); ok && t.Before(cutoff) {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}
