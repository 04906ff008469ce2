package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourls/yourls-cli/internal/api"
	"github.com/yourls/yourls-cli/internal/dryrun"
	"github.com/yourls/yourls-cli/internal/validation"
)

// shortenOutput is one shortened URL as printed by the shorten command.
type shortenOutput struct {
	LongURL  string `json:"longurl"`
	ShortURL string `json:"shorturl,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   string `json:"status,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newShortenOutput(longURL string, result *api.ShortenResult, resp api.Response) shortenOutput {
	out := shortenOutput{
		LongURL: longURL,
		Status:  responseString(resp, "status"),
		Code:    responseString(resp, "code"),
		Message: responseString(resp, "message"),
	}
	if result != nil {
		out.ShortURL = result.ShortURL
		out.Title = result.Title
		if result.URL != nil {
			out.Keyword = result.URL.Keyword.String()
		}
	}
	return out
}

func newShortenCmd() *cobra.Command {
	var (
		keyword     string
		title       string
		file        string
		concurrency int
		progress    bool
	)

	cmd := &cobra.Command{
		Use:     "shorten <url>...",
		Aliases: []string{"short", "s"},
		Short:   "Create short URLs",
		Long: strings.TrimSpace(`
Create a short URL for each long URL given as an argument or listed in --file.

A URL that is already stored, or a keyword that is taken, is reported by the
server with status "fail"; the existing short URL is still printed when the
server returns one.`),
		Example: strings.TrimSpace(`
  # Shorten one URL with a custom keyword
  yourls shorten https://example.com/some/long/path --keyword ex --title "Example"

  # Shorten a list of URLs, four at a time
  yourls shorten --file urls.txt --concurrency 4 -o json`),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			urls := append([]string(nil), args...)
			if file != "" {
				lines, err := readLines(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				urls = append(urls, lines...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("at least one URL is required (or --file)")
			}
			if keyword != "" && len(urls) > 1 {
				return fmt.Errorf("--keyword must be used with a single URL")
			}
			for i, u := range urls {
				u = strings.TrimSpace(u)
				urls[i] = u
				if err := validation.ValidateLongURL(u); err != nil {
					return invalidInput(fmt.Errorf("%s: %w", u, err))
				}
			}
			if err := validation.ValidateKeyword(keyword); err != nil {
				return invalidInput(err)
			}
			if err := validation.ValidateTitle(title); err != nil {
				return invalidInput(err)
			}
			if concurrency <= 0 {
				return fmt.Errorf("--concurrency must be a positive integer")
			}

			desc := &api.URLDescriptor{Keyword: keyword, Title: title}
			if dryrun.IsEnabled(cmd.Context()) {
				return previewShorten(cmd, urls, desc)
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			if len(urls) == 1 {
				return shortenOne(cmd, client, urls[0], desc)
			}
			return shortenMany(cmd, client, urls, desc, int64(concurrency), progress)
		}),
	}

	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Custom keyword for the short URL")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Title stored with the short URL")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read URLs from a file, one per line ('-' for stdin)")
	cmd.Flags().IntVar(&concurrency, "concurrency", DefaultConcurrency, "Parallel requests when shortening several URLs")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show progress on stderr")
	flagAlias(cmd.Flags(), "keyword", "kw")
	flagAlias(cmd.Flags(), "concurrency", "cc")

	return cmd
}

func shortenOne(cmd *cobra.Command, client *api.Client, longURL string, desc *api.URLDescriptor) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	result, resp, err := client.Shorten(ctx, longURL, desc)
	if err != nil {
		return err
	}
	out := newShortenOutput(longURL, result, resp)

	if isJSON(cmd) {
		return printJSON(cmd, out)
	}
	if out.Status == "fail" && out.Message != "" {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), out.Message)
	}
	if out.ShortURL == "" {
		return fmt.Errorf("server returned no short URL for %s", longURL)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.ShortURL)
	return nil
}

func shortenMany(cmd *cobra.Command, client *api.Client, urls []string, desc *api.URLDescriptor, concurrency int64, progress bool) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	showProgress := progress && !isJSON(cmd) && !flags.Quiet
	results := runBulkOperation(ctx, urls, concurrency, showProgress, cmd.ErrOrStderr(),
		func(ctx context.Context, longURL string) (shortenOutput, error) {
			longURL = strings.TrimSpace(longURL)
			result, resp, err := client.Shorten(ctx, longURL, desc)
			if err != nil {
				return shortenOutput{LongURL: longURL}, err
			}
			out := newShortenOutput(longURL, result, resp)
			if out.ShortURL == "" {
				return out, fmt.Errorf("server returned no short URL")
			}
			return out, nil
		})

	outputs := make([]shortenOutput, len(results))
	for i, r := range results {
		out := r.Data
		out.LongURL = strings.TrimSpace(r.Input)
		switch {
		case r.Skipped:
			out.Error = "not sent"
		case r.Err != nil:
			out.Error = r.Err.Error()
		}
		outputs[i] = out
	}

	success, failure := countResults(results)
	if isJSON(cmd) {
		if err := printJSON(cmd, outputs); err != nil {
			return err
		}
	} else {
		f := newFormatter(cmd)
		f.StartTable([]string{"LONG URL", "SHORT URL", "STATUS"})
		for _, out := range outputs {
			status := out.Status
			if out.Error != "" {
				status = "error: " + out.Error
			}
			f.Row(out.LongURL, out.ShortURL, status)
		}
		if err := f.EndTable(); err != nil {
			return err
		}
	}

	if failure > 0 {
		return fmt.Errorf("%d of %d URLs failed", failure, success+failure)
	}
	return nil
}

// previewShorten prints the shorturl requests without sending them.
func previewShorten(cmd *cobra.Command, urls []string, desc *api.URLDescriptor) error {
	res, err := newClientFactory().resolve()
	if err != nil {
		return err
	}
	conn := api.NewConnection(res.URL, credentialsOf(res.Profile), &api.Options{Format: res.Format, Method: res.Method})

	previews := make([]*dryrun.Preview, 0, len(urls))
	for _, u := range urls {
		p := &dryrun.Preview{
			Action:   "shorturl",
			Endpoint: conn.URL,
			Format:   conn.Options.Format,
			Method:   conn.Options.Method,
			Params:   map[string]string{"url": strings.TrimSpace(u)},
		}
		if desc.Keyword != "" {
			p.Params["keyword"] = desc.Keyword
		}
		if desc.Title != "" {
			p.Params["title"] = desc.Title
		}
		if c := conn.Credentials; c != nil {
			if c.Signature != "" {
				p.Params["signature"] = dryrun.Redact(c.Signature)
			} else {
				p.Params["username"] = c.Username
				p.Params["password"] = dryrun.Redact(c.Password)
			}
		} else {
			p.Warnings = append(p.Warnings, "no credentials configured; private servers will refuse this request")
		}
		previews = append(previews, p)
	}

	if isJSON(cmd) {
		return printJSON(cmd, previews)
	}
	for _, p := range previews {
		p.Write(cmd.OutOrStdout())
	}
	return nil
}
