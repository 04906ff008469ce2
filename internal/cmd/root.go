package cmd

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yourls/yourls-cli/internal/config"
	"github.com/yourls/yourls-cli/internal/debug"
	"github.com/yourls/yourls-cli/internal/dryrun"
	"github.com/yourls/yourls-cli/internal/outfmt"
)

const defaultTimeout = 30 * time.Second

// rootFlags holds global CLI flags
type rootFlags struct {
	Output   string
	JSON     bool
	Query    string
	JQ       string
	Template string
	Compact  bool
	Debug    bool
	Quiet    bool
	DryRun   bool
	Timeout  time.Duration

	Profile   string
	URL       string
	Signature string
	Timestamp string
	Username  string
	Password  string
	Format    string
	Method    string
}

// flags holds the global command flags. It is reset at the start of every
// Execute call; reading it outside a command's RunE sees stale values.
var flags = defaultFlags()

func defaultFlags() rootFlags {
	return rootFlags{
		Output:  defaultOutput(),
		Timeout: defaultTimeout,
	}
}

func defaultOutput() string {
	if value := strings.TrimSpace(os.Getenv("YOURLS_OUTPUT")); value != "" {
		return normalizeOutputFormat(value)
	}
	return "text"
}

func normalizeOutputFormat(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "ndjson" {
		return "jsonl"
	}
	return value
}

//go:embed help.txt
var helpText string

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	// Variables already in the environment win over the dotenv file.
	if err := config.LoadEnvFile(config.EnvFilePath()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	flags = defaultFlags()

	root := &cobra.Command{
		Use:                "yourls",
		Short:              "Command-line client for the YOURLS URL shortener API",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			flags.Output = normalizeOutputFormat(flags.Output)
			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && flags.Output != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			needsJSON := getJQQuery() != "" || flags.Template != ""
			if needsJSON && flags.Output == "text" {
				if flagOrAliasChanged(cmd, "output") {
					return fmt.Errorf("--jq/--query/--template require --output json or jsonl (or --json)")
				}
				flags.Output = "json"
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)

			if flags.Quiet && mode == outfmt.Text {
				cmd.Root().SetOut(io.Discard)
			}

			debug.SetupLogger(flags.Debug)
			ctx = debug.WithDebug(ctx, flags.Debug)
			ctx = dryrun.WithDryRun(ctx, flags.DryRun)

			if query := getJQQuery(); query != "" {
				ctx = outfmt.WithQuery(ctx, query)
			}
			if flags.Template != "" {
				tmpl, err := loadTemplate(flags.Template)
				if err != nil {
					return err
				}
				ctx = outfmt.WithTemplate(ctx, tmpl)
			}

			if flags.Timeout < 0 {
				return fmt.Errorf("--timeout must be >= 0")
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if !cmd.HasParent() {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), helpText)
			return
		}
		defaultHelp(cmd, args)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|ndjson (env YOURLS_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.Query, "query", "q", "", "jq expression to filter JSON output")
	pf.StringVar(&flags.JQ, "jq", "", "Alias for --query")
	pf.StringVar(&flags.Template, "template", "", "Go template string (or @path) to render JSON output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Show the requests that would create links without sending them")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "How long to wait for the server (e.g., 10s, 2m; 0 waits forever)")

	pf.StringVar(&flags.Profile, "profile", "", "Stored profile to use (env YOURLS_PROFILE)")
	pf.StringVar(&flags.URL, "url", "", "API endpoint, e.g. https://sho.rt/yourls-api.php (env YOURLS_URL)")
	pf.StringVar(&flags.Signature, "signature", "", "Signature token (env YOURLS_SIGNATURE)")
	pf.StringVar(&flags.Timestamp, "timestamp", "", "Timestamp for a time-limited signature (env YOURLS_TIMESTAMP)")
	pf.StringVar(&flags.Username, "username", "", "Username (env YOURLS_USERNAME)")
	pf.StringVar(&flags.Password, "password", "", "Password (env YOURLS_PASSWORD)")
	pf.StringVar(&flags.Format, "format", "", "Request format: json|jsonp (default json)")
	pf.StringVar(&flags.Method, "method", "", "HTTP method: GET|POST (default POST for json, GET for jsonp)")

	flagAlias(pf, "output", "out")
	flagAlias(pf, "query", "qr")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "template", "tpl")
	flagAlias(pf, "debug", "dbg")
	flagAlias(pf, "dry-run", "dr")
	flagAlias(pf, "timeout", "to")
	flagAlias(pf, "profile", "pf")
	flagAlias(pf, "signature", "sig")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newShortenCmd())
	root.AddCommand(newExpandCmd())
	root.AddCommand(newURLStatsCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newLinksCmd())
	root.AddCommand(newDBStatsCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newCacheCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			var names []string
			for _, c := range root.Commands() {
				if c.IsAvailableCommand() {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
		return msg
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown == "" {
			return msg
		}
		cmd := root
		if targetCmd != nil {
			cmd = targetCmd
		}
		var names []string
		add := func(f *pflag.Flag) {
			if f.Hidden {
				return
			}
			names = append(names, "--"+f.Name)
			if f.Shorthand != "" {
				names = append(names, "-"+f.Shorthand)
			}
		}
		cmd.Flags().VisitAll(add)
		cmd.InheritedFlags().VisitAll(add)

		helpCmd := cmd.CommandPath() + " --help"
		if suggestion := suggestFlag(unknown, names); suggestion != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
		}
		return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name ("--foo" or "-f") from a pflag error.
func extractFlag(s string) string {
	if idx := strings.Index(s, "--"); idx >= 0 {
		rest := s[idx:]
		if end := strings.IndexByte(rest, ' '); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimRight(rest, ".,;:!?\"'")
	}
	// "unknown shorthand flag: 'x' in -x"
	idx := strings.LastIndex(s, " -")
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(s[idx+1:])
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimRight(rest, ".,;:!?\"'")
	if len(rest) > 1 {
		return rest
	}
	return ""
}

func loadTemplate(value string) (string, error) {
	if path, ok := strings.CutPrefix(value, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return value, nil
}
