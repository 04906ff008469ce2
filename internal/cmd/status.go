package cmd

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourls/yourls-cli/internal/api"
	"github.com/yourls/yourls-cli/internal/config"
)

// StatusInfo holds configuration and server status information
type StatusInfo struct {
	Configured      bool   `json:"configured"`
	URL             string `json:"url,omitempty"`
	AuthMode        string `json:"auth_mode,omitempty"`
	Format          string `json:"format,omitempty"`
	Method          string `json:"method,omitempty"`
	Profile         string `json:"profile,omitempty"`
	ConfigSource    string `json:"config_source,omitempty"`
	CLIVersion      string `json:"cli_version"`
	LibraryVersion  string `json:"library_version"`
	GoVersion       string `json:"go_version"`
	Platform        string `json:"platform"`
	ServerReachable *bool  `json:"server_reachable,omitempty"`
	ServerVersion   string `json:"server_version,omitempty"`
	ServerError     string `json:"server_error,omitempty"`
}

func newStatusCmd() *cobra.Command {
	var checkOnly bool
	var ping bool

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   "Show current configuration and server status",
		Long: `Display the current CLI configuration: the server, how requests are
authenticated and encoded, and version information.

This command is useful for scripts to verify configuration before making
API calls.`,
		Example: `  # Show current status
  yourls status

  # Also ask the server for its version
  yourls status --ping -o json

  # Fail unless a server is configured
  yourls status --check`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			info := StatusInfo{
				CLIVersion:     version,
				LibraryVersion: api.LibraryVersion,
				GoVersion:      runtime.Version(),
				Platform:       runtime.GOOS + "/" + runtime.GOARCH,
			}

			factory := newClientFactory()
			res, err := factory.resolve()
			switch {
			case err == nil:
				info.Configured = true
				info.URL = res.URL
				info.AuthMode = res.AuthMode()
				info.Format = res.Format
				info.Method = res.Method
				info.Profile = res.ProfileName
				info.ConfigSource = configSource(res)
			case !errors.Is(err, config.ErrNotConfigured):
				return err
			}

			if ping && info.Configured {
				reachable := false
				client, _, connErr := factory.connect()
				if connErr == nil {
					ctx, cancel := requestContext(cmd)
					result, _, vErr := client.Version(ctx, false)
					cancel()
					if vErr == nil {
						reachable = true
						info.ServerVersion = result.Version
					} else {
						connErr = vErr
					}
				}
				if connErr != nil {
					info.ServerError = connErr.Error()
				}
				info.ServerReachable = &reachable
			}

			if checkOnly {
				if !info.Configured {
					return config.ErrNotConfigured
				}
				if info.ServerReachable != nil && !*info.ServerReachable {
					return fmt.Errorf("server unreachable: %s", info.ServerError)
				}
				if isJSON(cmd) {
					return printJSON(cmd, info)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "configured")
				return nil
			}

			if isJSON(cmd) {
				return printJSON(cmd, info)
			}

			w := newTabWriter(cmd.OutOrStdout())
			defer func() { _ = w.Flush() }()

			_, _ = fmt.Fprintln(w, "CLI STATUS")
			_, _ = fmt.Fprintln(w, strings.Repeat("-", 40))

			if info.Configured {
				_, _ = fmt.Fprintf(w, "URL:\t%s\n", info.URL)
				_, _ = fmt.Fprintf(w, "Auth:\t%s\n", info.AuthMode)
				_, _ = fmt.Fprintf(w, "Format:\t%s\n", info.Format)
				if info.Method != "" {
					_, _ = fmt.Fprintf(w, "Method:\t%s\n", info.Method)
				}
				_, _ = fmt.Fprintf(w, "Config Source:\t%s\n", info.ConfigSource)
				if info.Profile != "" {
					_, _ = fmt.Fprintf(w, "Profile:\t%s\n", info.Profile)
				}
				if info.ServerReachable != nil {
					if *info.ServerReachable {
						_, _ = fmt.Fprintf(w, "Server:\treachable (YOURLS %s)\n", info.ServerVersion)
					} else {
						_, _ = fmt.Fprintf(w, "Server:\tunreachable (%s)\n", info.ServerError)
					}
				}
			} else {
				_, _ = fmt.Fprintf(w, "Configured:\tno\n")
				_, _ = fmt.Fprintf(w, "Hint:\tRun 'yourls auth login' or set YOURLS_URL\n")
			}

			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintf(w, "CLI Version:\t%s\n", info.CLIVersion)
			_, _ = fmt.Fprintf(w, "Library Version:\t%s\n", info.LibraryVersion)
			_, _ = fmt.Fprintf(w, "Go Version:\t%s\n", info.GoVersion)
			_, _ = fmt.Fprintf(w, "Platform:\t%s\n", info.Platform)

			return nil
		}),
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Exit non-zero unless a server is configured (and reachable with --ping)")
	flagAlias(cmd.Flags(), "check", "ck")
	cmd.Flags().BoolVar(&ping, "ping", false, "Ask the server for its version")
	flagAlias(cmd.Flags(), "ping", "pg")

	return cmd
}
