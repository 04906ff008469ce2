package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yourls/yourls-cli/internal/api"
)

// version is set at build time via ldflags
var version = "dev"

type versionOutput struct {
	CLI        string `json:"cli"`
	Library    string `json:"library"`
	Go         string `json:"go"`
	Server     string `json:"server,omitempty"`
	DBVersion  string `json:"db_version,omitempty"`
	MinServer  string `json:"min_server,omitempty"`
	Compatible *bool  `json:"compatible,omitempty"`
}

func newVersionCmd() *cobra.Command {
	var (
		local     bool
		withDB    bool
		minServer string
	)

	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Long: `Print the CLI and library versions, and the YOURLS version of the
configured server unless --local is given.`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			out := versionOutput{
				CLI:     version,
				Library: api.LibraryVersion,
				Go:      runtime.Version(),
			}

			if !local {
				client, err := getClient()
				if err != nil {
					return err
				}
				ctx, cancel := requestContext(cmd)
				defer cancel()

				result, _, err := client.Version(ctx, withDB)
				if err != nil {
					return err
				}
				out.Server = result.Version
				out.DBVersion = result.DBVersion

				if minServer != "" {
					ok, err := api.VersionAtLeast(out.Server, minServer)
					if err != nil {
						return invalidInput(err)
					}
					out.MinServer = minServer
					out.Compatible = &ok
				}
			} else if minServer != "" {
				return fmt.Errorf("--min-server cannot be used with --local")
			}

			if isJSON(cmd) {
				if err := printJSON(cmd, out); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "yourls-cli version %s\n", out.CLI)
				_, _ = fmt.Fprintf(w, "library version %s (%s)\n", out.Library, out.Go)
				if out.Server != "" {
					_, _ = fmt.Fprintf(w, "server version %s\n", out.Server)
				}
				if out.DBVersion != "" {
					_, _ = fmt.Fprintf(w, "database version %s\n", out.DBVersion)
				}
			}

			if out.Compatible != nil && !*out.Compatible {
				return fmt.Errorf("server version %s is older than %s", out.Server, minServer)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&local, "local", false, "Only print local versions; don't contact the server")
	cmd.Flags().BoolVar(&withDB, "db", false, "Include the database schema version")
	cmd.Flags().StringVar(&minServer, "min-server", "", "Fail unless the server runs at least this version")
	return cmd
}
