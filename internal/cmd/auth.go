package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yourls/yourls-cli/internal/api"
	"github.com/yourls/yourls-cli/internal/config"
	"github.com/yourls/yourls-cli/internal/validation"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage YOURLS servers and credentials",
		Long:    "Configure YOURLS API credentials stored securely in your OS keychain, one profile per server.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthProfilesCmd())
	cmd.AddCommand(newAuthUseCmd())

	return cmd
}

// newAuthLoginCmd creates the auth login command
func newAuthLoginCmd() *cobra.Command {
	var (
		envFile  string
		writeEnv string
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a YOURLS server and its credentials",
		Long: strings.TrimSpace(`
Save YOURLS API credentials to your OS keychain.

You'll need:
- API URL: the yourls-api.php address (e.g. https://sho.rt/yourls-api.php)
- Either the signature token from the Tools page of the YOURLS admin,
  optionally with the timestamp of a time-limited signature,
- or a username and password.

Use --profile to keep several servers and switch between them with
'yourls auth use'.
`),
		Example: strings.TrimSpace(`
  # Passwordless login with a signature token
  yourls auth login --url https://sho.rt/yourls-api.php --signature 1002a612b4

  # Username and password, saved as the "work" profile
  yourls auth login --url https://go.corp/yourls-api.php --username joe --password secret --profile work

  # Load the values from a .env file and check them against the server
  yourls auth login --env-file .env --verify
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile := config.Profile{
				URL:       strings.TrimSpace(flags.URL),
				Signature: strings.TrimSpace(flags.Signature),
				Timestamp: strings.TrimSpace(flags.Timestamp),
				Username:  strings.TrimSpace(flags.Username),
				Password:  flags.Password,
				Format:    strings.ToLower(strings.TrimSpace(flags.Format)),
				Method:    strings.ToUpper(strings.TrimSpace(flags.Method)),
			}
			name := flags.Profile

			if envFile != "" {
				envVars, err := loadAuthEnvFile(envFile)
				if err != nil {
					return err
				}
				profile = fillFromEnvFile(profile, envVars)
				if name == "" {
					name = strings.TrimSpace(envVars[config.EnvProfile])
				}
			}

			if profile.URL == "" {
				return fmt.Errorf("--url is required")
			}
			profile.URL = strings.TrimSuffix(profile.URL, "/")
			if err := validation.ValidateAPIURL(profile.URL); err != nil {
				return invalidInput(fmt.Errorf("invalid URL: %w", err))
			}
			if !validation.LooksLikeAPIEndpoint(profile.URL) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s does not end in yourls-api.php\n", profile.URL)
			}
			if err := validateLoginProfile(profile); err != nil {
				return invalidInput(err)
			}

			if verify {
				if err := verifyProfile(cmd, profile); err != nil {
					return fmt.Errorf("credentials check failed: %w", err)
				}
			}

			if err := config.SaveProfile(name, profile); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}
			if writeEnv != "" {
				if err := config.WriteEnvFile(writeEnv, profile); err != nil {
					return fmt.Errorf("failed to write %s: %w", writeEnv, err)
				}
			}

			if name == "" {
				name = "default"
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"saved":     true,
					"profile":   name,
					"url":       profile.URL,
					"auth_mode": profile.AuthMode(),
					"verified":  verify,
				})
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Credentials saved.")
			_, _ = fmt.Fprintf(out, "  URL: %s\n", profile.URL)
			_, _ = fmt.Fprintf(out, "  Auth: %s\n", profile.AuthMode())
			_, _ = fmt.Fprintf(out, "  Profile: %s\n", name)
			if writeEnv != "" {
				_, _ = fmt.Fprintf(out, "  Env file: %s\n", writeEnv)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Read YOURLS_* values from a .env file")
	cmd.Flags().StringVar(&writeEnv, "write-env", "", "Also write the credentials to this .env file")
	cmd.Flags().BoolVar(&verify, "verify", false, "Check the credentials against the server before saving")
	flagAlias(cmd.Flags(), "env-file", "env")

	return cmd
}

func loadAuthEnvFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("--env-file requires a file path")
	}
	envVars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %q: %w", path, err)
	}
	return envVars, nil
}

// fillFromEnvFile sets the fields of p that were not given on the command
// line. Credentials are taken as a whole.
func fillFromEnvFile(p config.Profile, env map[string]string) config.Profile {
	get := func(key string) string { return strings.TrimSpace(env[key]) }
	if p.URL == "" {
		p.URL = get(config.EnvURL)
	}
	if p.Format == "" {
		p.Format = strings.ToLower(get(config.EnvFormat))
	}
	if p.Method == "" {
		p.Method = strings.ToUpper(get(config.EnvMethod))
	}
	if p.Signature == "" && p.Username == "" && p.Password == "" {
		p.Signature = get(config.EnvSignature)
		p.Username = get(config.EnvUsername)
		p.Password = env[config.EnvPassword]
		if p.Timestamp == "" {
			p.Timestamp = get(config.EnvTimestamp)
		}
	}
	return p
}

func validateLoginProfile(p config.Profile) error {
	if p.Signature != "" && (p.Username != "" || p.Password != "") {
		return fmt.Errorf("use either --signature or --username/--password, not both")
	}
	if (p.Username == "") != (p.Password == "") {
		return fmt.Errorf("--username and --password must be given together")
	}
	if p.Timestamp != "" && p.Signature == "" {
		return fmt.Errorf("--timestamp requires --signature")
	}
	if p.Format != "" {
		if _, err := validation.ValidateChoice("format", p.Format, []string{api.FormatJSON, api.FormatJSONP}); err != nil {
			return err
		}
	}
	if p.Method != "" {
		if _, err := validation.ValidateChoice("method", strings.ToLower(p.Method), []string{"get", "post"}); err != nil {
			return err
		}
	}
	return nil
}

// verifyProfile asks the server for its totals, which requires valid
// credentials on a private installation.
func verifyProfile(cmd *cobra.Command, p config.Profile) error {
	format := p.Format
	if format == "" {
		format = defaultCLIFormat
	}
	client := api.New()
	client.UserAgent = newClientFactory().userAgent
	client.Connect(p.URL, credentialsOf(p), &api.Options{Format: format, Method: p.Method})

	ctx, cancel := requestContext(cmd)
	defer cancel()
	_, _, err := client.DB().Stats(ctx)
	return err
}

// newAuthStatusCmd creates the auth status command
func newAuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the credentials that would be used",
		Long:  "Display the effective server and credentials, merged from the stored profile, the environment and flags. Secrets are masked.",
		Example: strings.TrimSpace(`
  yourls auth status
  yourls auth status --json
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			res, err := newClientFactory().resolve()
			if err != nil {
				if errors.Is(err, config.ErrNotConfigured) {
					if isJSON(cmd) {
						return printJSON(cmd, map[string]any{
							"authenticated": false,
							"message":       "Not configured. Run 'yourls auth login' to add a server.",
						})
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not configured.")
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'yourls auth login' to add a server.")
					return nil
				}
				return fmt.Errorf("failed to load credentials: %w", err)
			}

			source := configSource(res)
			if isJSON(cmd) {
				payload := map[string]any{
					"authenticated": res.AuthMode() != "none",
					"url":           res.URL,
					"auth_mode":     res.AuthMode(),
					"format":        res.Format,
					"source":        source,
				}
				if res.Signature != "" {
					payload["signature"] = maskToken(res.Signature)
				}
				if res.Timestamp != "" {
					payload["timestamp"] = res.Timestamp
				}
				if res.Username != "" {
					payload["username"] = res.Username
					payload["password"] = maskToken(res.Password)
				}
				if res.Method != "" {
					payload["method"] = res.Method
				}
				if res.ProfileName != "" {
					payload["profile"] = res.ProfileName
				}
				return printJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "URL: %s\n", res.URL)
			_, _ = fmt.Fprintf(out, "  Auth: %s\n", res.AuthMode())
			if res.Signature != "" {
				_, _ = fmt.Fprintf(out, "  Signature: %s\n", maskToken(res.Signature))
			}
			if res.Timestamp != "" {
				_, _ = fmt.Fprintf(out, "  Timestamp: %s\n", res.Timestamp)
			}
			if res.Username != "" {
				_, _ = fmt.Fprintf(out, "  Username: %s\n", res.Username)
				_, _ = fmt.Fprintf(out, "  Password: %s\n", maskToken(res.Password))
			}
			_, _ = fmt.Fprintf(out, "  Format: %s\n", res.Format)
			if res.ProfileName != "" {
				_, _ = fmt.Fprintf(out, "  Profile: %s\n", res.ProfileName)
			}
			_, _ = fmt.Fprintf(out, "  Source: %s\n", source)
			return nil
		}),
	}

	return cmd
}

// configSource describes where the resolved URL came from.
func configSource(res config.Resolved) string {
	switch {
	case flags.URL != "":
		return "flags"
	case os.Getenv(config.EnvURL) != "":
		return "env"
	case res.ProfileName != "":
		return "keychain"
	default:
		return "unknown"
	}
}

// newAuthLogoutCmd creates the auth logout command
func newAuthLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove a stored profile from the keychain",
		Long:  "Delete the stored credentials of a profile (the current one unless --profile is given).",
		Example: strings.TrimSpace(`
  yourls auth logout
  yourls auth logout --profile work
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			name := flags.Profile
			if name == "" {
				current, err := config.CurrentProfile()
				if err != nil {
					return err
				}
				name = current
			}

			if _, err := config.LoadProfile(name); err != nil {
				if errors.Is(err, config.ErrNotConfigured) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No credentials stored for profile %s.\n", name)
					return nil
				}
				return err
			}
			if err := config.DeleteProfile(name); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %s removed.\n", name)
			return nil
		}),
	}

	return cmd
}

type profileEntry struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	Auth    string `json:"auth_mode,omitempty"`
	Current bool   `json:"current"`
}

func newAuthProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"ls"},
		Short:   "List stored profiles",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			names, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, _ := config.CurrentProfile()

			entries := make([]profileEntry, 0, len(names))
			for _, name := range names {
				entry := profileEntry{Name: name, Current: name == current}
				if p, err := config.LoadProfile(name); err == nil {
					entry.URL = p.URL
					entry.Auth = p.AuthMode()
				}
				entries = append(entries, entry)
			}

			if isJSON(cmd) {
				return printJSON(cmd, entries)
			}
			if len(entries) == 0 {
				newFormatter(cmd).Empty("No profiles stored. Run 'yourls auth login' to add one.")
				return nil
			}
			return writeProfiles(cmd.OutOrStdout(), entries)
		}),
	}
}

func writeProfiles(out io.Writer, entries []profileEntry) error {
	w := newTabWriter(out)
	_, _ = fmt.Fprintln(w, "\tPROFILE\tURL\tAUTH")
	for _, e := range entries {
		marker := ""
		if e.Current {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, e.Name, e.URL, e.Auth)
	}
	return w.Flush()
}

func newAuthUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <profile>",
		Short: "Make a stored profile the current one",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if _, err := config.LoadProfile(name); err != nil {
				if errors.Is(err, config.ErrNotConfigured) {
					return fmt.Errorf("profile %q not found", name)
				}
				return err
			}
			if err := config.SetCurrentProfile(name); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Now using profile %s.\n", name)
			return nil
		}),
	}
}

// maskToken masks a secret for display, showing only the first and last 4 characters
func maskToken(token string) string {
	if len(token) < 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
