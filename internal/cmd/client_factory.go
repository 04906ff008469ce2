package cmd

import (
	"fmt"
	"log/slog"

	"github.com/yourls/yourls-cli/internal/api"
	"github.com/yourls/yourls-cli/internal/config"
	"github.com/yourls/yourls-cli/internal/validation"
)

// defaultCLIFormat is used when neither a profile, the environment nor a flag
// names a format. Terminals have no use for jsonp.
const defaultCLIFormat = api.FormatJSON

type clientFactory struct {
	overrides config.Overrides
	userAgent string
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		overrides: config.Overrides{
			Profile:   flags.Profile,
			URL:       flags.URL,
			Signature: flags.Signature,
			Timestamp: flags.Timestamp,
			Username:  flags.Username,
			Password:  flags.Password,
			Format:    flags.Format,
			Method:    flags.Method,
		},
		userAgent: fmt.Sprintf("yourls-cli/%s (lib %s)", version, api.LibraryVersion),
	}
}

// resolve returns the effective configuration with CLI defaults applied.
func (f *clientFactory) resolve() (config.Resolved, error) {
	res, err := config.Resolve(f.overrides)
	if err != nil {
		return config.Resolved{}, err
	}
	if res.Format == "" {
		res.Format = defaultCLIFormat
	}
	return res, nil
}

// connect builds a client connected to the resolved server.
func (f *clientFactory) connect() (*api.Client, config.Resolved, error) {
	res, err := f.resolve()
	if err != nil {
		return nil, config.Resolved{}, err
	}
	if err := validation.ValidateAPIURL(res.URL); err != nil {
		return nil, config.Resolved{}, fmt.Errorf("invalid API URL: %w", err)
	}
	if !validation.LooksLikeAPIEndpoint(res.URL) {
		slog.Debug("API URL does not end in yourls-api.php", "url", res.URL)
	}

	client := api.New()
	if f.userAgent != "" {
		client.UserAgent = f.userAgent
	}
	client.Connect(res.URL, credentialsOf(res.Profile), &api.Options{
		Format: res.Format,
		Method: res.Method,
	})
	return client, res, nil
}

func credentialsOf(p config.Profile) *api.Credentials {
	if p.AuthMode() == "none" {
		return nil
	}
	return &api.Credentials{
		Username:  p.Username,
		Password:  p.Password,
		Signature: p.Signature,
		Timestamp: p.Timestamp,
	}
}
