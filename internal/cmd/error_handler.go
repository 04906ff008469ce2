package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yourls/yourls-cli/internal/api"
	"github.com/yourls/yourls-cli/internal/config"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var apiErr *api.APIError
	var formatErr *api.UnsupportedFormatError
	var methodErr *api.UnsupportedMethodError
	var parseErr *api.ResponseParseError
	var structured *api.StructuredError

	switch {
	case errors.Is(err, config.ErrNotConfigured), errors.Is(err, api.ErrNotConnected):
		msg.WriteString("No YOURLS server configured.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: yourls auth login --url https://sho.rt/yourls-api.php --signature TOKEN\n")
		msg.WriteString("  - Or set YOURLS_URL and YOURLS_SIGNATURE\n")

	case errors.As(err, &apiErr):
		fmt.Fprintf(&msg, "%s\n\n", apiErr.Error())
		msg.WriteString(suggestionsForStatusCode(apiErr.StatusCode))

	case errors.As(err, &formatErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", formatErr.Error())
		msg.WriteString("Suggestions:\n")
		fmt.Fprintf(&msg, "  - Use --format %s or --format %s\n", api.FormatJSON, api.FormatJSONP)

	case errors.As(err, &methodErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", methodErr.Error())
		msg.WriteString("Suggestions:\n")
		fmt.Fprintf(&msg, "  - Use --method %s\n", strings.Join(methodErr.Supported, " or --method "))

	case errors.As(err, &parseErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", parseErr.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the URL points at yourls-api.php: yourls auth status\n")
		msg.WriteString("  - Use --debug to see the request\n")

	case errors.As(err, &structured):
		fmt.Fprintf(&msg, "Error: %s\n", structured.Message)
		if structured.Suggestion != "" {
			fmt.Fprintf(&msg, "\nSuggestion: %s\n", structured.Suggestion)
		}

	case errors.Is(err, context.DeadlineExceeded):
		msg.WriteString("Timed out waiting for the YOURLS server.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Retry with a longer --timeout\n")
		msg.WriteString("  - Check the server is healthy: yourls status\n")

	case strings.Contains(err.Error(), "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check if the YOURLS server is running\n")
		msg.WriteString("  - Verify the URL: yourls auth status\n")

	case strings.Contains(err.Error(), "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the YOURLS URL spelling\n")
		msg.WriteString("  - Verify your DNS settings\n")

	case strings.Contains(err.Error(), "certificate"):
		msg.WriteString("TLS certificate error.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the server's SSL certificate\n")
		msg.WriteString("  - Check if the certificate is expired\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func suggestionsForStatusCode(code int) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400:
		suggestions.WriteString("  - Check the command arguments\n")
		suggestions.WriteString("  - Use --debug to see the request\n")
	case 401, 403:
		suggestions.WriteString("  - Your signature or password was rejected\n")
		suggestions.WriteString("  - Check the signature token on the YOURLS Tools page\n")
		suggestions.WriteString("  - Run: yourls auth login\n")
	case 404:
		suggestions.WriteString("  - The short URL or keyword doesn't exist\n")
		suggestions.WriteString("  - Search for it: yourls links find <text>\n")
	case 500, 502, 503, 504:
		suggestions.WriteString("  - Server error - not your fault\n")
		suggestions.WriteString("  - Wait and retry\n")
	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}

// structuredError converts err into the machine-readable form printed in
// JSON mode.
func structuredError(err error) *api.StructuredError {
	if errors.Is(err, config.ErrNotConfigured) {
		se := api.NewStructuredError(api.ErrNotConnectedCode, err.Error())
		se.Suggestion = "Run 'yourls auth login' or set YOURLS_URL"
		return se
	}
	return api.StructuredErrorFromError(err)
}

// ExitWithError prints error with suggestions and exits
func ExitWithError(err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprint(os.Stderr, HandleError(err))
	os.Exit(ExitCode(err))
}
