// Package validation checks user input before it reaches the YOURLS API.
//
// API URLs are checked for scheme and host, and never allowed to target
// cloud metadata endpoints, since every request carries credentials.
// Private and loopback addresses are accepted: YOURLS is commonly
// self-hosted on internal networks.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// MaxURLLength bounds long URLs, matching the usual browser limit.
const MaxURLLength = 2048

// blockedSchemes are rejected by YOURLS itself for long URLs.
var blockedSchemes = map[string]bool{
	"javascript": true,
	"data":       true,
	"vbscript":   true,
}

// ValidateAPIURL validates the URL of a YOURLS API endpoint. It checks that
// the URL:
//   - Uses http or https scheme
//   - Contains a hostname
//   - Does not target cloud metadata endpoints or unspecified addresses
//   - Carries no query string or fragment
func ValidateAPIURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: only http and https are allowed, got %q", parsedURL.Scheme)
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must contain a hostname")
	}

	if isCloudMetadata(hostname) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}
	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsUnspecified() {
			return fmt.Errorf("unspecified IP addresses are not allowed")
		}
		if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return fmt.Errorf("link-local IP addresses are not allowed")
		}
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return fmt.Errorf("API URL must not contain a query string or fragment")
	}
	return nil
}

// LooksLikeAPIEndpoint reports whether rawURL names the yourls-api.php script.
func LooksLikeAPIEndpoint(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.TrimSuffix(parsed.Path, "/"), "yourls-api.php")
}

// ValidateLongURL validates a URL submitted for shortening.
func ValidateLongURL(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return fmt.Errorf("URL exceeds maximum length of %d characters (got %d)", MaxURLLength, len(rawURL))
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		return fmt.Errorf("URL must include a scheme such as https://")
	}
	if blockedSchemes[scheme] {
		return fmt.Errorf("%s: URLs are not allowed", scheme)
	}
	if (scheme == "http" || scheme == "https") && parsed.Hostname() == "" {
		return fmt.Errorf("URL must contain a hostname")
	}
	return nil
}

// isCloudMetadata checks for cloud metadata endpoints
func isCloudMetadata(hostname string) bool {
	lowercase := strings.ToLower(hostname)
	cloudMetadataEndpoints := []string{
		"169.254.169.254",          // AWS, Azure, GCP, DigitalOcean
		"metadata.google.internal", // GCP
		"metadata",                 // Generic
		"instance-data",            // AWS
		"fd00:ec2::254",            // AWS IPv6
	}

	for _, endpoint := range cloudMetadataEndpoints {
		if lowercase == endpoint {
			return true
		}
	}

	return strings.HasSuffix(lowercase, ".metadata.google.internal")
}
