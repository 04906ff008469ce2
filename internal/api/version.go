package api

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

var versionFields = []string{"db_version", "version"}

func versionParams(includeDB bool) Params {
	data := NewParams("action", "version")
	if includeDB {
		data = data.Set("db", 1)
	}
	return data
}

// Version fetches the YOURLS version of the server, and its database schema
// version when includeDB is true.
func (c *Client) Version(ctx context.Context, includeDB bool) (*VersionResult, Response, error) {
	result, resp, err := c.dispatcher.Do(ctx, versionParams(includeDB), versionFields)
	if err != nil {
		return nil, resp, err
	}
	if err := responseError(resp); err != nil {
		return nil, resp, err
	}
	var out VersionResult
	if err := decodeResult(result, &out); err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// VersionAsync is the callback form of Version.
func (c *Client) VersionAsync(ctx context.Context, includeDB bool, cb Callback) error {
	return c.dispatcher.Send(ctx, versionParams(includeDB), versionFields, cb)
}

// VersionAtLeast reports whether version is at least minimum. Both may omit
// the leading "v". Unparseable versions are an error.
func VersionAtLeast(version, minimum string) (bool, error) {
	v := canonicalVersion(version)
	if !semver.IsValid(v) {
		return false, fmt.Errorf("invalid version %q", version)
	}
	m := canonicalVersion(minimum)
	if !semver.IsValid(m) {
		return false, fmt.Errorf("invalid version %q", minimum)
	}
	return semver.Compare(v, m) >= 0, nil
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
