package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourls/yourls-cli/internal/config"
)

func TestAuthLogin_SavesProfile(t *testing.T) {
	isolateEnv(t)
	resetKeyring(t)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{
			"auth", "login", "--url", "https://sho.rt/yourls-api.php/", "--signature", "abcdef123456",
		}))
	})
	assert.Contains(t, output, "Credentials saved.")
	assert.Contains(t, output, "Auth: signature")

	p, err := config.LoadProfile("default")
	require.NoError(t, err)
	assert.Equal(t, "https://sho.rt/yourls-api.php", p.URL)
	assert.Equal(t, "abcdef123456", p.Signature)
}

func TestAuthLogin_NamedProfileBecomesCurrent(t *testing.T) {
	isolateEnv(t)
	resetKeyring(t)

	_ = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{
			"auth", "login", "--url", "https://go.corp/yourls-api.php",
			"--username", "joe", "--password", "secret", "--profile", "work",
		}))
	})

	current, err := config.CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "work", current)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "status", "--json"}))
	})
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &payload))
	assert.Equal(t, "https://go.corp/yourls-api.php", payload["url"])
	assert.Equal(t, "password", payload["auth_mode"])
	assert.Equal(t, "work", payload["profile"])
	assert.Equal(t, "keychain", payload["source"])
	assert.Equal(t, "******", payload["password"])
}

func TestAuthLogin_Validation(t *testing.T) {
	isolateEnv(t)
	resetKeyring(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing url", []string{"auth", "login", "--signature", "x"}, "--url is required"},
		{"bad scheme", []string{"auth", "login", "--url", "ftp://sho.rt/yourls-api.php"}, "scheme"},
		{"signature and password", []string{"auth", "login", "--url", "https://sho.rt/yourls-api.php", "--signature", "x", "--username", "u", "--password", "p"}, "not both"},
		{"username only", []string{"auth", "login", "--url", "https://sho.rt/yourls-api.php", "--username", "u"}, "together"},
		{"timestamp only", []string{"auth", "login", "--url", "https://sho.rt/yourls-api.php", "--timestamp", "1700000000"}, "requires --signature"},
		{"bad format", []string{"auth", "login", "--url", "https://sho.rt/yourls-api.php", "--format", "xml"}, "json, jsonp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			_ = captureStderr(t, func() {
				_ = captureStdout(t, func() {
					err = Execute(context.Background(), tt.args)
				})
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, exitUsage, ExitCode(err))
		})
	}

	profiles, err := config.ListProfiles()
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestAuthLogin_EnvFileAndWriteEnv(t *testing.T) {
	isolateEnv(t)
	resetKeyring(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "src.env")
	require.NoError(t, os.WriteFile(src, []byte(strings.Join([]string{
		"YOURLS_URL=https://sho.rt/yourls-api.php",
		"YOURLS_SIGNATURE=1002a612b4",
		"YOURLS_TIMESTAMP=1700000000",
		"YOURLS_PROFILE=fromfile",
	}, "\n")), 0o600))
	dst := filepath.Join(dir, "out", ".env")

	_ = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "login", "--env-file", src, "--write-env", dst}))
	})

	p, err := config.LoadProfile("fromfile")
	require.NoError(t, err)
	assert.Equal(t, "signature+timestamp", p.AuthMode())

	written, err := godotenv.Read(dst)
	require.NoError(t, err)
	assert.Equal(t, "1002a612b4", written["YOURLS_SIGNATURE"])
	assert.Equal(t, "1700000000", written["YOURLS_TIMESTAMP"])
}

func TestAuthLogin_Verify(t *testing.T) {
	fake := newFakeYOURLS().On("db-stats", jsonResponse(403, `{"errorCode":403,"message":"Please log in"}`))
	env := setupTestEnv(t, fake)
	resetKeyring(t)

	var err error
	_ = captureStderr(t, func() {
		_ = captureStdout(t, func() {
			err = Execute(context.Background(), []string{"auth", "login", "--url", env.apiURL(), "--signature", "wrong", "--verify"})
		})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials check failed")
	assert.Equal(t, exitAuth, ExitCode(err))
	assert.Equal(t, "wrong", fake.Requests()[0].Params.Get("signature"))

	_, loadErr := config.LoadProfile("default")
	assert.ErrorIs(t, loadErr, config.ErrNotConfigured, "failed verification must not save")
}

func TestAuthProfilesUseLogout(t *testing.T) {
	isolateEnv(t)
	resetKeyring(t)

	require.NoError(t, config.SaveProfile("one", config.Profile{URL: "https://one.example/yourls-api.php", Signature: "s1"}))
	require.NoError(t, config.SaveProfile("two", config.Profile{URL: "https://two.example/yourls-api.php", Username: "u", Password: "p"}))

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "profiles"}))
	})
	assert.Contains(t, output, "one")
	assert.Contains(t, output, "https://two.example/yourls-api.php")
	assert.Contains(t, output, "*")

	_ = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "use", "one"}))
	})
	current, err := config.CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "one", current)

	var useErr error
	_ = captureStderr(t, func() {
		useErr = Execute(context.Background(), []string{"auth", "use", "three"})
	})
	require.Error(t, useErr)

	output = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "logout"}))
	})
	assert.Contains(t, output, "Profile one removed.")

	names, err := config.ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, names)
}

func TestAuthStatus_NotConfigured(t *testing.T) {
	isolateEnv(t)
	resetKeyring(t)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "status"}))
	})
	assert.Contains(t, output, "Not configured.")
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", maskToken(""))
	assert.Equal(t, "****", maskToken("abcd"))
	assert.Equal(t, "abcd**ghij", maskToken("abcdefghij"))
}
