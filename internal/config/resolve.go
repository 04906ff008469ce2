package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by Resolve.
const (
	EnvURL       = "YOURLS_URL"
	EnvSignature = "YOURLS_SIGNATURE"
	EnvTimestamp = "YOURLS_TIMESTAMP"
	EnvUsername  = "YOURLS_USERNAME"
	EnvPassword  = "YOURLS_PASSWORD"
	EnvFormat    = "YOURLS_FORMAT"
	EnvMethod    = "YOURLS_METHOD"
	EnvProfile   = "YOURLS_PROFILE"
	EnvEnvFile   = "YOURLS_ENV_FILE"
)

// Overrides are settings given on the command line. Empty fields are unset.
type Overrides struct {
	Profile   string
	URL       string
	Signature string
	Timestamp string
	Username  string
	Password  string
	Format    string
	Method    string
}

// Resolved is the effective connection configuration and where it came from.
type Resolved struct {
	Profile
	// ProfileName is the stored profile that was used, if any.
	ProfileName string
}

// Resolve merges, in increasing priority, the stored profile, the
// environment and overrides. Credentials are taken as a whole from the
// highest source that provides any, so a stored password never pairs with a
// signature given on the command line.
func Resolve(o Overrides) (Resolved, error) {
	var res Resolved

	name := firstNonBlank(o.Profile, os.Getenv(EnvProfile))
	if name == "" {
		current, err := CurrentProfile()
		if err == nil {
			name = current
		}
	}
	if profile, err := LoadProfile(name); err == nil {
		res.Profile = profile
		res.ProfileName = name
	} else if !errors.Is(err, ErrNotConfigured) && o.URL == "" && os.Getenv(EnvURL) == "" {
		return Resolved{}, err
	}

	env := Profile{
		URL:       strings.TrimSpace(os.Getenv(EnvURL)),
		Signature: strings.TrimSpace(os.Getenv(EnvSignature)),
		Timestamp: strings.TrimSpace(os.Getenv(EnvTimestamp)),
		Username:  strings.TrimSpace(os.Getenv(EnvUsername)),
		Password:  os.Getenv(EnvPassword),
		Format:    strings.TrimSpace(os.Getenv(EnvFormat)),
		Method:    strings.TrimSpace(os.Getenv(EnvMethod)),
	}
	flags := Profile{
		URL:       o.URL,
		Signature: o.Signature,
		Timestamp: o.Timestamp,
		Username:  o.Username,
		Password:  o.Password,
		Format:    o.Format,
		Method:    o.Method,
	}
	res.Profile = overlay(overlay(res.Profile, env), flags)

	if res.URL == "" {
		return Resolved{}, ErrNotConfigured
	}
	res.URL = strings.TrimSuffix(res.URL, "/")
	return res, nil
}

func overlay(base, top Profile) Profile {
	if top.URL != "" {
		base.URL = top.URL
	}
	if top.Format != "" {
		base.Format = top.Format
	}
	if top.Method != "" {
		base.Method = top.Method
	}
	if top.Signature != "" || top.Username != "" || top.Password != "" {
		base.Signature = top.Signature
		base.Timestamp = top.Timestamp
		base.Username = top.Username
		base.Password = top.Password
	} else if top.Timestamp != "" {
		base.Timestamp = top.Timestamp
	}
	return base
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// EnvFilePath returns the dotenv file loaded at startup.
func EnvFilePath() string {
	if path := strings.TrimSpace(os.Getenv(EnvEnvFile)); path != "" {
		return path
	}
	return filepath.Join(ConfigDir(), ".env")
}

// LoadEnvFile loads variables from path without overriding ones already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// WriteEnvFile writes the non-empty fields of p as YOURLS_* variables.
func WriteEnvFile(path string, p Profile) error {
	vars := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			vars[key] = value
		}
	}
	set(EnvURL, p.URL)
	set(EnvSignature, p.Signature)
	set(EnvTimestamp, p.Timestamp)
	set(EnvUsername, p.Username)
	set(EnvPassword, p.Password)
	set(EnvFormat, p.Format)
	set(EnvMethod, p.Method)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := godotenv.Write(vars, path); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}
