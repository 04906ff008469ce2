// Package config stores YOURLS server profiles in the OS keychain and
// resolves the effective connection settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName    = "yourls-cli"
	defaultProfile = "default"

	// Keys inside the keyring. The default profile predates named ones and
	// keeps the bare key.
	defaultProfileKey  = "default"
	namedProfilePrefix = "profile:"
	indexKey           = "profiles_index"
	currentKey         = "current_profile"

	envKeyringBackend  = "YOURLS_KEYRING_BACKEND"
	envKeyringPassword = "YOURLS_KEYRING_PASSWORD"
	envCredentialsDir  = "YOURLS_CREDENTIALS_DIR"
)

// ErrNotConfigured is returned when no profile is configured
var ErrNotConfigured = errors.New("yourls not configured - run 'yourls auth login' first")

var openKeyring = keyring.Open

var userConfigDir = os.UserConfigDir

var stdinIsTerminal = func() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// SetOpenKeyring replaces the keyring opener, for tests. The returned
// function restores the previous one.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	prev := openKeyring
	openKeyring = fn
	return func() { openKeyring = prev }
}

// Profile holds the connection details of one YOURLS installation.
type Profile struct {
	URL       string `json:"url"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	Signature string `json:"signature,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Format    string `json:"format,omitempty"`
	Method    string `json:"method,omitempty"`
}

// AuthMode describes which credentials the profile carries.
func (p Profile) AuthMode() string {
	switch {
	case p.Signature != "" && p.Timestamp != "":
		return "signature+timestamp"
	case p.Signature != "":
		return "signature"
	case p.Username != "" || p.Password != "":
		return "password"
	default:
		return "none"
	}
}

// ConfigDir is the directory holding the CLI's local state.
func ConfigDir() string {
	if dir := envValue(envCredentialsDir); dir != "" {
		return dir
	}
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, serviceName)
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, ".config", serviceName)
	}
	return filepath.Join(os.TempDir(), serviceName)
}

// keyringConfig honours YOURLS_KEYRING_BACKEND: "system" uses only the OS
// keychain, "file" only the encrypted file store, anything else lets the
// keyring pick and falls back to files.
func keyringConfig() keyring.Config {
	cfg := keyring.Config{ServiceName: serviceName}

	backend := strings.ToLower(envValue(envKeyringBackend))
	switch backend {
	case "system", "os", "native":
		return cfg
	case "file":
	default:
		backend = "auto"
	}

	cfg.FileDir = filepath.Join(ConfigDir(), "keyring")
	cfg.FilePasswordFunc = filePassword
	if shouldForceFileBackend(runtime.GOOS, backend, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	return cfg
}

// shouldForceFileBackend reports whether only the file backend may be used.
// Linux without a session bus has no usable secret service.
func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	switch backend {
	case "file":
		return true
	case "auto":
		return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
	default:
		return false
	}
}

func filePassword(prompt string) (string, error) {
	if password := envValue(envKeyringPassword); password != "" {
		return password, nil
	}
	if !stdinIsTerminal() {
		return "", fmt.Errorf("set %s when using file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}

func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func profileKey(name string) string {
	if name == "" || name == defaultProfile {
		return defaultProfileKey
	}
	return namedProfilePrefix + name
}

// store is an opened keyring holding profiles as JSON items.
type store struct {
	ring keyring.Keyring
}

func openStore() (*store, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &store{ring: ring}, nil
}

// get decodes the item at key into v. It returns false when the key is
// missing.
func (s *store) get(key string, v any) (bool, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(item.Data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *store) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.ring.Set(keyring.Item{Key: key, Data: data}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *store) names() ([]string, error) {
	var names []string
	if _, err := s.get(indexKey, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (s *store) setNames(names []string) error {
	seen := make(map[string]bool, len(names))
	kept := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		kept = append(kept, n)
	}
	return s.put(indexKey, kept)
}

// current reads the current profile name. It is stored as raw bytes, not
// JSON, so older keyrings stay readable.
func (s *store) current() (string, error) {
	item, err := s.ring.Get(currentKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return defaultProfile, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get current profile: %w", err)
	}
	return string(item.Data), nil
}

func (s *store) setCurrent(name string) error {
	if name == "" {
		name = defaultProfile
	}
	return s.ring.Set(keyring.Item{Key: currentKey, Data: []byte(name)})
}

func orDefault(name string) string {
	if name == "" {
		return defaultProfile
	}
	return name
}

// SaveProfile stores the profile in the OS keychain and makes it current.
func SaveProfile(name string, profile Profile) error {
	name = orDefault(name)
	s, err := openStore()
	if err != nil {
		return err
	}

	profile.URL = strings.TrimSuffix(strings.TrimSpace(profile.URL), "/")
	if err := s.put(profileKey(name), profile); err != nil {
		return err
	}
	names, err := s.names()
	if err != nil {
		return err
	}
	if err := s.setNames(append(names, name)); err != nil {
		return err
	}
	return s.setCurrent(name)
}

// LoadProfile retrieves a named profile. A missing profile is
// ErrNotConfigured.
func LoadProfile(name string) (Profile, error) {
	s, err := openStore()
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	found, err := s.get(profileKey(orDefault(name)), &p)
	if err != nil {
		return Profile{}, err
	}
	if !found {
		return Profile{}, ErrNotConfigured
	}
	return p, nil
}

// DeleteProfile removes a stored profile. When it was current, the first
// remaining profile becomes current.
func DeleteProfile(name string) error {
	name = orDefault(name)
	s, err := openStore()
	if err != nil {
		return err
	}

	if err := s.ring.Remove(profileKey(name)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove profile: %w", err)
	}
	names, err := s.names()
	if err != nil {
		return err
	}
	names = slices.DeleteFunc(names, func(n string) bool { return n == name })
	if err := s.setNames(names); err != nil {
		return err
	}

	if current, err := s.current(); err == nil && current == name {
		next := defaultProfile
		if len(names) > 0 {
			next = names[0]
		}
		_ = s.setCurrent(next)
	}
	return nil
}

// ListProfiles returns the known profile names
func ListProfiles() ([]string, error) {
	s, err := openStore()
	if err != nil {
		return nil, err
	}
	names, err := s.names()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		if _, err := s.ring.Get(defaultProfileKey); err == nil {
			return []string{defaultProfile}, nil
		}
		return []string{}, nil
	}
	return names, nil
}

// CurrentProfile returns the active profile name
func CurrentProfile() (string, error) {
	s, err := openStore()
	if err != nil {
		return "", err
	}
	return s.current()
}

// SetCurrentProfile sets the active profile name
func SetCurrentProfile(name string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	return s.setCurrent(name)
}
