package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
)

// withMockKeyring sets up a mock keyring for the duration of a test
func withMockKeyring(t *testing.T) *keyring.ArrayKeyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	t.Cleanup(SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	}))
	return ring
}

// withFailingKeyring sets up a keyring that always fails to open
func withFailingKeyring(t *testing.T, err error) {
	t.Helper()
	t.Cleanup(SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return nil, err
	}))
}

func clearYourlsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvURL, EnvSignature, EnvTimestamp, EnvUsername, EnvPassword, EnvFormat, EnvMethod, EnvProfile} {
		t.Setenv(key, "")
	}
}

func TestProfileKey(t *testing.T) {
	tests := []struct {
		profile  string
		expected string
	}{
		{"", defaultProfileKey},
		{"default", defaultProfileKey},
		{"work", "profile:work"},
	}
	for _, tt := range tests {
		if got := profileKey(tt.profile); got != tt.expected {
			t.Errorf("profileKey(%q) = %q, want %q", tt.profile, got, tt.expected)
		}
	}
}

func TestSaveAndLoadProfile(t *testing.T) {
	withMockKeyring(t)

	in := Profile{URL: "https://sho.rt/yourls-api.php/", Signature: "sig", Format: "json"}
	if err := SaveProfile("work", in); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	got, err := LoadProfile("work")
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if got.URL != "https://sho.rt/yourls-api.php" || got.Signature != "sig" || got.Format != "json" {
		t.Errorf("LoadProfile() = %+v", got)
	}

	current, err := CurrentProfile()
	if err != nil || current != "work" {
		t.Errorf("CurrentProfile() = %q, %v", current, err)
	}
}

func TestLoadProfileNotConfigured(t *testing.T) {
	withMockKeyring(t)

	if _, err := LoadProfile("missing"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestListAndDeleteProfiles(t *testing.T) {
	withMockKeyring(t)

	for _, name := range []string{"a", "b", "a"} {
		if err := SaveProfile(name, Profile{URL: "https://" + name}); err != nil {
			t.Fatalf("SaveProfile(%s) error = %v", name, err)
		}
	}
	profiles, err := ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(profiles) != 2 || profiles[0] != "a" || profiles[1] != "b" {
		t.Errorf("ListProfiles() = %v", profiles)
	}

	if err := DeleteProfile("a"); err != nil {
		t.Fatalf("DeleteProfile() error = %v", err)
	}
	profiles, _ = ListProfiles()
	if len(profiles) != 1 || profiles[0] != "b" {
		t.Errorf("ListProfiles() after delete = %v", profiles)
	}
	if current, _ := CurrentProfile(); current != "b" {
		t.Errorf("CurrentProfile() = %q, want b", current)
	}
}

func TestKeyringOpenFailure(t *testing.T) {
	boom := errors.New("locked")
	withFailingKeyring(t, boom)

	if _, err := LoadProfile("x"); !errors.Is(err, boom) {
		t.Errorf("LoadProfile err = %v", err)
	}
	if err := SaveProfile("x", Profile{}); !errors.Is(err, boom) {
		t.Errorf("SaveProfile err = %v", err)
	}
}

func TestShouldForceFileBackend(t *testing.T) {
	tests := []struct {
		goos, backend, dbus string
		want                bool
	}{
		{"linux", "auto", "", true},
		{"linux", "auto", "unix:path=/run/bus", false},
		{"darwin", "auto", "", false},
		{"darwin", "file", "", true},
		{"linux", "system", "", false},
	}
	for _, tt := range tests {
		if got := shouldForceFileBackend(tt.goos, tt.backend, tt.dbus); got != tt.want {
			t.Errorf("shouldForceFileBackend(%q, %q, %q) = %v", tt.goos, tt.backend, tt.dbus, got)
		}
	}
}

func TestConfigDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envCredentialsDir, dir)
	if got := ConfigDir(); got != dir {
		t.Errorf("ConfigDir() = %q, want %q", got, dir)
	}
}

func TestAuthMode(t *testing.T) {
	tests := []struct {
		p    Profile
		want string
	}{
		{Profile{}, "none"},
		{Profile{Username: "u", Password: "p"}, "password"},
		{Profile{Signature: "s"}, "signature"},
		{Profile{Signature: "s", Timestamp: "1"}, "signature+timestamp"},
	}
	for _, tt := range tests {
		if got := tt.p.AuthMode(); got != tt.want {
			t.Errorf("AuthMode(%+v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestResolvePriority(t *testing.T) {
	withMockKeyring(t)
	clearYourlsEnv(t)

	if err := SaveProfile("default", Profile{URL: "https://stored", Username: "u", Password: "p", Format: "jsonp"}); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	res, err := Resolve(Overrides{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.URL != "https://stored" || res.Username != "u" || res.ProfileName != "default" {
		t.Errorf("Resolve() = %+v", res)
	}

	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvSignature, "envsig")
	res, err = Resolve(Overrides{URL: "https://flag/"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.URL != "https://flag" || res.Format != "json" {
		t.Errorf("Resolve() = %+v", res)
	}
	if res.Signature != "envsig" || res.Username != "" || res.Password != "" {
		t.Errorf("credentials should come only from the environment: %+v", res)
	}
}

func TestResolveNotConfigured(t *testing.T) {
	withMockKeyring(t)
	clearYourlsEnv(t)

	if _, err := Resolve(Overrides{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestResolveEnvOnlyWithBrokenKeyring(t *testing.T) {
	withFailingKeyring(t, errors.New("no keyring"))
	clearYourlsEnv(t)
	t.Setenv(EnvURL, "https://env")

	res, err := Resolve(Overrides{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.URL != "https://env" || res.ProfileName != "" {
		t.Errorf("Resolve() = %+v", res)
	}
}

func TestEnvFileRoundTrip(t *testing.T) {
	clearYourlsEnv(t)
	path := filepath.Join(t.TempDir(), "sub", ".env")

	if err := WriteEnvFile(path, Profile{URL: "https://dotenv", Signature: "s p"}); err != nil {
		t.Fatalf("WriteEnvFile() error = %v", err)
	}
	if err := os.Unsetenv(EnvURL); err != nil {
		t.Fatal(err)
	}
	if err := os.Unsetenv(EnvSignature); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv(EnvURL); got != "https://dotenv" {
		t.Errorf("%s = %q", EnvURL, got)
	}
	if got := os.Getenv(EnvSignature); got != "s p" {
		t.Errorf("%s = %q", EnvSignature, got)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("LoadEnvFile() error = %v", err)
	}
}

func TestEnvFilePathOverride(t *testing.T) {
	t.Setenv(EnvEnvFile, "/tmp/custom.env")
	if got := EnvFilePath(); got != "/tmp/custom.env" {
		t.Errorf("EnvFilePath() = %q", got)
	}
}
