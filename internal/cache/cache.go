// Package cache stores API results between CLI invocations.
//
// Entries are JSON, scoped per YOURLS server URL. The file backend writes one
// file per key under the user cache directory; the redis backend shares
// entries between machines. Disable with YOURLS_NO_CACHE=1.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

const envNoCache = "YOURLS_NO_CACHE"

// Backend stores values under string keys for one server.
type Backend interface {
	// Get loads the value stored under key into dst. It reports false on a
	// miss (absent, expired, undecodable or disabled).
	Get(ctx context.Context, key string, dst any) bool
	// Put stores v under key. Failures are ignored.
	Put(ctx context.Context, key string, v any)
	// Delete removes key.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry of this backend's server.
	Clear(ctx context.Context) error
}

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Items    json.RawMessage `json:"items"`
}

// Store reads and writes a single cache file (key+server).
type Store struct {
	path string
	ttl  time.Duration
}

// NewStore creates a Store with the default 5-minute TTL.
// dir is the cache directory (typically from DefaultDir).
// key names the entry (e.g. "links").
// baseURL is the YOURLS API URL.
func NewStore(dir, key, baseURL string) *Store {
	return NewStoreWithTTL(dir, key, baseURL, DefaultTTL)
}

// NewStoreWithTTL creates a Store with a custom TTL.
func NewStoreWithTTL(dir, key, baseURL string, ttl time.Duration) *Store {
	filename := fmt.Sprintf("%s_%s.json", sanitizeKey(key), serverHash(baseURL))
	return &Store{
		path: filepath.Join(dir, filename),
		ttl:  ttl,
	}
}

// Get loads cached items into dst. Returns false on miss (no file, expired, disabled).
func (s *Store) Get(dst any) bool {
	if Disabled() {
		return false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if s.ttl > 0 && time.Since(e.CachedAt) > s.ttl {
		return false
	}
	return json.Unmarshal(e.Items, dst) == nil
}

// Put writes items to the cache. Silently no-ops on error or when disabled.
func (s *Store) Put(items any) {
	if Disabled() {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	data, err := json.Marshal(entry{
		CachedAt: time.Now(),
		Items:    raw,
	})
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}

	// write temp then rename
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, s.path)
}

// Clear removes this cache file.
func (s *Store) Clear() {
	_ = os.Remove(s.path)
}

// FileBackend is a Backend keeping one Store per key.
type FileBackend struct {
	dir     string
	baseURL string
	ttl     time.Duration
}

// NewFileBackend creates a FileBackend in dir for baseURL.
func NewFileBackend(dir, baseURL string, ttl time.Duration) *FileBackend {
	return &FileBackend{dir: dir, baseURL: baseURL, ttl: ttl}
}

func (b *FileBackend) store(key string) *Store {
	return NewStoreWithTTL(b.dir, fileKey(key), b.baseURL, b.ttl)
}

func (b *FileBackend) Get(_ context.Context, key string, dst any) bool {
	return b.store(key).Get(dst)
}

func (b *FileBackend) Put(_ context.Context, key string, v any) {
	b.store(key).Put(v)
}

func (b *FileBackend) Delete(_ context.Context, key string) error {
	err := os.Remove(b.store(key).path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes the entries written for this backend's server.
func (b *FileBackend) Clear(context.Context) error {
	suffix := "_" + serverHash(b.baseURL) + ".json"
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) || !isCacheFilename(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(b.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// ClearAll removes all cache files from the directory.
// For safety, it only removes files matching this project's cache filename scheme.
func ClearAll(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		if os.Remove(filepath.Join(dir, e.Name())) == nil {
			removed++
		}
	}
	return removed
}

// DefaultDir returns the platform-appropriate cache directory.
// Returns "$XDG_CACHE_HOME/yourls-cli" or equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "yourls-cli"), nil
}

// Disabled reports whether caching is turned off through the environment.
func Disabled() bool {
	return os.Getenv(envNoCache) != ""
}

func serverHash(baseURL string) string {
	hash := sha1.Sum([]byte(baseURL))
	return hex.EncodeToString(hash[:6])
}

// fileKey turns an arbitrary key into a filename-safe, collision-free one.
func fileKey(key string) string {
	hash := sha1.Sum([]byte(key))
	return sanitizeKey(key) + "-" + hex.EncodeToString(hash[:4])
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
		if b.Len() >= 48 {
			break
		}
	}
	return b.String()
}

func isCacheFilename(name string) bool {
	// Expected: "<key>_<12hex>.json"
	if filepath.Ext(name) != ".json" {
		return false
	}
	parts := strings.Split(strings.TrimSuffix(name, ".json"), "_")
	if len(parts) != 2 || parts[0] == "" {
		return false
	}
	return len(parts[1]) == 12 && isHex(parts[1])
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
