package modelscope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const cookiesFile = "cookies"

// CookieStore persists the session cookies returned by a login as a JSON
// object of name to value.
type CookieStore struct {
	path string
}

func NewCookieStore(configDir string) *CookieStore {
	return &CookieStore{path: filepath.Join(configDir, cookiesFile)}
}

func (s *CookieStore) Path() string {
	return s.path
}

// Load returns the stored cookies, or an empty map when not logged in.
func (s *CookieStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}

		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := map[string]string{}
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookies: %w", err)
	}

	return cookies, nil
}

// Header renders the stored cookies as a Cookie header value.
func (s *CookieStore) Header() (string, error) {
	cookies, err := s.Load()
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}

	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+cookies[name])
	}

	return strings.Join(pairs, "; "), nil
}

// Save replaces the stored cookies.
func (s *CookieStore) Save(cookies []*http.Cookie) error {
	m := make(map[string]string, len(cookies))
	for _, c := range cookies {
		m[c.Name] = c.Value
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cookies: %w", err)
	}

	return nil
}

// Clear deletes the stored cookies. Clearing when not logged in is not an error.
func (s *CookieStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cookies: %w", err)
	}

	return nil
}
