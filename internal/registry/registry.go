// Package registry remembers every directory that has been used as a
// download root, so local models can be listed later.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
)

const knownSaveDirsFile = "known_save_dirs"

// Registry is a newline-delimited file of canonical absolute paths.
// Entries that no longer exist are dropped on read.
type Registry struct {
	path string
	mu   sync.Mutex
}

// Model is a local model found under a known save directory.
type Model struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

func New(configDir string) *Registry {
	return &Registry{path: filepath.Join(configDir, knownSaveDirsFile)}
}

// Register canonicalizes dir and appends it if it is not known yet. The
// directory must exist.
func (r *Registry) Register(dir string) error {
	canonical, err := canonicalize(dir)
	if err != nil {
		return fmt.Errorf("failed to canonicalize %s: %w", dir, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dirs, err := r.read()
	if err != nil {
		return err
	}

	if slices.Contains(dirs, canonical) {
		return nil
	}

	dirs = append(dirs, canonical)

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(r.path, []byte(strings.Join(dirs, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write known save dirs: %w", err)
	}

	return nil
}

// Dirs returns the known directories that still exist, in registration order.
func (r *Registry) Dirs() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.read()
}

// ListModels reports every vendor/name directory pair found two levels
// below each known save directory.
func (r *Registry) ListModels() ([]Model, error) {
	dirs, err := r.Dirs()
	if err != nil {
		return nil, err
	}

	var models []Model

	for _, dir := range dirs {
		vendors, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dir, err)
		}

		for _, vendor := range vendors {
			if !vendor.IsDir() {
				continue
			}

			names, err := os.ReadDir(filepath.Join(dir, vendor.Name()))
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", vendor.Name(), err)
			}

			for _, name := range names {
				if !name.IsDir() {
					continue
				}

				models = append(models, Model{
					ID:   vendor.Name() + "/" + name.Name(),
					Path: filepath.Join(dir, vendor.Name(), name.Name()),
				})
			}
		}
	}

	sort.SliceStable(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})

	return models, nil
}

func (r *Registry) read() ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read known save dirs: %w", err)
	}

	var dirs []string

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || slices.Contains(dirs, line) {
			continue
		}

		if _, err := os.Stat(line); err != nil {
			continue
		}

		dirs = append(dirs, line)
	}

	return dirs, nil
}

func canonicalize(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	return filepath.EvalSymlinks(abs)
}
