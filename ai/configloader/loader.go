// Package configloader reads YAML overrides for the formatter, such as
// localized labels.
package configloader

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hrygo/sbotchat/ai/format"
)

// Loader reads YAML files relative to a base directory and caches parsed results.
type Loader struct {
	baseDir string
	cache   sync.Map
}

// NewLoader creates a new configuration loader.
func NewLoader(baseDir string) *Loader {
	return &Loader{baseDir: baseDir}
}

// Load reads a single YAML file and unmarshals it into target.
func (l *Loader) Load(subPath string, target any) error {
	data, err := l.ReadFileWithFallback(subPath)
	if err != nil {
		return fmt.Errorf("read file %s: %w", subPath, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal YAML %s: %w", subPath, err)
	}

	return nil
}

// LoadLabels reads a labels file. Keys missing from the file keep their
// default values.
func (l *Loader) LoadLabels(subPath string) (format.Labels, error) {
	if cached, ok := l.cache.Load(subPath); ok {
		return cached.(format.Labels), nil
	}

	labels := format.DefaultLabels()
	if err := l.Load(subPath, &labels); err != nil {
		return format.Labels{}, err
	}
	labels = labels.WithDefaults()

	l.cache.Store(subPath, labels)
	return labels, nil
}

// ReadFileWithFallback tries to read file from path relative to baseDir,
// then falls back to executable directory for production builds.
func (l *Loader) ReadFileWithFallback(path string) ([]byte, error) {
	if filepath.IsAbs(path) {
		return os.ReadFile(path)
	}

	absPath := filepath.Join(l.baseDir, path)
	data, err := os.ReadFile(absPath)
	if err == nil {
		return data, nil
	}

	execPath, execErr := os.Executable()
	if execErr != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(filepath.Dir(execPath), l.baseDir, path))
}

// ClearCache clears the configuration cache.
func (l *Loader) ClearCache() {
	l.cache.Range(func(key, _ any) bool {
		l.cache.Delete(key)
		return true
	})
}
